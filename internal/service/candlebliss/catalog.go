package candlebliss

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/tidwall/gjson"

	"candlebliss-api/internal/model"
)

const (
	EndpointProducts = "/api/products"
	EndpointPrices   = "/api/v1/prices"
	EndpointGifts    = "/api/v1/gifts"
	EndpointRating   = "/api/rating/get-by-product"
)

// GetProducts fetches every product with its variants
func (s *Service) GetProducts(ctx context.Context) ([]model.Product, error) {
	body, err := s.doRequest(ctx, call{name: "products", method: http.MethodGet, path: EndpointProducts})
	if err != nil {
		return nil, err
	}
	return decodeList[model.Product]("products", body)
}

// GetProduct fetches a single product
func (s *Service) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	body, err := s.doRequest(ctx, call{
		name:   "product",
		method: http.MethodGet,
		path:   EndpointProducts + "/" + strconv.FormatInt(id, 10),
	})
	if err != nil {
		return nil, err
	}
	product, err := decodeObject[model.Product]("product", body)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, &APIError{Endpoint: "product", StatusCode: http.StatusNotFound, Message: "product not found"}
	}
	return product, nil
}

// GetPrices fetches every price record. The token is optional.
func (s *Service) GetPrices(ctx context.Context, token string) ([]model.Price, error) {
	body, err := s.doRequest(ctx, call{name: "prices", method: http.MethodGet, path: EndpointPrices, token: token})
	if err != nil {
		return nil, err
	}
	return decodeList[model.Price]("prices", body)
}

// GetGifts fetches every gift bundle
func (s *Service) GetGifts(ctx context.Context, token string) ([]model.Gift, error) {
	body, err := s.doRequest(ctx, call{name: "gifts", method: http.MethodGet, path: EndpointGifts, token: token})
	if err != nil {
		return nil, err
	}
	return decodeList[model.Gift]("gifts", body)
}

// GetRatingByProduct fetches the aggregated rating of a product
func (s *Service) GetRatingByProduct(ctx context.Context, productID int64) (*model.Rating, error) {
	body, err := s.doRequest(ctx, call{
		name:   "rating",
		method: http.MethodPost,
		path:   EndpointRating,
		body:   map[string]int64{"product_id": productID},
	})
	if err != nil {
		return nil, err
	}
	return parseRating(productID, body)
}

// parseRating accepts either an aggregate object or a list of rating records
func parseRating(productID int64, body []byte) (*model.Rating, error) {
	rating := &model.Rating{ProductID: productID}
	if len(body) == 0 {
		return rating, nil
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: rating: invalid JSON", ErrMalformedPayload)
	}

	if raw, ok := unwrapList(body); ok {
		var sum float64
		records := gjson.Parse(raw).Array()
		for _, r := range records {
			sum += firstNumber(r, "rating", "stars", "score")
		}
		rating.Count = len(records)
		if rating.Count > 0 {
			rating.Average = sum / float64(rating.Count)
		}
		return rating, nil
	}

	raw, _ := unwrapObject(body)
	obj := gjson.Parse(raw)
	rating.Average = firstNumber(obj, "averageRating", "avg_rating", "avgRating", "average")
	rating.Count = int(firstNumber(obj, "totalRatings", "total_ratings", "count", "total"))
	return rating, nil
}

func firstNumber(r gjson.Result, paths ...string) float64 {
	for _, p := range paths {
		if v := r.Get(p); v.Exists() {
			return v.Float()
		}
	}
	return 0
}
