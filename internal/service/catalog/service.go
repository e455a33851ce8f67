package catalog

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"candlebliss-api/internal/model"
	"candlebliss-api/internal/pricing"
)

// DefaultCarouselSize is the number of cards in a carousel feed
const DefaultCarouselSize = 8

// ErrGiftNotFound is returned when a gift id is not in the gift list
var ErrGiftNotFound = errors.New("gift not found")

// Backend is the part of the CandleBliss client the catalog reads
type Backend interface {
	GetProducts(ctx context.Context) ([]model.Product, error)
	GetProduct(ctx context.Context, id int64) (*model.Product, error)
	GetPrices(ctx context.Context, token string) ([]model.Price, error)
	GetGifts(ctx context.Context, token string) ([]model.Gift, error)
	GetRatingByProduct(ctx context.Context, productID int64) (*model.Rating, error)
}

// Options configures the catalog service
type Options struct {
	DefaultCategoryID int64
	FanOutLimit       int
}

// ListOptions selects a product listing
type ListOptions struct {
	CategoryID  *int64
	Limit       int
	WithRatings bool
}

// Service serves display-ready catalog views built by the pricing pipeline
type Service struct {
	backend  Backend
	cache    *Cache
	pipeline *pricing.Pipeline
	opts     Options
	now      func() time.Time
}

// NewService creates a new catalog service
func NewService(backend Backend, cache *Cache, pipeline *pricing.Pipeline, opts Options) *Service {
	if cache == nil {
		cache = NewCache(nil, 0, nil)
	}
	return &Service{
		backend:  backend,
		cache:    cache,
		pipeline: pipeline,
		opts:     opts,
		now:      time.Now,
	}
}

// ListProducts resolves a product listing, optionally with ratings
func (s *Service) ListProducts(ctx context.Context, opts ListOptions) (model.CatalogPage, error) {
	products, prices, err := s.productsAndPrices(ctx)
	if err != nil {
		return model.CatalogPage{}, err
	}

	page := s.pipeline.Page(products, prices, opts.CategoryID, opts.Limit, s.now())
	if page.Degraded {
		log.Printf("[Catalog] Category %d had no match, showing %d fallback products", *opts.CategoryID, page.Total)
	}
	if opts.WithRatings {
		if err := s.attachRatings(ctx, page.Items); err != nil {
			return model.CatalogPage{}, err
		}
	}
	return page, nil
}

// GetProduct resolves a product page. variantID selects a non-default variant.
func (s *Service) GetProduct(ctx context.Context, id int64, variantID *int64) (model.ProductDetailView, error) {
	var product *model.Product
	var prices []model.Price

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		product, err = s.backend.GetProduct(gctx, id)
		if err != nil {
			return fmt.Errorf("failed to get product %d: %w", id, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		prices, err = s.prices(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return model.ProductDetailView{}, err
	}

	view, err := s.pipeline.Detail(*product, prices, variantID, s.now())
	if err != nil {
		return model.ProductDetailView{}, err
	}

	// Rating is decoration; the page renders without it
	if rating, err := s.backend.GetRatingByProduct(ctx, id); err != nil {
		log.Printf("[Catalog] Rating for product %d unavailable: %v", id, err)
	} else {
		view.Rating = rating
	}
	return view, nil
}

// Carousel returns the carousel feed of a category (the candle category when
// nil). Products listed without variants get their details fetched per id.
func (s *Service) Carousel(ctx context.Context, categoryID *int64, size int) (model.CatalogPage, error) {
	if categoryID == nil {
		id := s.opts.DefaultCategoryID
		categoryID = &id
	}
	if size <= 0 {
		size = DefaultCarouselSize
	}

	products, prices, err := s.productsAndPrices(ctx)
	if err != nil {
		return model.CatalogPage{}, err
	}

	selected, page := s.pipeline.Select(products, categoryID, size)
	selected, err = s.withDetails(ctx, selected)
	if err != nil {
		return model.CatalogPage{}, err
	}
	s.pipeline.Fill(&page, selected, prices, s.now())
	return page, nil
}

// ListGifts returns every gift with its status and constituent products
func (s *Service) ListGifts(ctx context.Context) ([]model.GiftView, error) {
	var gifts []model.Gift
	var products []model.Product

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		gifts, err = s.gifts(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		products, err = s.products(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byID := make(map[int64]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	now := s.now()
	views := make([]model.GiftView, 0, len(gifts))
	for _, gift := range gifts {
		views = append(views, s.pipeline.Gift(gift, byID, now))
	}
	return views, nil
}

// GetGift returns a single gift view
func (s *Service) GetGift(ctx context.Context, id int64) (model.GiftView, error) {
	views, err := s.ListGifts(ctx)
	if err != nil {
		return model.GiftView{}, err
	}
	for _, v := range views {
		if v.ID == id {
			return v, nil
		}
	}
	return model.GiftView{}, ErrGiftNotFound
}

// SearchGifts returns the gifts whose name or description contains query
func (s *Service) SearchGifts(ctx context.Context, query string) ([]model.GiftView, error) {
	views, err := s.ListGifts(ctx)
	if err != nil {
		return nil, err
	}
	matched := make([]model.GiftView, 0, len(views))
	for _, v := range views {
		if pricing.ContainsFold(v.Name, query) || pricing.ContainsFold(v.Description, query) {
			matched = append(matched, v)
		}
	}
	return matched, nil
}

// Warm reloads the cached products, prices and gifts
func (s *Service) Warm(ctx context.Context) error {
	var errs []error
	if err := s.cache.Refresh(ctx, keyProducts, func(ctx context.Context) (interface{}, error) {
		return s.backend.GetProducts(ctx)
	}); err != nil {
		errs = append(errs, fmt.Errorf("failed to warm products: %w", err))
	}
	if err := s.cache.Refresh(ctx, keyPrices, func(ctx context.Context) (interface{}, error) {
		return s.backend.GetPrices(ctx, "")
	}); err != nil {
		errs = append(errs, fmt.Errorf("failed to warm prices: %w", err))
	}
	if err := s.cache.Refresh(ctx, keyGifts, func(ctx context.Context) (interface{}, error) {
		return s.backend.GetGifts(ctx, "")
	}); err != nil {
		errs = append(errs, fmt.Errorf("failed to warm gifts: %w", err))
	}
	return errors.Join(errs...)
}

// InvalidateProducts drops the cached product list
func (s *Service) InvalidateProducts(ctx context.Context) error {
	return s.cache.Invalidate(ctx, keyProducts)
}

func (s *Service) productsAndPrices(ctx context.Context) ([]model.Product, []model.Price, error) {
	var products []model.Product
	var prices []model.Price

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, err = s.products(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		prices, err = s.prices(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return products, prices, nil
}

func (s *Service) products(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := s.cache.FetchJSON(ctx, keyProducts, &products, func(ctx context.Context) (interface{}, error) {
		return s.backend.GetProducts(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get products: %w", err)
	}
	return products, nil
}

// prices and gifts are shared by every caller through one cache key, so they
// are always fetched without a user token
func (s *Service) prices(ctx context.Context) ([]model.Price, error) {
	var prices []model.Price
	err := s.cache.FetchJSON(ctx, keyPrices, &prices, func(ctx context.Context) (interface{}, error) {
		return s.backend.GetPrices(ctx, "")
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get prices: %w", err)
	}
	return prices, nil
}

func (s *Service) gifts(ctx context.Context) ([]model.Gift, error) {
	var gifts []model.Gift
	err := s.cache.FetchJSON(ctx, keyGifts, &gifts, func(ctx context.Context) (interface{}, error) {
		return s.backend.GetGifts(ctx, "")
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get gifts: %w", err)
	}
	return gifts, nil
}

// withDetails fetches the variants of products listed without them. A failed
// lookup keeps the listed product.
func (s *Service) withDetails(ctx context.Context, products []model.Product) ([]model.Product, error) {
	var missing []int64
	for _, p := range products {
		if len(p.Details) == 0 {
			missing = append(missing, p.ID)
		}
	}
	if len(missing) == 0 {
		return products, nil
	}

	pairs, err := FanOut(ctx, missing, s.opts.FanOutLimit, s.backend.GetProduct)
	if err != nil {
		return nil, err
	}
	fetched := make(map[int64]model.Product, len(pairs))
	for _, pair := range pairs {
		if pair.Err != nil || pair.Result == nil {
			log.Printf("[Catalog] Details for product %d unavailable: %v", pair.ID, pair.Err)
			continue
		}
		fetched[pair.ID] = pricing.Normalize(*pair.Result)
	}

	out := make([]model.Product, len(products))
	for i, p := range products {
		if full, ok := fetched[p.ID]; ok && len(full.Details) > 0 {
			p.Details = full.Details
		}
		out[i] = p
	}
	return out, nil
}

// attachRatings fills card ratings through one call per product
func (s *Service) attachRatings(ctx context.Context, cards []model.ProductCard) error {
	ids := make([]int64, len(cards))
	for i, c := range cards {
		ids[i] = c.ID
	}

	pairs, err := FanOut(ctx, ids, s.opts.FanOutLimit, s.backend.GetRatingByProduct)
	if err != nil {
		return err
	}
	ratings := make(map[int64]*model.Rating, len(pairs))
	for _, pair := range pairs {
		if pair.Err != nil {
			log.Printf("[Catalog] Rating for product %d unavailable: %v", pair.ID, pair.Err)
			continue
		}
		ratings[pair.ID] = pair.Result
	}
	for i := range cards {
		cards[i].Rating = ratings[cards[i].ID]
	}
	return nil
}
