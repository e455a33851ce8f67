package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"candlebliss-api/internal/model"
	"candlebliss-api/internal/pricing"
	"candlebliss-api/internal/service/candlebliss"
	"candlebliss-api/internal/service/catalog"
)

// maxListLimit caps the limit query parameter of product listings
const maxListLimit = 100

// CategorySource lists the backend categories
type CategorySource interface {
	GetCategories(ctx context.Context) ([]model.Category, error)
}

// CatalogHandler handles product listing and product page requests
type CatalogHandler struct {
	catalog    *catalog.Service
	categories CategorySource
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(catalogSvc *catalog.Service, categories CategorySource) *CatalogHandler {
	return &CatalogHandler{
		catalog:    catalogSvc,
		categories: categories,
	}
}

// GetProducts handles GET /api/v1/catalog/products
func (h *CatalogHandler) GetProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	categoryID, err := optionalID(query.Get("category"))
	if err != nil {
		BadRequest(w, "category must be a positive integer")
		return
	}
	limit, err := optionalLimit(query.Get("limit"))
	if err != nil {
		BadRequest(w, "limit must be between 1 and 100")
		return
	}
	withRatings, _ := strconv.ParseBool(query.Get("ratings"))

	page, err := h.catalog.ListProducts(r.Context(), catalog.ListOptions{
		CategoryID:  categoryID,
		Limit:       limit,
		WithRatings: withRatings,
	})
	if err != nil {
		UpstreamError(w, "list products", err)
		return
	}

	Success(w, "", page)
}

// GetProduct handles GET /api/v1/catalog/products/{id}
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		BadRequest(w, "Invalid product ID")
		return
	}
	variantID, err := optionalID(r.URL.Query().Get("variant"))
	if err != nil {
		BadRequest(w, "variant must be a positive integer")
		return
	}

	view, err := h.catalog.GetProduct(r.Context(), id, variantID)
	switch {
	case err == nil:
		Success(w, "", view)
	case errors.Is(err, pricing.ErrUnknownVariant):
		NotFound(w, "Variant not found for this product")
	case candlebliss.IsNotFound(err):
		NotFound(w, "Product not found")
	default:
		UpstreamError(w, "get product", err)
	}
}

// GetCarousel handles GET /api/v1/catalog/carousel
func (h *CatalogHandler) GetCarousel(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	categoryID, err := optionalID(query.Get("category"))
	if err != nil {
		BadRequest(w, "category must be a positive integer")
		return
	}
	size, err := optionalLimit(query.Get("size"))
	if err != nil {
		BadRequest(w, "size must be between 1 and 100")
		return
	}

	page, err := h.catalog.Carousel(r.Context(), categoryID, size)
	if err != nil {
		UpstreamError(w, "carousel", err)
		return
	}

	Success(w, "", page)
}

// GetCategories handles GET /api/v1/categories
func (h *CatalogHandler) GetCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categories.GetCategories(r.Context())
	if err != nil {
		UpstreamError(w, "list categories", err)
		return
	}

	if categories == nil {
		categories = []model.Category{}
	}

	Success(w, "", map[string]interface{}{
		"categories": categories,
	})
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

func optionalID(raw string) (*int64, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, errors.New("invalid id")
	}
	return &id, nil
}

func optionalLimit(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > maxListLimit {
		return 0, errors.New("invalid limit")
	}
	return n, nil
}
