package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"candlebliss-api/internal/middleware"
	"candlebliss-api/internal/model"
	"candlebliss-api/internal/service/candlebliss"
)

// AdminBackend is the seller surface of the backend
type AdminBackend interface {
	CreateCategory(ctx context.Context, token string, req model.CategoryRequest) (*model.Category, error)
	UpdateCategory(ctx context.Context, token string, id int64, req model.CategoryRequest) (*model.Category, error)
	DeleteCategory(ctx context.Context, token string, id int64) error
	GetVouchers(ctx context.Context, token string) ([]model.Voucher, error)
	GetVoucher(ctx context.Context, token string, id int64) (*model.Voucher, error)
	CreateVoucher(ctx context.Context, token string, req model.VoucherRequest) (*model.Voucher, error)
	UpdateVoucher(ctx context.Context, token string, id int64, req model.VoucherRequest) (*model.Voucher, error)
	DeleteVoucher(ctx context.Context, token string, id int64) error
	UpdateVoucherStatus(ctx context.Context, token string, id int64, isActive bool) (*model.Voucher, error)
}

// CatalogInvalidator drops cached catalog data after a seller edit
type CatalogInvalidator interface {
	InvalidateProducts(ctx context.Context) error
}

// AdminHandler handles seller category and voucher management
type AdminHandler struct {
	backend  AdminBackend
	catalog  CatalogInvalidator
	validate *validator.Validate
	now      func() time.Time
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(backend AdminBackend, catalog CatalogInvalidator, validate *validator.Validate) *AdminHandler {
	return &AdminHandler{
		backend:  backend,
		catalog:  catalog,
		validate: validate,
		now:      time.Now,
	}
}

// ==================== Categories ====================

// CreateCategory handles POST /api/v1/admin/categories
func (h *AdminHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req model.CategoryRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	category, err := h.backend.CreateCategory(r.Context(), token(r), req)
	if err != nil {
		UpstreamError(w, "create category", err)
		return
	}

	h.invalidate(r.Context())
	Created(w, "Category created", category)
}

// UpdateCategory handles PATCH /api/v1/admin/categories/{id}
func (h *AdminHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		BadRequest(w, "Invalid category ID")
		return
	}
	var req model.CategoryRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	category, err := h.backend.UpdateCategory(r.Context(), token(r), id, req)
	if err != nil {
		UpstreamError(w, "update category", err)
		return
	}

	h.invalidate(r.Context())
	Success(w, "Category updated", category)
}

// DeleteCategory handles DELETE /api/v1/admin/categories/{id}
func (h *AdminHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		BadRequest(w, "Invalid category ID")
		return
	}

	if err := h.backend.DeleteCategory(r.Context(), token(r), id); err != nil {
		UpstreamError(w, "delete category", err)
		return
	}

	h.invalidate(r.Context())
	log.Printf("[Admin] Category %d deleted", id)
	Success(w, "Category deleted", nil)
}

// ==================== Vouchers ====================

// GetVouchers handles GET /api/v1/admin/vouchers
func (h *AdminHandler) GetVouchers(w http.ResponseWriter, r *http.Request) {
	vouchers, err := h.backend.GetVouchers(r.Context(), token(r))
	if err != nil {
		UpstreamError(w, "list vouchers", err)
		return
	}

	now := h.now()
	views := make([]model.VoucherView, 0, len(vouchers))
	for i := range vouchers {
		views = append(views, vouchers[i].ToView(now))
	}

	Success(w, "", map[string]interface{}{
		"vouchers": views,
		"total":    len(views),
	})
}

// GetVoucher handles GET /api/v1/admin/vouchers/{id}
func (h *AdminHandler) GetVoucher(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		BadRequest(w, "Invalid voucher ID")
		return
	}

	voucher, err := h.backend.GetVoucher(r.Context(), token(r), id)
	if err != nil {
		if candlebliss.IsNotFound(err) {
			NotFound(w, "Voucher not found")
			return
		}
		UpstreamError(w, "get voucher", err)
		return
	}

	Success(w, "", voucher.ToView(h.now()))
}

// CreateVoucher handles POST /api/v1/admin/vouchers
func (h *AdminHandler) CreateVoucher(w http.ResponseWriter, r *http.Request) {
	var req model.VoucherRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	voucher, err := h.backend.CreateVoucher(r.Context(), token(r), req)
	if err != nil {
		UpstreamError(w, "create voucher", err)
		return
	}

	log.Printf("[Admin] Voucher %s created", req.Code)
	Created(w, "Voucher created", h.voucherView(voucher))
}

// UpdateVoucher handles PATCH /api/v1/admin/vouchers/{id}
func (h *AdminHandler) UpdateVoucher(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		BadRequest(w, "Invalid voucher ID")
		return
	}
	var req model.VoucherRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	voucher, err := h.backend.UpdateVoucher(r.Context(), token(r), id, req)
	if err != nil {
		UpstreamError(w, "update voucher", err)
		return
	}

	Success(w, "Voucher updated", h.voucherView(voucher))
}

// UpdateVoucherStatus handles PATCH /api/v1/admin/vouchers/{id}/status
func (h *AdminHandler) UpdateVoucherStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		BadRequest(w, "Invalid voucher ID")
		return
	}
	var req model.VoucherStatusRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	voucher, err := h.backend.UpdateVoucherStatus(r.Context(), token(r), id, *req.IsActive)
	if err != nil {
		UpstreamError(w, "update voucher status", err)
		return
	}

	log.Printf("[Admin] Voucher %d isActive=%t", id, *req.IsActive)
	Success(w, "Voucher status updated", h.voucherView(voucher))
}

// DeleteVoucher handles DELETE /api/v1/admin/vouchers/{id}
func (h *AdminHandler) DeleteVoucher(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		BadRequest(w, "Invalid voucher ID")
		return
	}

	if err := h.backend.DeleteVoucher(r.Context(), token(r), id); err != nil {
		UpstreamError(w, "delete voucher", err)
		return
	}

	log.Printf("[Admin] Voucher %d deleted", id)
	Success(w, "Voucher deleted", nil)
}

// voucherView derives the status of a returned voucher; the backend may answer with an empty body
func (h *AdminHandler) voucherView(v *model.Voucher) interface{} {
	if v == nil {
		return nil
	}
	return v.ToView(h.now())
}

func (h *AdminHandler) invalidate(ctx context.Context) {
	if h.catalog == nil {
		return
	}
	if err := h.catalog.InvalidateProducts(ctx); err != nil {
		log.Printf("[Admin] Failed to invalidate catalog cache: %v", err)
	}
}

func token(r *http.Request) string {
	return middleware.SessionFrom(r.Context()).BearerToken()
}
