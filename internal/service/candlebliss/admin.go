package candlebliss

import (
	"context"
	"net/http"
	"strconv"

	"candlebliss-api/internal/model"
)

const (
	EndpointCategories = "/api/categories"
	EndpointVouchers   = "/api/v1/vouchers"
)

// GetCategories fetches every category
func (s *Service) GetCategories(ctx context.Context) ([]model.Category, error) {
	body, err := s.doRequest(ctx, call{name: "categories", method: http.MethodGet, path: EndpointCategories})
	if err != nil {
		return nil, err
	}
	return decodeList[model.Category]("categories", body)
}

// CreateCategory creates a category
func (s *Service) CreateCategory(ctx context.Context, token string, req model.CategoryRequest) (*model.Category, error) {
	body, err := s.doRequest(ctx, call{
		name: "category_create", method: http.MethodPost, path: EndpointCategories, token: token, body: req,
	})
	if err != nil {
		return nil, err
	}
	return decodeObject[model.Category]("category_create", body)
}

// UpdateCategory updates a category
func (s *Service) UpdateCategory(ctx context.Context, token string, id int64, req model.CategoryRequest) (*model.Category, error) {
	body, err := s.doRequest(ctx, call{
		name: "category_update", method: http.MethodPatch, path: categoryPath(id), token: token, body: req,
	})
	if err != nil {
		return nil, err
	}
	return decodeObject[model.Category]("category_update", body)
}

// DeleteCategory deletes a category
func (s *Service) DeleteCategory(ctx context.Context, token string, id int64) error {
	_, err := s.doRequest(ctx, call{
		name: "category_delete", method: http.MethodDelete, path: categoryPath(id), token: token,
	})
	return err
}

// GetVouchers fetches every voucher
func (s *Service) GetVouchers(ctx context.Context, token string) ([]model.Voucher, error) {
	body, err := s.doRequest(ctx, call{name: "vouchers", method: http.MethodGet, path: EndpointVouchers, token: token})
	if err != nil {
		return nil, err
	}
	return decodeList[model.Voucher]("vouchers", body)
}

// GetVoucher fetches a single voucher
func (s *Service) GetVoucher(ctx context.Context, token string, id int64) (*model.Voucher, error) {
	body, err := s.doRequest(ctx, call{name: "voucher", method: http.MethodGet, path: voucherPath(id), token: token})
	if err != nil {
		return nil, err
	}
	voucher, err := decodeObject[model.Voucher]("voucher", body)
	if err != nil {
		return nil, err
	}
	if voucher == nil {
		return nil, &APIError{Endpoint: "voucher", StatusCode: http.StatusNotFound, Message: "voucher not found"}
	}
	return voucher, nil
}

// CreateVoucher creates a voucher
func (s *Service) CreateVoucher(ctx context.Context, token string, req model.VoucherRequest) (*model.Voucher, error) {
	body, err := s.doRequest(ctx, call{
		name: "voucher_create", method: http.MethodPost, path: EndpointVouchers, token: token, body: req,
	})
	if err != nil {
		return nil, err
	}
	return decodeObject[model.Voucher]("voucher_create", body)
}

// UpdateVoucher updates a voucher
func (s *Service) UpdateVoucher(ctx context.Context, token string, id int64, req model.VoucherRequest) (*model.Voucher, error) {
	body, err := s.doRequest(ctx, call{
		name: "voucher_update", method: http.MethodPatch, path: voucherPath(id), token: token, body: req,
	})
	if err != nil {
		return nil, err
	}
	return decodeObject[model.Voucher]("voucher_update", body)
}

// DeleteVoucher deletes a voucher
func (s *Service) DeleteVoucher(ctx context.Context, token string, id int64) error {
	_, err := s.doRequest(ctx, call{
		name: "voucher_delete", method: http.MethodDelete, path: voucherPath(id), token: token,
	})
	return err
}

// UpdateVoucherStatus sets the active flag of a voucher
func (s *Service) UpdateVoucherStatus(ctx context.Context, token string, id int64, isActive bool) (*model.Voucher, error) {
	body, err := s.doRequest(ctx, call{
		name:   "voucher_status",
		method: http.MethodPatch,
		path:   voucherPath(id) + "/status",
		token:  token,
		body:   map[string]bool{"isActive": isActive},
	})
	if err != nil {
		return nil, err
	}
	return decodeObject[model.Voucher]("voucher_status", body)
}

func categoryPath(id int64) string {
	return EndpointCategories + "/" + strconv.FormatInt(id, 10)
}

func voucherPath(id int64) string {
	return EndpointVouchers + "/" + strconv.FormatInt(id, 10)
}
