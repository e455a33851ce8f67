package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"candlebliss-api/internal/middleware"
	"candlebliss-api/internal/model"
	"candlebliss-api/internal/service/candlebliss"
)

type fakeAdmin struct {
	vouchers   []model.Voucher
	lastToken  string
	created    *model.VoucherRequest
	statusSet  *bool
	createErr  error
	registered *model.RegisterRequest
}

func (f *fakeAdmin) CreateCategory(ctx context.Context, token string, req model.CategoryRequest) (*model.Category, error) {
	f.lastToken = token
	return &model.Category{ID: 11, Name: req.Name}, nil
}

func (f *fakeAdmin) UpdateCategory(ctx context.Context, token string, id int64, req model.CategoryRequest) (*model.Category, error) {
	return &model.Category{ID: id, Name: req.Name}, nil
}

func (f *fakeAdmin) DeleteCategory(ctx context.Context, token string, id int64) error {
	return nil
}

func (f *fakeAdmin) GetVouchers(ctx context.Context, token string) ([]model.Voucher, error) {
	f.lastToken = token
	return f.vouchers, nil
}

func (f *fakeAdmin) GetVoucher(ctx context.Context, token string, id int64) (*model.Voucher, error) {
	for _, v := range f.vouchers {
		if v.ID == id {
			return &v, nil
		}
	}
	return nil, &candlebliss.APIError{Endpoint: "voucher", StatusCode: http.StatusNotFound, Message: "voucher not found"}
}

func (f *fakeAdmin) CreateVoucher(ctx context.Context, token string, req model.VoucherRequest) (*model.Voucher, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = &req
	return &model.Voucher{ID: 3, Code: req.Code, IsActive: boolp(true)}, nil
}

func (f *fakeAdmin) UpdateVoucher(ctx context.Context, token string, id int64, req model.VoucherRequest) (*model.Voucher, error) {
	return nil, nil
}

func (f *fakeAdmin) DeleteVoucher(ctx context.Context, token string, id int64) error {
	return nil
}

func (f *fakeAdmin) UpdateVoucherStatus(ctx context.Context, token string, id int64, isActive bool) (*model.Voucher, error) {
	f.statusSet = &isActive
	return &model.Voucher{ID: id, Code: "SALE20", IsActive: &isActive}, nil
}

func (f *fakeAdmin) Login(ctx context.Context, req model.LoginRequest) (*model.LoginResponse, error) {
	if req.Password != "secret123" {
		return nil, &candlebliss.APIError{Endpoint: "login", StatusCode: http.StatusUnprocessableEntity, Message: "incorrectPassword"}
	}
	return &model.LoginResponse{Token: "jwt"}, nil
}

func (f *fakeAdmin) Register(ctx context.Context, req model.RegisterRequest) error {
	f.registered = &req
	return nil
}

func (f *fakeAdmin) ForgotPassword(ctx context.Context, req model.ForgotPasswordRequest) error {
	return nil
}

func (f *fakeAdmin) ResetPassword(ctx context.Context, req model.ResetPasswordRequest) error {
	return nil
}

type countingInvalidator struct{ calls int }

func (c *countingInvalidator) InvalidateProducts(ctx context.Context) error {
	c.calls++
	return nil
}

func newAdminServer(admin *fakeAdmin, inv *countingInvalidator, now time.Time) http.Handler {
	v := NewValidator()
	adminHandler := NewAdminHandler(admin, inv, v)
	adminHandler.now = func() time.Time { return now }
	authHandler := NewAuthHandler(admin, v)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/admin/categories", adminHandler.CreateCategory)
	mux.HandleFunc("GET /api/v1/admin/vouchers", adminHandler.GetVouchers)
	mux.HandleFunc("POST /api/v1/admin/vouchers", adminHandler.CreateVoucher)
	mux.HandleFunc("GET /api/v1/admin/vouchers/{id}", adminHandler.GetVoucher)
	mux.HandleFunc("PATCH /api/v1/admin/vouchers/{id}", adminHandler.UpdateVoucher)
	mux.HandleFunc("PATCH /api/v1/admin/vouchers/{id}/status", adminHandler.UpdateVoucherStatus)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/v1/auth/register", authHandler.Register)

	sess := &model.Session{Token: "seller-token", UserID: 1}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mux.ServeHTTP(w, r.WithContext(middleware.WithSession(r.Context(), sess)))
	})
}

func intp(v int) *int { return &v }

func boolp(v bool) *bool { return &v }

func TestGetVouchers_DerivedStatus(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	admin := &fakeAdmin{vouchers: []model.Voucher{
		{ID: 1, Code: "OFF", IsActive: boolp(false)},
		{ID: 2, Code: "SOON", IsActive: boolp(true), StartDate: model.NewTimestamp(now.Add(24 * time.Hour))},
		{ID: 3, Code: "USED", IsActive: boolp(true), UsageLimit: intp(5), UsageCount: 5},
		{ID: 4, Code: "LIVE", IsActive: boolp(true), UsageLimit: intp(5), UsageCount: 2},
	}}
	h := newAdminServer(admin, &countingInvalidator{}, now)

	rec, env := do(t, h, http.MethodGet, "/api/v1/admin/vouchers", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "seller-token", admin.lastToken)
	var data struct {
		Vouchers []model.VoucherView `json:"vouchers"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Len(t, data.Vouchers, 4)
	assert.Equal(t, model.StatusCancelled, data.Vouchers[0].Status)
	assert.Equal(t, "Đã hủy", data.Vouchers[0].StatusLabel)
	assert.Equal(t, model.StatusNotStarted, data.Vouchers[1].Status)
	assert.Equal(t, model.StatusExhausted, data.Vouchers[2].Status)
	assert.Equal(t, model.StatusActive, data.Vouchers[3].Status)
	require.NotNil(t, data.Vouchers[3].RemainingUses)
	assert.Equal(t, 3, *data.Vouchers[3].RemainingUses)

	rec, _ = do(t, h, http.MethodGet, "/api/v1/admin/vouchers/99", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateVoucher_Validation(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{
			name:  "lowercase code",
			body:  `{"code":"sale","percent_off":10,"start_date":"2025-01-01","end_date":"2025-02-01"}`,
			field: "code",
		},
		{
			name:  "both discounts",
			body:  `{"code":"SALE","percent_off":10,"amount_off":5000,"start_date":"2025-01-01","end_date":"2025-02-01"}`,
			field: "percent_off",
		},
		{
			name:  "no discount",
			body:  `{"code":"SALE","start_date":"2025-01-01","end_date":"2025-02-01"}`,
			field: "percent_off",
		},
		{
			name:  "percent above 100",
			body:  `{"code":"SALE","percent_off":120,"start_date":"2025-01-01","end_date":"2025-02-01"}`,
			field: "percent_off",
		},
		{
			name:  "end before start",
			body:  `{"code":"SALE","percent_off":10,"start_date":"2025-02-01","end_date":"2025-01-01"}`,
			field: "end_date",
		},
		{
			name:  "zero usage limit",
			body:  `{"code":"SALE","percent_off":10,"usage_limit":0,"start_date":"2025-01-01","end_date":"2025-02-01"}`,
			field: "usage_limit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			admin := &fakeAdmin{}
			h := newAdminServer(admin, &countingInvalidator{}, time.Now())

			rec, env := do(t, h, http.MethodPost, "/api/v1/admin/vouchers", tt.body)

			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Contains(t, env.Fields, tt.field)
			assert.Nil(t, admin.created)
		})
	}
}

func TestCreateVoucher_Valid(t *testing.T) {
	admin := &fakeAdmin{}
	h := newAdminServer(admin, &countingInvalidator{}, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC))

	rec, env := do(t, h, http.MethodPost, "/api/v1/admin/vouchers",
		`{"code":"TET-2025","amount_off":50000,"min_order_value":200000,"start_date":"2025-01-01","end_date":"2025-02-01T00:00:00Z"}`)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.NotNil(t, admin.created)
	assert.Equal(t, "TET-2025", admin.created.Code)
	var view model.VoucherView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, model.StatusActive, view.Status)
}

func TestCreateVoucher_BackendRejects(t *testing.T) {
	admin := &fakeAdmin{createErr: &candlebliss.APIError{
		Endpoint: "voucher_create", StatusCode: http.StatusConflict, Message: "code already exists",
	}}
	h := newAdminServer(admin, &countingInvalidator{}, time.Now())

	rec, env := do(t, h, http.MethodPost, "/api/v1/admin/vouchers",
		`{"code":"DUP","percent_off":10,"start_date":"2025-01-01","end_date":"2025-02-01"}`)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "code already exists", env.Error)
	assert.False(t, env.Retryable)
}

func TestUpdateVoucher_EmptyBackendBody(t *testing.T) {
	h := newAdminServer(&fakeAdmin{}, &countingInvalidator{}, time.Now())

	rec, env := do(t, h, http.MethodPatch, "/api/v1/admin/vouchers/3",
		`{"code":"SALE","percent_off":15,"start_date":"2025-01-01","end_date":"2025-02-01"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
}

func TestUpdateVoucherStatus(t *testing.T) {
	admin := &fakeAdmin{}
	h := newAdminServer(admin, &countingInvalidator{}, time.Now())

	rec, _ := do(t, h, http.MethodPatch, "/api/v1/admin/vouchers/3/status", `{}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, env := do(t, h, http.MethodPatch, "/api/v1/admin/vouchers/3/status", `{"isActive":false}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, admin.statusSet)
	assert.False(t, *admin.statusSet)
	var view model.VoucherView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, model.StatusCancelled, view.Status)
}

func TestCreateCategory_InvalidatesCatalog(t *testing.T) {
	inv := &countingInvalidator{}
	h := newAdminServer(&fakeAdmin{}, inv, time.Now())

	rec, _ := do(t, h, http.MethodPost, "/api/v1/admin/categories", `{"name":""}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, 0, inv.calls)

	rec, _ = do(t, h, http.MethodPost, "/api/v1/admin/categories", `{"name":"Nến thơm"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1, inv.calls)

	rec, _ = do(t, h, http.MethodPost, "/api/v1/admin/categories", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuth_Register(t *testing.T) {
	admin := &fakeAdmin{}
	h := newAdminServer(admin, &countingInvalidator{}, time.Now())

	rec, env := do(t, h, http.MethodPost, "/api/v1/auth/register",
		`{"email":"an@example.com","password":"onlyletters","firstName":"An","lastName":"Nguyen"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, env.Fields, "password")
	assert.Nil(t, admin.registered)

	rec, _ = do(t, h, http.MethodPost, "/api/v1/auth/register",
		`{"email":"an@example.com","password":"candle2025","firstName":"An","lastName":"Nguyen"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, admin.registered)
}

func TestAuth_Login(t *testing.T) {
	h := newAdminServer(&fakeAdmin{}, &countingInvalidator{}, time.Now())

	rec, env := do(t, h, http.MethodPost, "/api/v1/auth/login", `{"email":"bad","password":"x"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, env.Fields, "email")

	rec, env = do(t, h, http.MethodPost, "/api/v1/auth/login", `{"email":"an@example.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "incorrectPassword", env.Error)

	rec, env = do(t, h, http.MethodPost, "/api/v1/auth/login", `{"email":"an@example.com","password":"secret123"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"token":"jwt"`)
}
