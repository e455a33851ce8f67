package candlebliss

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"candlebliss-api/internal/config"
	"candlebliss-api/internal/metrics"
	"candlebliss-api/internal/model"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *Service {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	cfg := &config.Config{APIBaseURL: server.URL + "/", UpstreamTimeout: 2 * time.Second}
	return NewService(cfg, metrics.New())
}

func TestGetProductsEnvelopes(t *testing.T) {
	bodies := []string{
		`[{"id":1,"name":"Nến A","images":{"path":"/a.png"}}]`,
		`{"data":[{"id":1,"name":"Nến A","images":[{"path":"/a.png"}]}]}`,
		`{"data":{"data":[{"id":1,"name":"Nến A","images":"/a.png"}],"total":1}}`,
		`{"items":[{"id":1,"name":"Nến A","images":[{"url":"/a.png"}]}]}`,
	}
	for _, body := range bodies {
		svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, EndpointProducts, r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(body))
		})
		products, err := svc.GetProducts(context.Background())
		require.NoError(t, err, body)
		require.Len(t, products, 1)
		assert.Equal(t, "Nến A", products[0].Name)
		assert.Equal(t, "/a.png", products[0].PrimaryImage())
	}
}

func TestFoundWithJSONBodyIsSuccess(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "/somewhere")
		w.WriteHeader(http.StatusFound)
		_, _ = w.Write([]byte(`{"data":[{"id":3,"name":"Nến"}]}`))
	})
	categories, err := svc.GetCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, int64(3), categories[0].ID)
}

func TestFoundWithoutJSONIsError(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "/login")
		w.WriteHeader(http.StatusFound)
		_, _ = w.Write([]byte(`<html>moved</html>`))
	})
	_, err := svc.GetCategories(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusFound, apiErr.StatusCode)
	assert.False(t, IsRetryable(err))
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		message   string
		retryable bool
	}{
		{"message field", http.StatusInternalServerError, `{"message":"database down"}`, "database down", true},
		{"errors object", http.StatusUnprocessableEntity, `{"status":422,"errors":{"email":"emailNotExists"}}`, "email: emailNotExists", false},
		{"plain text", http.StatusBadGateway, `upstream gone`, "upstream gone", true},
		{"empty body", http.StatusNotFound, ``, "Not Found", false},
		{"too many requests", http.StatusTooManyRequests, `{"error":"slow down"}`, "slow down", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := svc.GetProducts(context.Background())
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.message, apiErr.Message)
			assert.Equal(t, tt.retryable, IsRetryable(err))
		})
	}
}

func TestMalformedPayload(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": {"unexpected": true}}`))
	})
	_, err := svc.GetPrices(context.Background(), "")
	assert.ErrorIs(t, err, ErrMalformedPayload)
	assert.False(t, IsRetryable(err))

	svc = newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id": 1, "base_price": "abc"}]`))
	})
	_, err = svc.GetPrices(context.Background(), "")
	assert.ErrorIs(t, err, ErrMalformedPayload)
}

func TestTimeoutIsNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	svc := NewService(&config.Config{APIBaseURL: server.URL, UpstreamTimeout: 50 * time.Millisecond}, nil)
	_, err := svc.GetProducts(context.Background())
	assert.ErrorIs(t, err, ErrNetwork)
	assert.True(t, IsRetryable(err))
}

func TestCancelledContextAbortsRequest(t *testing.T) {
	started := make(chan struct{})
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, err := svc.GetProducts(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, IsRetryable(err))
}

func TestBearerTokenAttached(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/api/v1/vouchers/9/status", r.URL.Path)

		var body map[string]bool
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.False(t, body["isActive"])
		_, _ = w.Write([]byte(`{"id":9,"code":"TET-2025","isActive":false}`))
	})
	v, err := svc.UpdateVoucherStatus(context.Background(), "tok-123", 9, false)
	require.NoError(t, err)
	assert.Equal(t, "TET-2025", v.Code)
	require.NotNil(t, v.IsActive)
	assert.False(t, *v.IsActive)
}

func TestGetProductNotFound(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Product not found"}`))
	})
	_, err := svc.GetProduct(context.Background(), 42)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, http.StatusNotFound, StatusCode(err))
}

func TestRatingShapes(t *testing.T) {
	aggregate := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]int64
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, int64(5), body["product_id"])
		_, _ = w.Write([]byte(`{"data":{"averageRating":4.5,"totalRatings":12}}`))
	})
	rating, err := aggregate.GetRatingByProduct(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, model.Rating{ProductID: 5, Average: 4.5, Count: 12}, *rating)

	records := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"rating":5},{"rating":4},{"rating":3}]`))
	})
	rating, err = records.GetRatingByProduct(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 3, rating.Count)
	assert.InDelta(t, 4.0, rating.Average, 1e-9)
}

func TestLoginRequiresToken(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, EndpointLogin, r.URL.Path)
		_, _ = w.Write([]byte(`{"token":"","user":{"id":1}}`))
	})
	_, err := svc.Login(context.Background(), model.LoginRequest{Email: "a@b.vn", Password: "x"})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, StatusCode(err))
}

func TestGetOrdersByUser(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "7", r.URL.Query().Get("userId"))
		_, _ = w.Write([]byte(`{"data":[{"id":1,"status":"delivered","total_price":"250000"},{"id":2}]}`))
	})
	orders, err := svc.GetOrdersByUser(context.Background(), "tok", 7)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, model.Amount(250000), orders[0].TotalPrice)
}

func TestIsRetryableNil(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(errors.New("other")))
	assert.True(t, IsRetryable(context.DeadlineExceeded))
}
