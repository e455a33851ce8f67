package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func serveSession(m *SessionMiddleware, header http.Header) (*httptest.ResponseRecorder, int64) {
	return serveGuarded(m, m.RequireSession, header)
}

func serveGuarded(m *SessionMiddleware, guard func(http.HandlerFunc) http.HandlerFunc, header http.Header) (*httptest.ResponseRecorder, int64) {
	var seen int64
	h := m.Session(http.HandlerFunc(guard(func(w http.ResponseWriter, r *http.Request) {
		seen = SessionFrom(r.Context()).UserID
		w.WriteHeader(http.StatusOK)
	})))
	req := httptest.NewRequest(http.MethodGet, "/api/v1/me/svip", nil)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec, seen
}

func TestSession_VerifiedToken(t *testing.T) {
	m := NewSessionMiddleware("secret")
	token := signToken(t, "secret", jwt.MapClaims{"id": 42, "exp": time.Now().Add(time.Hour).Unix()})

	rec, userID := serveSession(m, http.Header{"Authorization": {"Bearer " + token}})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(42), userID)
}

func TestSession_WrongSecretRejected(t *testing.T) {
	m := NewSessionMiddleware("secret")
	token := signToken(t, "other", jwt.MapClaims{"id": 42})

	rec, _ := serveSession(m, http.Header{"Authorization": {"Bearer " + token}})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["error"], "invalid token")
}

func TestSession_ExpiredTokenRejected(t *testing.T) {
	m := NewSessionMiddleware("")
	token := signToken(t, "anything", jwt.MapClaims{"id": 7, "exp": time.Now().Add(-time.Minute).Unix()})

	rec, _ := serveSession(m, http.Header{"Authorization": {"Bearer " + token}})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "token expired")
}

func TestSession_UnverifiedHeaderUserIDNotTrustedLocally(t *testing.T) {
	m := NewSessionMiddleware("")
	token := signToken(t, "backend-secret", jwt.MapClaims{"role": "user"})
	header := http.Header{
		"Authorization": {"Bearer " + token},
		UserIDHeader:    {"15"},
	}

	rec, userID := serveSession(m, header)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(15), userID)

	rec, _ = serveGuarded(m, m.RequireVerifiedSession, header)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSession_UnsignedTokenRejected(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"id": 1}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	header := http.Header{"Authorization": {"Bearer " + token}}

	for _, secret := range []string{"", "secret"} {
		m := NewSessionMiddleware(secret)
		rec, _ := serveSession(m, header)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "secret %q", secret)
		assert.Contains(t, rec.Body.String(), "invalid token")
	}
}

func TestSession_ClaimsWithoutSecretAreUnverified(t *testing.T) {
	m := NewSessionMiddleware("")
	token := signToken(t, "anything", jwt.MapClaims{"id": 42})

	rec, _ := serveGuarded(m, m.RequireVerifiedSession, http.Header{"Authorization": {"Bearer " + token}})

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSession_VerifiedSessionAllowed(t *testing.T) {
	m := NewSessionMiddleware("secret")
	token := signToken(t, "secret", jwt.MapClaims{"id": 42})

	rec, userID := serveGuarded(m, m.RequireVerifiedSession, http.Header{"Authorization": {"Bearer " + token}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(42), userID)

	// A signed token without an id leaves the user to the header
	token = signToken(t, "secret", jwt.MapClaims{"role": "user"})
	rec, _ = serveGuarded(m, m.RequireVerifiedSession, http.Header{
		"Authorization": {"Bearer " + token},
		UserIDHeader:    {"15"},
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = serveGuarded(m, m.RequireVerifiedSession, http.Header{})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSession_ClaimWinsOverHeader(t *testing.T) {
	m := NewSessionMiddleware("")
	token := signToken(t, "x", jwt.MapClaims{"sub": "9"})

	rec, userID := serveSession(m, http.Header{
		"Authorization": {"Bearer " + token},
		UserIDHeader:    {"10"},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(9), userID)
}

func TestSession_CookieToken(t *testing.T) {
	m := NewSessionMiddleware("")
	token := signToken(t, "x", jwt.MapClaims{"user_id": 3})

	var seen int64
	h := m.Session(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = SessionFrom(r.Context()).UserID
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: token})
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, int64(3), seen)
}

func TestSession_AnonymousPassesOptionalRoutes(t *testing.T) {
	m := NewSessionMiddleware("")
	var authenticated = true
	h := m.Session(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authenticated = SessionFrom(r.Context()).Authenticated()
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/gifts", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, authenticated)

	rec, _ = serveSession(m, http.Header{})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFrom(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))

	incoming := "0b8f6c5e-3f0c-4c1a-9d0e-2f5b7a1c9e44"
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, incoming)
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, incoming, seen)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "not-a-uuid")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.NotEqual(t, "not-a-uuid", seen)
}

func TestCORS_Preflight(t *testing.T) {
	called := false
	h := CORS("https://candlebliss.vn")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/v1/admin/vouchers/1", nil))

	assert.False(t, called)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://candlebliss.vn", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "PATCH")
}

func TestRecoverer(t *testing.T) {
	h := Recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"Internal Server Error"}`, rec.Body.String())
}

func TestRateLimit(t *testing.T) {
	h := RateLimit(2)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "203.0.113.7:5000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestContentTypeJSON_SkipsMetrics(t *testing.T) {
	h := ContentTypeJSON(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Empty(t, rec.Header().Get("Content-Type"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/gifts", nil))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}
