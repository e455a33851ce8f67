package middleware

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"candlebliss-api/internal/model"
)

// UserIDHeader carries the user id the storefront kept next to the token
const UserIDHeader = "X-User-ID"

type sessionKey struct{}

type sessionState struct {
	session *model.Session
	err     error
}

// SessionMiddleware builds the per-request session from the bearer token
type SessionMiddleware struct {
	secret []byte
	now    func() time.Time
}

// NewSessionMiddleware creates the middleware. Tokens are HMAC-verified when
// secret is set; otherwise only the claims are read and the session is left
// unverified, good for forwarding upstream but not for local per-user data.
func NewSessionMiddleware(secret string) *SessionMiddleware {
	return &SessionMiddleware{secret: []byte(secret), now: time.Now}
}

// Session attaches a session to every request. Requests without a usable
// token get an anonymous session; RequireSession rejects those.
func (m *SessionMiddleware) Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		state := sessionState{session: &model.Session{}}

		if token := tokenFromRequest(r); token != "" {
			sess, err := m.parse(token, r.Header.Get(UserIDHeader))
			if err != nil {
				state.err = err
			} else {
				state.session = sess
			}
		}

		ctx := context.WithValue(r.Context(), sessionKey{}, state)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireSession validates that the request carries a signed-in session
func (m *SessionMiddleware) RequireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, _ := r.Context().Value(sessionKey{}).(sessionState)
		if state.err != nil {
			writeError(w, http.StatusUnauthorized, "Unauthorized: "+state.err.Error())
			return
		}
		if !state.session.Authenticated() {
			writeError(w, http.StatusUnauthorized, "Unauthorized: No token provided")
			return
		}
		next.ServeHTTP(w, r)
	}
}

// RequireVerifiedSession is RequireSession for routes serving data this
// service keeps per user. The token signature must have been checked.
func (m *SessionMiddleware) RequireVerifiedSession(next http.HandlerFunc) http.HandlerFunc {
	return m.RequireSession(func(w http.ResponseWriter, r *http.Request) {
		if !SessionFrom(r.Context()).Verified {
			writeError(w, http.StatusForbidden, "Forbidden: session could not be verified")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SessionFrom returns the request session, never nil
func SessionFrom(ctx context.Context) *model.Session {
	if state, ok := ctx.Value(sessionKey{}).(sessionState); ok && state.session != nil {
		return state.session
	}
	return &model.Session{}
}

// WithSession stores a session in ctx
func WithSession(ctx context.Context, sess *model.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, sessionState{session: sess})
}

func tokenFromRequest(r *http.Request) string {
	// Try to get token from Authorization header first
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	// If no header, check token cookie
	if cookie, err := r.Cookie("token"); err == nil {
		return cookie.Value
	}
	return ""
}

func (m *SessionMiddleware) parse(tokenString, headerUserID string) (*model.Session, error) {
	claims := jwt.MapClaims{}

	if len(m.secret) > 0 {
		_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return m.secret, nil
		}, jwt.WithTimeFunc(m.now))
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return nil, errors.New("token expired")
			}
			return nil, errors.New("invalid token")
		}
	} else {
		token, _, err := jwt.NewParser().ParseUnverified(tokenString, claims)
		if err != nil || token.Method == nil || token.Method.Alg() == jwt.SigningMethodNone.Alg() {
			return nil, errors.New("invalid token")
		}
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil && !m.now().Before(exp.Time) {
			return nil, errors.New("token expired")
		}
	}

	sess := &model.Session{Token: tokenString}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		sess.ExpiresAt = exp.Time
	}

	userID, ok := userIDFromClaims(claims)
	if !ok {
		// Older tokens carry no id; the storefront sends the stored userId instead
		id, err := strconv.ParseInt(strings.TrimSpace(headerUserID), 10, 64)
		if err != nil || id <= 0 {
			return nil, errors.New("token has no user id")
		}
		userID = id
	} else {
		sess.Verified = len(m.secret) > 0
		if headerUserID != "" && headerUserID != strconv.FormatInt(userID, 10) {
			log.Printf("[Session] %s header %q ignored, token belongs to user %d", UserIDHeader, headerUserID, userID)
		}
	}
	sess.UserID = userID
	return sess, nil
}

func userIDFromClaims(claims jwt.MapClaims) (int64, bool) {
	for _, key := range []string{"id", "user_id", "sub"} {
		switch v := claims[key].(type) {
		case float64:
			if v > 0 {
				return int64(v), true
			}
		case string:
			if id, err := strconv.ParseInt(v, 10, 64); err == nil && id > 0 {
				return id, true
			}
		}
	}
	return 0, false
}
