package model

import (
	"encoding/json"
	"time"
)

// Session is the per-request authentication context. It replaces direct
// reads of the browser's "token" and "userId" storage keys.
type Session struct {
	Token     string    `json:"-"`
	UserID    int64     `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
	// Verified is set only when the token signature was checked and the
	// user id came from its claims
	Verified bool `json:"-"`
}

// Authenticated reports whether the session carries a token and a user
func (s *Session) Authenticated() bool {
	return s != nil && s.Token != "" && s.UserID > 0
}

// BearerToken returns the token, or "" for an anonymous session
func (s *Session) BearerToken() string {
	if s == nil {
		return ""
	}
	return s.Token
}

// HistoryKind names a per-user browsing history list
type HistoryKind string

const (
	HistoryGiftSearch HistoryKind = "gift_search" // giftSearchHistory, cap 20
	HistoryGiftView   HistoryKind = "gift_view"   // giftViewHistory, cap 50
)

// Cap returns the maximum number of entries kept for the kind
func (k HistoryKind) Cap() int {
	switch k {
	case HistoryGiftSearch:
		return 20
	case HistoryGiftView:
		return 50
	default:
		return 0
	}
}

// Valid reports whether k is a known history kind
func (k HistoryKind) Valid() bool {
	return k.Cap() > 0
}

// HistoryEntry is one item of a history list, most recent first
type HistoryEntry struct {
	Value     string    `json:"value"`
	TouchedAt time.Time `json:"touched_at"`
}

// SVIPStatus is the cached "super VIP" flag of a customer
type SVIPStatus struct {
	UserID     int64     `json:"user_id"`
	IsSVIP     bool      `json:"is_svip"`
	OrderCount int       `json:"order_count"`
	CheckedAt  time.Time `json:"checked_at"`
	FromCache  bool      `json:"from_cache"`
}

// LoginRequest for email login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest for creating a customer account
type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,password"`
	FirstName string `json:"firstName" validate:"required,max=50"`
	LastName  string `json:"lastName" validate:"required,max=50"`
	Phone     string `json:"phone,omitempty" validate:"omitempty,numeric,min=9,max=11"`
}

// ForgotPasswordRequest for password reset request
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest for resetting password with the emailed hash
type ResetPasswordRequest struct {
	Hash     string `json:"hash" validate:"required"`
	Password string `json:"password" validate:"required,password"`
}

// CategoryRequest is the create/update payload for categories
type CategoryRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=100"`
	Description string `json:"description,omitempty" validate:"max=500"`
}

// LoginResponse is the session issued by the backend on login
type LoginResponse struct {
	Token        string          `json:"token"`
	RefreshToken string          `json:"refreshToken,omitempty"`
	TokenExpires int64           `json:"tokenExpires,omitempty"` // Unix millis
	User         json.RawMessage `json:"user,omitempty"`
}

// OrderSummary is the part of an order the storefront reads
type OrderSummary struct {
	ID         int64     `json:"id"`
	Status     string    `json:"status"`
	TotalPrice Amount    `json:"total_price"`
	CreatedAt  Timestamp `json:"createdAt"`
}
