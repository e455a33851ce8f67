package handler

import (
	"context"
	"log"
	"net/http"

	"github.com/go-playground/validator/v10"

	"candlebliss-api/internal/model"
)

// AuthBackend is the backend's email auth surface
type AuthBackend interface {
	Login(ctx context.Context, req model.LoginRequest) (*model.LoginResponse, error)
	Register(ctx context.Context, req model.RegisterRequest) error
	ForgotPassword(ctx context.Context, req model.ForgotPasswordRequest) error
	ResetPassword(ctx context.Context, req model.ResetPasswordRequest) error
}

// AuthHandler validates auth requests and forwards them to the backend
type AuthHandler struct {
	backend  AuthBackend
	validate *validator.Validate
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(backend AuthBackend, validate *validator.Validate) *AuthHandler {
	return &AuthHandler{
		backend:  backend,
		validate: validate,
	}
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	resp, err := h.backend.Login(r.Context(), req)
	if err != nil {
		UpstreamError(w, "login", err)
		return
	}

	Success(w, "Login successful", resp)
}

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	if err := h.backend.Register(r.Context(), req); err != nil {
		UpstreamError(w, "register", err)
		return
	}

	log.Printf("[Auth] Registered %s", req.Email)
	Created(w, "Registration successful, please check your email", nil)
}

// ForgotPassword handles POST /api/v1/auth/forgot-password
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req model.ForgotPasswordRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	if err := h.backend.ForgotPassword(r.Context(), req); err != nil {
		UpstreamError(w, "forgot password", err)
		return
	}

	Success(w, "If the email exists, a reset link has been sent", nil)
}

// ResetPassword handles POST /api/v1/auth/reset-password
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req model.ResetPasswordRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	if err := h.backend.ResetPassword(r.Context(), req); err != nil {
		UpstreamError(w, "reset password", err)
		return
	}

	Success(w, "Password has been reset", nil)
}
