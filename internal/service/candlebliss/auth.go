package candlebliss

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"candlebliss-api/internal/model"
)

const (
	EndpointLogin          = "/api/v1/auth/email/login"
	EndpointRegister       = "/api/v1/auth/email/register"
	EndpointForgotPassword = "/api/v1/auth/forgot/password"
	EndpointResetPassword  = "/api/v1/auth/reset/password"
	EndpointOrders         = "/api/orders"
)

// Login exchanges credentials for a backend session
func (s *Service) Login(ctx context.Context, req model.LoginRequest) (*model.LoginResponse, error) {
	body, err := s.doRequest(ctx, call{name: "login", method: http.MethodPost, path: EndpointLogin, body: req})
	if err != nil {
		return nil, err
	}
	resp, err := decodeObject[model.LoginResponse]("login", body)
	if err != nil {
		return nil, err
	}
	if resp == nil || resp.Token == "" {
		return nil, &APIError{Endpoint: "login", StatusCode: http.StatusBadGateway, Message: "login response without token"}
	}
	return resp, nil
}

// Register creates a customer account
func (s *Service) Register(ctx context.Context, req model.RegisterRequest) error {
	_, err := s.doRequest(ctx, call{name: "register", method: http.MethodPost, path: EndpointRegister, body: req})
	return err
}

// ForgotPassword asks the backend to email a reset link
func (s *Service) ForgotPassword(ctx context.Context, req model.ForgotPasswordRequest) error {
	_, err := s.doRequest(ctx, call{name: "forgot_password", method: http.MethodPost, path: EndpointForgotPassword, body: req})
	return err
}

// ResetPassword sets a new password with the emailed hash
func (s *Service) ResetPassword(ctx context.Context, req model.ResetPasswordRequest) error {
	_, err := s.doRequest(ctx, call{name: "reset_password", method: http.MethodPost, path: EndpointResetPassword, body: req})
	return err
}

// GetOrdersByUser fetches the orders of a customer
func (s *Service) GetOrdersByUser(ctx context.Context, token string, userID int64) ([]model.OrderSummary, error) {
	query := url.Values{"userId": {strconv.FormatInt(userID, 10)}}
	body, err := s.doRequest(ctx, call{
		name:   "orders",
		method: http.MethodGet,
		path:   EndpointOrders + "?" + query.Encode(),
		token:  token,
	})
	if err != nil {
		return nil, err
	}
	return decodeList[model.OrderSummary]("orders", body)
}
