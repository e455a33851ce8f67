package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"candlebliss-api/internal/service/candlebliss"
)

// Response is a standard JSON response structure
type Response struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Retryable bool        `json:"retryable,omitempty"` // UI may offer a manual retry
	Fields    interface{} `json:"fields,omitempty"`    // Per-field validation errors
}

// JSON sends a JSON response
func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// Success sends a success response
func Success(w http.ResponseWriter, message string, data interface{}) {
	JSON(w, http.StatusOK, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Created sends a 201 created response
func Created(w http.ResponseWriter, message string, data interface{}) {
	JSON(w, http.StatusCreated, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Error sends an error response
func Error(w http.ResponseWriter, statusCode int, message string) {
	JSON(w, statusCode, Response{
		Success: false,
		Error:   message,
	})
}

// BadRequest sends a 400 bad request response
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, message)
}

// NotFound sends a 404 not found response
func NotFound(w http.ResponseWriter, message string) {
	Error(w, http.StatusNotFound, message)
}

// InternalError sends a 500 internal server error response
func InternalError(w http.ResponseWriter, message string) {
	Error(w, http.StatusInternalServerError, message)
}

// ValidationFailed sends a 422 with the per-field messages
func ValidationFailed(w http.ResponseWriter, fields map[string]string) {
	JSON(w, http.StatusUnprocessableEntity, Response{
		Success: false,
		Error:   "Validation failed",
		Fields:  fields,
	})
}

// UpstreamError translates a backend failure into the response envelope.
// Backend 4xx answers keep their status and message; everything else is a
// 502/503/504 flagged retryable when a retry can succeed.
func UpstreamError(w http.ResponseWriter, action string, err error) {
	retryable := candlebliss.IsRetryable(err)

	var apiErr *candlebliss.APIError
	switch {
	case errors.Is(err, context.Canceled):
		// Client went away; nothing useful to write
		return
	case errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500:
		JSON(w, apiErr.StatusCode, Response{
			Success:   false,
			Error:     apiErr.Message,
			Retryable: retryable,
		})
		return
	}

	log.Printf("[Handler] %s failed: %v", action, err)

	status := http.StatusBadGateway
	message := "Không thể kết nối máy chủ, vui lòng thử lại"
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	case errors.Is(err, candlebliss.ErrNetwork):
		status = http.StatusServiceUnavailable
	case errors.Is(err, candlebliss.ErrMalformedPayload):
		message = "Dữ liệu từ máy chủ không hợp lệ"
	}
	JSON(w, status, Response{
		Success:   false,
		Error:     message,
		Retryable: retryable,
	})
}
