package errors

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/render"
)

// APIError represents a structured API error response.
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// Render implements the render.Renderer interface for chi/render.
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// New creates a new APIError with the given parameters.
func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

// NewWithDetails creates a new APIError with additional details.
func NewWithDetails(statusCode int, errorCode, message string, details interface{}) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
		Details:    details,
	}
}

// Predefined error types for the export/delivery pipeline
var (
	// 400 Bad Request
	ErrInvalidFormat  = New(http.StatusBadRequest, "INVALID_FORMAT", "Unsupported export format")
	ErrInvalidDate    = New(http.StatusBadRequest, "INVALID_DATE", "Unparsable date filter")
	ErrInvalidRequest = New(http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format")

	// 404 Not Found
	ErrNotFound = New(http.StatusNotFound, "NOT_FOUND", "Resource not found")

	// 429 Too Many Requests
	ErrRateLimited = New(http.StatusTooManyRequests, "RATE_LIMITED", "Export rate limit exceeded")

	// 502/503 delivery failures
	ErrProviderRejected    = New(http.StatusBadGateway, "PROVIDER_REJECTED", "Delivery provider rejected the message")
	ErrProviderUnreachable = New(http.StatusBadGateway, "PROVIDER_UNREACHABLE", "Delivery provider unreachable")
	ErrProviderNotConfigured = New(http.StatusServiceUnavailable, "PROVIDER_NOT_CONFIGURED",
		"Delivery provider is not configured")

	// 500 Internal Server Error
	ErrInternalServer = New(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Internal server error")
)

// ValidationError represents a single field validation failure.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrValidation creates a validation error with field details.
func ErrValidation(field, message string) *APIError {
	return NewWithDetails(http.StatusBadRequest, "VALIDATION_FAILED", "Request validation failed", ValidationError{
		Field:   field,
		Message: message,
	})
}

// RateLimitDetails carries the machine-readable reset information on a
// RATE_LIMITED response body.
type RateLimitDetails struct {
	RetryAfterSeconds int    `json:"retry_after_seconds"`
	ResetAt           string `json:"reset_at"`
}

// ErrRateLimitedWithReset creates a rate-limited error carrying retry
// and reset details.
func ErrRateLimitedWithReset(retryAfterSeconds int, resetAt string) *APIError {
	return NewWithDetails(http.StatusTooManyRequests, "RATE_LIMITED", "Export rate limit exceeded",
		RateLimitDetails{
			RetryAfterSeconds: retryAfterSeconds,
			ResetAt:           resetAt,
		})
}

// ProviderError creates a provider-qualified delivery error from a base
// provider sentinel.
func ProviderError(base *APIError, provider string, detail string) *APIError {
	return NewWithDetails(base.StatusCode, base.ErrorCode,
		fmt.Sprintf("%s (provider: %s)", base.Message, provider), detail)
}

// ErrorResponse represents a standard error response envelope.
type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   *APIError `json:"error"`
}

// NewErrorResponse creates a new error response.
func NewErrorResponse(err *APIError) *ErrorResponse {
	return &ErrorResponse{
		Success: false,
		Error:   err,
	}
}

// Render implements the render.Renderer interface.
func (e *ErrorResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return e.Error.Render(w, r)
}

// WriteError writes an error response to the HTTP response writer.
func WriteError(w http.ResponseWriter, err *APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.StatusCode)
	json.NewEncoder(w).Encode(NewErrorResponse(err))
}
