package domain

import (
	"errors"
	"net/http"
)

// Domain-specific errors for better error handling and user feedback
var (
	// ErrEntryNotFound is returned by the entry repository when a key has no live record
	ErrEntryNotFound = errors.New("cache entry not found")

	// ErrInvalidRequest is returned when a request payload is malformed
	ErrInvalidRequest = errors.New("invalid request")

	// ErrInvalidTTL is returned for negative or out-of-range ttl_seconds values
	ErrInvalidTTL = errors.New("ttl must be between 0 and 9223372036 seconds")

	// ErrRateLimitExceeded is returned when rate limit is hit
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// ErrCacheUnavailable is returned when the backing store fails
	ErrCacheUnavailable = errors.New("cache temporarily unavailable")
)

// AppError wraps errors with additional context for better debugging
type AppError struct {
	Err        error  // Original error
	Message    string // User-friendly message
	StatusCode int    // HTTP status code
	Internal   bool   // Whether to log as internal error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

// Unwrap returns the wrapped error for errors.Is and errors.As
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a 400 validation error
func NewValidationError(err error, message string) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Internal:   false,
	}
}

// NewInternalError creates a 500 internal server error
func NewInternalError(err error) *AppError {
	return &AppError{
		Err:        err,
		Message:    "Internal server error occurred",
		StatusCode: http.StatusInternalServerError,
		Internal:   true, // Log this error
	}
}

// NewUnavailableError creates a 503 error for store outages
func NewUnavailableError(err error) *AppError {
	return &AppError{
		Err:        errors.Join(ErrCacheUnavailable, err),
		Message:    ErrCacheUnavailable.Error(),
		StatusCode: http.StatusServiceUnavailable,
		Internal:   true,
	}
}
