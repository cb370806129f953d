package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors, one per failure kind surfaced at the HTTP boundary.
var (
	ErrNotFound        = errors.New("resource not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrValidation      = errors.New("validation failed")
	ErrMisconfigured   = errors.New("misconfigured")
	ErrUpstream        = errors.New("upstream failure")
	ErrInternal        = errors.New("internal error")
)

// AppError is an error with a stable code and an HTTP status.
type AppError struct {
	Code    string            `json:"code"`
	Message string            `json:"detail"`
	Fields  map[string]string `json:"fields,omitempty"`
	Status  int               `json:"-"`
	Err     error             `json:"-"`
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound creates a 404 error.
func NotFound(resource string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s not found", resource),
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// InvalidArgument creates a 400 error.
func InvalidArgument(message string) *AppError {
	return &AppError{
		Code:    "INVALID_ARGUMENT",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidArgument,
	}
}

// Validation creates a 422 error with per-field messages.
func Validation(message string, fields map[string]string) *AppError {
	return &AppError{
		Code:    "VALIDATION_ERROR",
		Message: message,
		Fields:  fields,
		Status:  http.StatusUnprocessableEntity,
		Err:     ErrValidation,
	}
}

// Misconfigured creates a 500 error for missing server configuration.
func Misconfigured(message string) *AppError {
	return &AppError{
		Code:    "MISCONFIGURED",
		Message: message,
		Status:  http.StatusInternalServerError,
		Err:     ErrMisconfigured,
	}
}

// Upstream creates a 500 error for a failed provider call.
func Upstream(message string, err error) *AppError {
	if err == nil {
		err = ErrUpstream
	}
	return &AppError{
		Code:    "UPSTREAM_FAILURE",
		Message: message,
		Status:  http.StatusInternalServerError,
		Err:     fmt.Errorf("%w: %w", ErrUpstream, err),
	}
}

// Internal creates a 500 error. The message is shown to the client.
func Internal(message string, err error) *AppError {
	if err == nil {
		err = ErrInternal
	}
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: message,
		Status:  http.StatusInternalServerError,
		Err:     fmt.Errorf("%w: %w", ErrInternal, err),
	}
}

// HTTPStatus returns the HTTP status code for the given error.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, ErrValidation):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
