package tryon

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fashnary/api/internal/service/gemini"
)

// ErrMisconfigured is returned before any provider call when no API key is set.
var ErrMisconfigured = errors.New("gemini api key not configured")

// MisconfiguredMessage is the client-facing text for ErrMisconfigured.
const MisconfiguredMessage = "Gemini API key not configured on server"

// ValidationError reports unusable request input, such as an undecodable image.
type ValidationError struct {
	Field  string
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Detail)
}

// UpstreamError reports a failed or unusable provider response.
type UpstreamError struct {
	Stage  string
	Detail string
	Err    error
}

func (e *UpstreamError) Error() string {
	return e.Detail
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func upstreamError(stage string, err error) *UpstreamError {
	return &UpstreamError{Stage: stage, Detail: describeProviderError(err), Err: err}
}

// describeProviderError turns provider failures into messages an operator can act on.
// The original error text is always kept.
func describeProviderError(err error) string {
	msg := err.Error()
	var apiErr *gemini.ErrorResponse
	if errors.As(err, &apiErr) {
		msg = apiErr.Err.Message
	}

	switch {
	case errors.Is(err, context.Canceled):
		return "Request cancelled before Gemini responded: " + msg
	case errors.Is(err, context.DeadlineExceeded):
		return "Gemini request timed out: " + msg
	case errors.Is(err, gemini.ErrBlocked), strings.Contains(msg, "SAFETY"):
		return "Gemini blocked the request: " + msg
	case strings.Contains(msg, "API key not valid"), strings.Contains(msg, "API_KEY_INVALID"):
		return "Invalid Gemini API key. Please check server configuration. " + msg
	case strings.Contains(msg, "PERMISSION_DENIED"), isStatus(err, "PERMISSION_DENIED"):
		return "Gemini API permission denied. " + msg
	case strings.Contains(msg, "RESOURCE_EXHAUSTED"), strings.Contains(strings.ToLower(msg), "quota"), isStatus(err, "RESOURCE_EXHAUSTED"):
		return "Gemini API quota exceeded. Please try again later. " + msg
	default:
		return "Gemini processing failed: " + msg
	}
}

func isStatus(err error, status string) bool {
	var apiErr *gemini.ErrorResponse
	return errors.As(err, &apiErr) && apiErr.Err.Status == status
}
