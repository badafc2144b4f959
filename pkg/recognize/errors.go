package recognize

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies recognition failures for the result dispatcher.
type ErrorKind string

const (
	// KindNone means the call succeeded.
	KindNone ErrorKind = ""

	// KindTimeout means no result arrived within the caller's deadline.
	KindTimeout ErrorKind = "timeout"

	// KindUnavailable means the recognizer could not be reached.
	KindUnavailable ErrorKind = "unavailable"

	// KindModelError means the recognizer answered but could not classify.
	KindModelError ErrorKind = "model_error"
)

// Sentinel errors for common conditions.
var (
	// ErrNoAPIKey is returned when an API key is required but missing.
	ErrNoAPIKey = errors.New("recognize: API key required")

	// ErrUnavailable is returned when the recognizer cannot be reached.
	ErrUnavailable = errors.New("recognize: recognizer unavailable")

	// ErrEmptySnapshot is returned for a zero-length frame snapshot.
	ErrEmptySnapshot = errors.New("recognize: empty frame snapshot")

	// ErrNoClassification is returned when the model produced no usable class.
	ErrNoClassification = errors.New("recognize: no classification produced")
)

// APIError represents an error response from a remote recognition API.
type APIError struct {
	StatusCode int
	Message    string
	Provider   string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("recognize [%s]: API error %d: %s", e.Provider, e.StatusCode, e.Message)
}

// IsServerError returns true for HTTP 5xx responses.
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}

// IsRateLimited returns true for HTTP 429 responses.
func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == 429
}

// Classify maps an error to the dispatcher-facing error taxonomy.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	if errors.Is(err, ErrUnavailable) {
		return KindUnavailable
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.IsServerError() || apiErr.IsRateLimited() {
			return KindUnavailable
		}
		return KindModelError
	}

	return KindModelError
}
