package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrorCode classifies non-2xx responses.
type ErrorCode int

const (
	// ErrCodeUnknown covers statuses outside the classes below.
	ErrCodeUnknown ErrorCode = iota
	// ErrCodeAuth indicates an authentication/authorization failure (401/403).
	ErrCodeAuth
	// ErrCodeNotFound indicates the resource was not found (404).
	ErrCodeNotFound
	// ErrCodeRateLimit indicates rate limiting (429).
	ErrCodeRateLimit
	// ErrCodeValidation indicates the backend rejected the input (other 4xx).
	ErrCodeValidation
	// ErrCodeServer indicates a server-side error (5xx).
	ErrCodeServer
)

// String returns the error code name.
func (c ErrorCode) String() string {
	switch c {
	case ErrCodeAuth:
		return "auth"
	case ErrCodeNotFound:
		return "not_found"
	case ErrCodeRateLimit:
		return "rate_limit"
	case ErrCodeValidation:
		return "validation"
	case ErrCodeServer:
		return "server"
	default:
		return "unknown"
	}
}

// StatusError is returned for every non-2xx response.
type StatusError struct {
	// StatusCode is the HTTP status code.
	StatusCode int
	// Body is the raw response body.
	Body []byte
	// Headers are the response headers.
	Headers map[string]string
}

// Error returns "API error <status>: <body text>".
func (e *StatusError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.StatusCode, string(e.Body))
}

// Code classifies the status.
func (e *StatusError) Code() ErrorCode {
	return ClassifyStatusCode(e.StatusCode)
}

// Retryable reports whether a caller-side retry could succeed (5xx).
func (e *StatusError) Retryable() bool {
	return e.StatusCode >= http.StatusInternalServerError
}

// ClassifyStatusCode maps an HTTP status to an ErrorCode.
func ClassifyStatusCode(statusCode int) ErrorCode {
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return ErrCodeAuth
	case statusCode == http.StatusNotFound:
		return ErrCodeNotFound
	case statusCode == http.StatusTooManyRequests:
		return ErrCodeRateLimit
	case statusCode >= 400 && statusCode < 500:
		return ErrCodeValidation
	case statusCode >= 500:
		return ErrCodeServer
	default:
		return ErrCodeUnknown
	}
}

// AsStatusError unwraps err to a *StatusError.
func AsStatusError(err error) (*StatusError, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// StatusCode returns the HTTP status carried by err, or 0 when err is not a
// status failure.
func StatusCode(err error) int {
	if se, ok := AsStatusError(err); ok {
		return se.StatusCode
	}
	return 0
}

// IsStatus reports whether err is a status failure with the given code.
func IsStatus(err error, code int) bool {
	return StatusCode(err) == code
}

// IsNotFound reports whether err is a 404 response.
func IsNotFound(err error) bool {
	return IsStatus(err, http.StatusNotFound)
}

// IsTimeout reports whether err is a deadline or network timeout.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// IsTransport reports whether err came from the network layer rather than
// from a response.
func IsTransport(err error) bool {
	if err == nil {
		return false
	}
	if _, ok := AsStatusError(err); ok {
		return false
	}
	var ne net.Error
	return errors.As(err, &ne)
}

// IsRetryable reports whether a caller-side retry is worthwhile: 5xx
// responses and transport failures other than cancellation.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if se, ok := AsStatusError(err); ok {
		return se.Retryable()
	}
	return IsTransport(err)
}
