package reddit

import (
	"errors"
	"fmt"
	"net/http"
)

// Typed errors for Reddit API operations.
// These allow callers to use errors.Is() instead of matching on status text.
var (
	// ErrUnauthorized indicates the request failed due to invalid or expired credentials (HTTP 401).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the request was rejected due to insufficient permissions (HTTP 403).
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound indicates the requested resource does not exist (HTTP 404).
	ErrNotFound = errors.New("not found")

	// ErrBadRequest indicates the request was malformed or invalid (HTTP 400).
	ErrBadRequest = errors.New("bad request")

	// ErrRateLimited indicates the API rejected the request because of rate limits (HTTP 429).
	ErrRateLimited = errors.New("rate limited")

	// ErrUnavailable indicates the API returned a server error (HTTP 5xx).
	ErrUnavailable = errors.New("service unavailable")

	// ErrCircuitOpen indicates calls to an endpoint family are suspended after repeated failures.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrMalformedResponse indicates the response body did not have the expected shape.
	ErrMalformedResponse = errors.New("malformed response")
)

// IsAuthError returns true if the error is an authentication/authorization error.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrForbidden)
}

// IsNotFound returns true if the remote resource does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// statusError maps a non-2xx status code onto one of the typed errors above.
func statusError(operation string, status int, body string) error {
	var kind error
	switch {
	case status == http.StatusBadRequest:
		kind = ErrBadRequest
	case status == http.StatusUnauthorized:
		kind = ErrUnauthorized
	case status == http.StatusForbidden:
		kind = ErrForbidden
	case status == http.StatusNotFound:
		kind = ErrNotFound
	case status == http.StatusTooManyRequests:
		kind = ErrRateLimited
	case status >= 500:
		kind = ErrUnavailable
	default:
		return fmt.Errorf("%s: unexpected status code %d: %s", operation, status, body)
	}
	if body == "" {
		return fmt.Errorf("%s: %w", operation, kind)
	}
	return fmt.Errorf("%s: %w: %s", operation, kind, body)
}
