package feedhttp

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError represents a non-2xx response from a feed.
type APIError struct {
	StatusCode int
	Message    string
	URL        string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("feed API error %d (URL: %s)", e.StatusCode, e.URL)
	}
	return fmt.Sprintf("feed API error %d: %s (URL: %s)", e.StatusCode, e.Message, e.URL)
}

func statusIs(err error, code int) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == code
	}
	return false
}

// IsNotFound checks if the error indicates a resource was not found.
func IsNotFound(err error) bool {
	return statusIs(err, http.StatusNotFound)
}

// IsUnauthorized checks if the error indicates an authentication failure.
func IsUnauthorized(err error) bool {
	return statusIs(err, http.StatusUnauthorized) || statusIs(err, http.StatusForbidden)
}

// IsRateLimited checks if the feed rejected the request for exceeding its quota.
func IsRateLimited(err error) bool {
	return statusIs(err, http.StatusTooManyRequests)
}
