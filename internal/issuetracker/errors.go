package issuetracker

import (
	"fmt"
	"net/http"
	"time"

	"taskmaster/internal/apperr"
)

// APIError is a non-2xx answer from the tracker that is not a rate limit.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("issuetracker: HTTP %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return apperr.ErrUpstreamFetchFailed
}

// RateLimitError is returned for a 403 that carries X-RateLimit-Remaining.
// Callers may retry after Reset; the client never does.
type RateLimitError struct {
	Remaining string
	Reset     time.Time
}

func (e *RateLimitError) Error() string {
	if e.Reset.IsZero() {
		return "issuetracker: rate limit exceeded"
	}
	return fmt.Sprintf("issuetracker: rate limit exceeded, resets at %s", e.Reset.UTC().Format(time.RFC3339))
}

func (e *RateLimitError) Unwrap() error {
	return apperr.ErrRateLimited
}

// isRateLimited reports whether the response is the tracker's rate limit
// signal: 403 together with an X-RateLimit-Remaining header, whatever its
// value.
func isRateLimited(resp *http.Response) bool {
	return resp.StatusCode == http.StatusForbidden &&
		len(resp.Header.Values("X-RateLimit-Remaining")) > 0
}
