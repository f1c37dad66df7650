package apperr

import (
	"errors"
	"net/http"
	"strings"
)

// Error kinds shared by the services and the HTTP layer. Wrap them with
// fmt.Errorf("...: %w", ErrX) and match with errors.Is.
var (
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized is returned when an authenticated actor is not allowed
	// to perform the operation.
	ErrUnauthorized = errors.New("forbidden")

	// ErrValidationFailed is returned when input violates field constraints.
	ErrValidationFailed = errors.New("validation failed")

	// ErrConflict is returned when a write would break a uniqueness rule.
	ErrConflict = errors.New("conflict")

	// ErrRateLimited is returned when the issue tracker throttles us.
	ErrRateLimited = errors.New("issue tracker rate limit exceeded")

	// ErrUpstreamFetchFailed is returned when the issue tracker cannot be
	// reached or answers with something unusable.
	ErrUpstreamFetchFailed = errors.New("failed to fetch issue from tracker")

	// ErrInvalidCredentials is returned when a username/password pair does
	// not authenticate.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken is returned for tokens with a bad signature, wrong
	// issuer or audience, or a past expiry.
	ErrInvalidToken = errors.New("invalid or expired token")
)

// ValidationError carries per-field messages and unwraps to
// ErrValidationFailed.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidationFailed.Error()
	}
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	return ErrValidationFailed.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

// HTTPStatus maps an error to the response code the API returns for it.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, ErrValidationFailed):
		return http.StatusBadRequest
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrUpstreamFetchFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message safe to show to API clients. Internal
// errors are collapsed to a generic text.
func PublicMessage(err error) string {
	if HTTPStatus(err) == http.StatusInternalServerError {
		return "Internal server error"
	}
	return err.Error()
}
