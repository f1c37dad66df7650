package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"taskmaster/internal/apperr"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("task 1: %w", apperr.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("task 1: %w", apperr.ErrUnauthorized), http.StatusForbidden},
		{apperr.ErrInvalidCredentials, http.StatusUnauthorized},
		{apperr.ErrInvalidToken, http.StatusUnauthorized},
		{&apperr.ValidationError{Fields: map[string]string{"title": "too short"}}, http.StatusBadRequest},
		{apperr.ErrConflict, http.StatusConflict},
		{apperr.ErrRateLimited, http.StatusTooManyRequests},
		{apperr.ErrUpstreamFetchFailed, http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, apperr.HTTPStatus(tc.err), tc.err.Error())
	}
}

func TestPublicMessage_HidesInternalErrors(t *testing.T) {
	assert.Equal(t, "Internal server error", apperr.PublicMessage(errors.New("pq: connection refused")))
	assert.Equal(t, "task: not found", apperr.PublicMessage(fmt.Errorf("task: %w", apperr.ErrNotFound)))
}

func TestValidationError_Unwraps(t *testing.T) {
	err := &apperr.ValidationError{Fields: map[string]string{"title": "must be at least 3 characters"}}

	assert.ErrorIs(t, err, apperr.ErrValidationFailed)
	assert.Equal(t, "validation failed: title: must be at least 3 characters", err.Error())
}
