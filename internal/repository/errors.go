package repository

import (
	"fmt"

	"taskmaster/internal/apperr"
)

// Common repository errors. Each wraps an apperr kind so callers can match
// either the specific or the generic error.
var (
	// ErrUserNotFound is returned when a user is not found
	ErrUserNotFound = fmt.Errorf("user %w", apperr.ErrNotFound)

	// ErrTaskNotFound is returned when a task is not found
	ErrTaskNotFound = fmt.Errorf("task %w", apperr.ErrNotFound)

	// ErrIssueLinkNotFound is returned when a task has no linked issue
	ErrIssueLinkNotFound = fmt.Errorf("issue link %w", apperr.ErrNotFound)

	// ErrUsernameTaken is returned when a username is already in use
	ErrUsernameTaken = fmt.Errorf("username already taken: %w", apperr.ErrConflict)
)
