package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"taskmaster/internal/apperr"
)

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// HashPassword returns the bcrypt digest of password. Passwords over
// MaxPasswordBytes fail validation.
func HashPassword(password string) (string, error) {
	if len(password) > MaxPasswordBytes {
		return "", tooLong()
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", tooLong()
	}
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches digest. A malformed
// digest never matches.
func CheckPassword(digest, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}

func tooLong() error {
	return &apperr.ValidationError{Fields: map[string]string{
		"password": fmt.Sprintf("must be at most %d bytes", MaxPasswordBytes),
	}}
}
