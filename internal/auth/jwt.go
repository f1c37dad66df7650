package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"taskmaster/internal/apperr"
	"taskmaster/internal/model"
)

// TokenLifetime is how long an issued token stays valid. There is no
// refresh; clients log in again.
const TokenLifetime = 120 * time.Minute

// Claims is the payload of an identity token.
type Claims struct {
	UserID string     `json:"uid"`
	Role   model.Role `json:"role"`
	jwt.RegisteredClaims
}

// Identity is what a verified token says about its bearer.
type Identity struct {
	UserID   uuid.UUID
	Username string
	Role     model.Role
}

// TokenIssuer mints and verifies HS256 tokens with a shared key.
type TokenIssuer struct {
	secret   []byte
	issuer   string
	audience string
	now      func() time.Time
}

type TokenIssuerOption func(*TokenIssuer)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) TokenIssuerOption {
	return func(t *TokenIssuer) {
		t.now = now
	}
}

func NewTokenIssuer(secret, issuer, audience string, opts ...TokenIssuerOption) *TokenIssuer {
	t := &TokenIssuer{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Issue creates a signed token for user and returns it with its expiry.
func (t *TokenIssuer) Issue(user *model.User) (string, time.Time, error) {
	issuedAt := t.now().Truncate(time.Second)
	expiresAt := issuedAt.Add(TokenLifetime)

	claims := Claims{
		UserID: user.ID.String(),
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			ID:        uuid.NewString(),
			Issuer:    t.issuer,
			Audience:  jwt.ClaimStrings{t.audience},
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks signature, issuer, audience and expiry and returns the
// identity carried by the token. Every failure is ErrInvalidToken.
func (t *TokenIssuer) Verify(tokenStr string) (Identity, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithAudience(t.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !token.Valid {
		return Identity{}, fmt.Errorf("%w: %w", apperr.ErrInvalidToken, tokenError(err))
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: malformed user id", apperr.ErrInvalidToken)
	}
	if !claims.Role.Valid() {
		return Identity{}, fmt.Errorf("%w: unknown role %q", apperr.ErrInvalidToken, claims.Role)
	}

	return Identity{
		UserID:   userID,
		Username: claims.Subject,
		Role:     claims.Role,
	}, nil
}

func tokenError(err error) error {
	if err == nil {
		return errors.New("token not valid")
	}
	return err
}
