package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"taskmaster/internal/auth"
	"taskmaster/internal/model"
	"taskmaster/internal/policy"
)

// Context keys set by JWTAuthMiddleware.
const (
	UserIDKey = "userID"
	RoleKey   = "role"
)

// TokenVerifier checks a bearer token and returns its identity.
type TokenVerifier interface {
	Verify(token string) (auth.Identity, error)
}

// JWTAuthMiddleware rejects requests without a valid bearer token and
// stores the caller's identity in the gin context.
func JWTAuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer {token}"})
			return
		}

		identity, err := verifier.Verify(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(UserIDKey, identity.UserID)
		c.Set(RoleKey, identity.Role)
		c.Next()
	}
}

// ActorFrom returns the authenticated actor stored by JWTAuthMiddleware.
func ActorFrom(c *gin.Context) (policy.Actor, bool) {
	rawID, ok := c.Get(UserIDKey)
	if !ok {
		return policy.Actor{}, false
	}
	id, ok := rawID.(uuid.UUID)
	if !ok {
		return policy.Actor{}, false
	}
	rawRole, ok := c.Get(RoleKey)
	if !ok {
		return policy.Actor{}, false
	}
	role, ok := rawRole.(model.Role)
	if !ok {
		return policy.Actor{}, false
	}
	return policy.Actor{ID: id, Role: role}, true
}
