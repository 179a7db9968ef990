package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/C-Ford17/eventos-app-sub001/internal/auth"
)

// Context keys
const (
	ClaimsContextKey = "actor_claims"
)

// JWTAuth validates the bearer token and stores the verified claims in the
// request context. Every protected handler derives the actor from these
// claims, never from request body fields.
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid Authorization header format. Expected: 'Bearer {token}'"})
			c.Abort()
			return
		}

		claims, err := auth.ParseToken(secret, parts[1])
		if err != nil {
			log.Warn().Err(err).Msg("Rejected invalid token")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		c.Set(ClaimsContextKey, claims)
		c.Next()
	}
}

// RequireRol restricts a route to the given roles. It must run after JWTAuth.
func RequireRol(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := GetClaims(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}

		for _, rol := range roles {
			if claims.Rol == rol {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
		c.Abort()
	}
}

// GetClaims retrieves the verified actor claims from the request context
func GetClaims(c *gin.Context) (*auth.Claims, error) {
	val, exists := c.Get(ClaimsContextKey)
	if !exists {
		return nil, errors.New("claims not found in context")
	}

	claims, ok := val.(*auth.Claims)
	if !ok {
		return nil, errors.New("claims in context have incorrect type")
	}
	return claims, nil
}
