package middleware

import (
	"errors"
	"net/http"
	"strings"

	"foodgram/internal/http-api/service"

	"github.com/gin-gonic/gin"
)

const (
	ContextUserID   = "userID"
	ContextUsername = "username"
	ContextRole     = "role"
	ContextClaims   = "claims"
)

// AuthMiddleware is a Gin middleware for JWT authentication of API requests.
// Requests without a valid Bearer token are rejected with 401.
func AuthMiddleware(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}
		if !authenticate(c, authService, authHeader) {
			return
		}
		c.Next()
	}
}

// OptionalAuth lets anonymous requests through. A header that is present but
// invalid is still rejected.
func OptionalAuth(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}
		if !authenticate(c, authService, authHeader) {
			return
		}
		c.Next()
	}
}

func authenticate(c *gin.Context, authService service.AuthService, authHeader string) bool {
	// format: "Bearer <token>"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
		return false
	}

	claims, err := authService.ValidateToken(parts[1])
	if err != nil {
		msg := "invalid token"
		if errors.Is(err, service.ErrExpiredToken) {
			msg = "token has expired"
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
		return false
	}

	c.Set(ContextClaims, claims)
	c.Set(ContextUserID, claims.UserID)
	c.Set(ContextUsername, claims.Username)
	c.Set(ContextRole, claims.Role)
	return true
}

// UserID returns the authenticated user's id, or "" for anonymous requests.
func UserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}
