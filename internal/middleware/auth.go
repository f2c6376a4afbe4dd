package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"familytree_go/internal/service"
)

const (
	// UIDContextKey is the gin context key holding the authenticated user's
	// partition key.
	UIDContextKey = "uid"

	// UsernameContextKey holds the authenticated username.
	UsernameContextKey = "username"
)

// AuthMiddleware verifies the session token and stores the holder's UID on
// the request context. The token comes from the Authorization header, or
// from the `token` query parameter for websocket upgrades where browsers
// cannot set headers.
func AuthMiddleware(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			tokenString = c.Query("token")
		}
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			c.Abort()
			return
		}

		claims, err := auth.ValidateToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		c.Set(UIDContextKey, claims.UID)
		c.Set(UsernameContextKey, claims.Username)
		c.Next()
	}
}

// UID returns the authenticated user's partition key from the context.
func UID(c *gin.Context) string {
	return c.GetString(UIDContextKey)
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}
