package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"feedpilot/internal/auth"
	"feedpilot/internal/session"
)

const (
	userIDContextKey   = "userID"
	usernameContextKey = "username"
	tokenIDContextKey  = "tokenID"
)

func UserIDFromContext(c *gin.Context) (string, bool) {
	userID, ok := c.Get(userIDContextKey)
	if !ok {
		return "", false
	}
	value, ok := userID.(string)
	return value, ok && value != ""
}

func UsernameFromContext(c *gin.Context) string {
	username, _ := c.Get(usernameContextKey)
	value, _ := username.(string)
	return value
}

func TokenIDFromContext(c *gin.Context) string {
	jti, _ := c.Get(tokenIDContextKey)
	value, _ := jti.(string)
	return value
}

// RequireAuth verifies the bearer token and checks that its session has
// not been revoked by logout.
func RequireAuth(cfg auth.TokenConfig, sessions session.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}

		claims, err := auth.VerifyToken(parts[1], cfg)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}

		alive, err := sessions.Alive(claims.ID)
		if err != nil || !alive {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}

		c.Set(userIDContextKey, claims.UserID)
		c.Set(usernameContextKey, claims.Username)
		c.Set(tokenIDContextKey, claims.ID)
		c.Next()
	}
}
