package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	pkgAuth "github.com/shipfire/payflow/internal/pkg/auth"
)

const (
	// UserIDContextKey is a gin context key for authenticated user identifier.
	UserIDContextKey = "userID"
	authCookieName   = "payflow_token"
	bearerPrefix     = "bearer "
)

// TokenParser validates an auth token and yields the user identifier.
type TokenParser interface {
	ParseToken(token string) (int64, error)
}

// AuthRequired ensures user is authenticated before accessing handler.
func AuthRequired(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		userID, err := parser.ParseToken(token)
		switch {
		case err == nil:
			c.Set(UserIDContextKey, userID)
			c.Next()
		case errors.Is(err, pkgAuth.ErrInvalidToken):
			c.AbortWithStatus(http.StatusUnauthorized)
		default:
			c.AbortWithStatus(http.StatusInternalServerError)
		}
	}
}

// extractToken prefers the Authorization header over the cookie so API
// clients can override a stale browser session.
func extractToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(strings.ToLower(header), bearerPrefix) {
		return strings.TrimSpace(header[len(bearerPrefix):])
	}

	if cookie, err := c.Cookie(authCookieName); err == nil {
		return cookie
	}
	return ""
}

// SetAuthCookie writes auth token cookie to response.
func SetAuthCookie(c *gin.Context, token string) {
	c.SetCookie(authCookieName, token, 0, "/", "", false, true)
	c.Header("Authorization", "Bearer "+token)
}
