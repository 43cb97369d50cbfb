package middleware

import (
	"strings"

	"github.com/chattr/authcore/internal/pkg/response"
	"github.com/chattr/authcore/internal/pkg/session"
	"github.com/gin-gonic/gin"
)

const (
	ContextKeyUserID   = "user_id"
	ContextKeyUsername = "username"

	// AccessCookie carries the access token for browser clients.
	AccessCookie = "access_token"
)

// AccessVerifier validates access tokens without touching storage.
type AccessVerifier interface {
	VerifyAccess(token string) (*session.Identity, error)
}

// Auth returns a middleware that requires a valid access token.
func Auth(v AccessVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := v.VerifyAccess(extractToken(c))
		if err != nil {
			response.Unauthorized(c)
			return
		}
		c.Set(ContextKeyUserID, id.UserID)
		c.Set(ContextKeyUsername, id.Username)
		c.Next()
	}
}

// OptionalAuth sets the identity if a valid token is present, but does not block the request.
func OptionalAuth(v AccessVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := extractToken(c); token != "" {
			if id, err := v.VerifyAccess(token); err == nil {
				c.Set(ContextKeyUserID, id.UserID)
				c.Set(ContextKeyUsername, id.Username)
			}
		}
		c.Next()
	}
}

// CurrentUserID extracts the authenticated user ID from context.
func CurrentUserID(c *gin.Context) string {
	return c.GetString(ContextKeyUserID)
}

// CurrentUsername extracts the authenticated username from context.
func CurrentUsername(c *gin.Context) string {
	return c.GetString(ContextKeyUsername)
}

// IsAuthenticated returns true if the request has a valid auth token.
func IsAuthenticated(c *gin.Context) bool {
	return CurrentUserID(c) != ""
}

// extractToken reads the Authorization header, falling back to the access cookie.
func extractToken(c *gin.Context) string {
	if auth := c.GetHeader("Authorization"); auth != "" {
		return NormalizeToken(auth)
	}
	if cookie, err := c.Cookie(AccessCookie); err == nil {
		return NormalizeToken(cookie)
	}
	return ""
}

// NormalizeToken trims spaces and strips optional Bearer prefix.
func NormalizeToken(raw string) string {
	token := strings.TrimSpace(raw)
	if token == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		return strings.TrimSpace(token[7:])
	}
	return token
}
