package auth

import (
	"net/http"
	"time"

	"github.com/chattr/authcore/internal/middleware"
	"github.com/chattr/authcore/internal/pkg/session"
	"github.com/gin-gonic/gin"
)

const (
	RefreshCookie = "refresh_token"
	cookiePath    = "/"
)

// cookiePolicy mirrors the deployment: cross-site Secure cookies in production,
// Lax cookies over plain HTTP in development.
type cookiePolicy struct {
	secure bool
}

func (p cookiePolicy) apply(c *gin.Context) {
	if p.secure {
		c.SetSameSite(http.SameSiteNoneMode)
	} else {
		c.SetSameSite(http.SameSiteLaxMode)
	}
}

func (p cookiePolicy) set(c *gin.Context, pair session.Pair, now time.Time) {
	p.apply(c)
	c.SetCookie(middleware.AccessCookie, pair.AccessToken, maxAge(pair.AccessExpiresAt, now), cookiePath, "", p.secure, true)
	c.SetCookie(RefreshCookie, pair.RefreshToken, maxAge(pair.RefreshExpiresAt, now), cookiePath, "", p.secure, true)
}

func (p cookiePolicy) clear(c *gin.Context) {
	p.apply(c)
	c.SetCookie(middleware.AccessCookie, "", -1, cookiePath, "", p.secure, true)
	c.SetCookie(RefreshCookie, "", -1, cookiePath, "", p.secure, true)
}

func maxAge(expires, now time.Time) int {
	secs := int(expires.Sub(now) / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}
