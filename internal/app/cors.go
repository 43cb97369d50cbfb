package app

import (
	"net/url"
	"strings"
	"time"

	"github.com/chattr/authcore/internal/config"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// newCORS allows credentialed requests so the refresh cookie travels cross-site.
// Development and an empty allow list accept every origin.
func newCORS(cfg *config.AppConfig) gin.HandlerFunc {
	allow := func(string) bool { return true }
	if len(cfg.AllowedOrigins) > 0 && !cfg.IsDev() {
		allow = originMatcher(cfg.AllowedOrigins)
	}
	return cors.New(cors.Config{
		AllowOriginFunc:  allow,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

// originMatcher accepts an origin whose host matches one of the patterns.
// Supported forms: "app.example.com", "*.example.com" and "localhost:*".
func originMatcher(patterns []string) func(string) bool {
	normalized := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			normalized = append(normalized, p)
		}
	}
	return func(origin string) bool {
		host := originHost(origin)
		for _, p := range normalized {
			if hostMatches(p, host) {
				return true
			}
		}
		return false
	}
}

func originHost(origin string) string {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return strings.ToLower(origin)
	}
	return strings.ToLower(u.Host)
}

func hostMatches(pattern, host string) bool {
	switch {
	case pattern == host:
		return true
	case strings.HasPrefix(pattern, "*."):
		return strings.HasSuffix(host, pattern[1:])
	case strings.HasSuffix(pattern, ":*"):
		return strings.HasPrefix(host, pattern[:len(pattern)-1])
	}
	return false
}
