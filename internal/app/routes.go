package app

import (
	"time"

	"github.com/chattr/authcore/internal/middleware"
	"github.com/chattr/authcore/internal/modules/auth"
	"github.com/chattr/authcore/internal/modules/crontask"
	"github.com/chattr/authcore/internal/modules/health"
	"github.com/chattr/authcore/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

func (a *App) registerRoutes() {
	r := a.router
	authMW := middleware.Auth(a.sessions)

	r.NoRoute(func(c *gin.Context) {
		response.NotFoundMsg(c, "not found")
	})

	r.GET("/", middleware.OptionalAuth(a.sessions), serviceInfo)
	r.GET("/metrics", gin.WrapH(a.metrics.Handler()))

	root := r.Group("")
	health.RegisterRoutes(root, map[string]health.Pinger{
		"database": a.backends.Store,
		"cache":    a.backends.Cache,
	})

	authSvc := auth.NewService(a.backends.Users, a.sessions)
	auth.NewHandler(authSvc, !a.cfg.IsDev()).RegisterRoutes(root, authMW)
	crontask.NewHandler(a.sched).RegisterRoutes(root, authMW)
}

// serviceInfo reports the service identity and, for a signed-in caller, who they are.
func serviceInfo(c *gin.Context) {
	info := gin.H{
		"name":          "authcore",
		"version":       "1.0.0",
		"uptime":        time.Since(processStart).Truncate(time.Second).String(),
		"authenticated": middleware.IsAuthenticated(c),
	}
	if middleware.IsAuthenticated(c) {
		info["user"] = gin.H{
			"id":       middleware.CurrentUserID(c),
			"username": middleware.CurrentUsername(c),
		}
	}
	response.OK(c, info)
}
