package health

import (
	"context"
	"net/http"
	"time"

	"github.com/chattr/authcore/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

const pingTimeout = 2 * time.Second

// Pinger is a backend that can report liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RegisterRoutes mounts GET /health. Each named backend is pinged in turn.
func RegisterRoutes(rg *gin.RouterGroup, backends map[string]Pinger) {
	rg.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
		defer cancel()

		body := gin.H{}
		healthy := true
		for name, b := range backends {
			ok := b.Ping(ctx) == nil
			body[name] = ok
			healthy = healthy && ok
		}

		if !healthy {
			body["status"] = "degraded"
			response.ServiceUnavailable(c, body)
			return
		}
		body["status"] = "ok"
		c.JSON(http.StatusOK, body)
	})
}
