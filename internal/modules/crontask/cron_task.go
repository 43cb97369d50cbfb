package crontask

import (
	"github.com/chattr/authcore/internal/pkg/cron"
	"github.com/chattr/authcore/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

// Handler wraps the scheduler for HTTP access.
type Handler struct {
	sched *cron.Scheduler
}

func NewHandler(sched *cron.Scheduler) *Handler {
	return &Handler{sched: sched}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/tasks", authMW)
	g.GET("", h.list)
	g.GET("/:name", h.get)
	g.POST("/:name/run", h.run)
}

// GET /tasks: list all jobs
func (h *Handler) list(c *gin.Context) {
	response.OK(c, h.sched.List())
}

// GET /tasks/:name: get single job status
func (h *Handler) get(c *gin.Context) {
	result, err := h.sched.GetTask(c.Param("name"))
	if err != nil {
		response.NotFoundMsg(c, "task not found")
		return
	}
	response.OK(c, result)
}

// POST /tasks/:name/run: manually trigger a job
func (h *Handler) run(c *gin.Context) {
	if err := h.sched.Run(c.Request.Context(), c.Param("name")); err != nil {
		response.NotFoundMsg(c, "task not found")
		return
	}
	response.OK(c, gin.H{"message": "job triggered"})
}
