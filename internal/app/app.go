package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/chattr/authcore/internal/config"
	"github.com/chattr/authcore/internal/middleware"
	pkgcron "github.com/chattr/authcore/internal/pkg/cron"
	"github.com/chattr/authcore/internal/pkg/metrics"
	"github.com/chattr/authcore/internal/pkg/session"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// App holds all application dependencies.
type App struct {
	cfg      *config.AppConfig
	router   *gin.Engine
	backends *Backends
	sessions *session.Manager
	metrics  *metrics.Collector
	logger   *zap.Logger
	cancel   context.CancelFunc
	sched    *pkgcron.Scheduler
}

// New initializes the application: config → stores → credential core → routes → cron.
func New(ctx context.Context, logger *zap.Logger, cfg *config.AppConfig) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	backends, err := OpenBackends(ctx, cfg)
	if err != nil {
		return nil, err
	}

	collector := metrics.New()
	sessions := NewManager(cfg, backends, logger, collector)
	if sessions.UsesDefaultSecret() {
		logger.Warn("jwt_secret is empty, using built-in default secret")
	}

	runCtx, cancel := context.WithCancel(context.Background())
	sched := pkgcron.New(pkgcron.WithLocation(loc), pkgcron.WithLogger(logger.Named("CronService")))
	if cfg.Sweep.Enable {
		if err := registerCronJobs(sched, sessions, cfg, logger); err != nil {
			cancel()
			_ = backends.Close()
			return nil, fmt.Errorf("cron: %w", err)
		}
		sched.Start(runCtx)
	}

	app := &App{
		cfg:      cfg,
		router:   newRouter(cfg, logger),
		backends: backends,
		sessions: sessions,
		metrics:  collector,
		logger:   logger,
		cancel:   cancel,
		sched:    sched,
	}
	app.registerRoutes()
	return app, nil
}

func newRouter(cfg *config.AppConfig, logger *zap.Logger) *gin.Engine {
	if cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))

	router.Use(newCORS(cfg))
	return router
}

// Addr returns the listen address.
func (a *App) Addr() string { return fmt.Sprintf(":%d", a.cfg.Port) }

// Router returns the HTTP handler.
func (a *App) Router() http.Handler { return a.router }

// Shutdown stops background jobs and closes the stores.
func (a *App) Shutdown() error {
	a.cancel()
	return a.backends.Close()
}

var processStart = time.Now()
