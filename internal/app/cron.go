package app

import (
	"context"

	"github.com/chattr/authcore/internal/config"
	pkgcron "github.com/chattr/authcore/internal/pkg/cron"
	"github.com/chattr/authcore/internal/pkg/session"
	"go.uber.org/zap"
)

const jobCleanupRefreshTokens = "cleanup_refresh_tokens"

// sweeper is the slice of session.Manager the cleanup job needs.
type sweeper interface {
	Sweep(ctx context.Context) (int64, error)
}

var _ sweeper = (*session.Manager)(nil)

// registerCronJobs registers all scheduled background jobs.
func registerCronJobs(sched *pkgcron.Scheduler, sw sweeper, cfg *config.AppConfig, logger *zap.Logger) error {
	cronLogger := logger.Named("CronService")

	return sched.Register(pkgcron.Job{
		Name:        jobCleanupRefreshTokens,
		Description: "Delete expired refresh token records",
		At:          cfg.Sweep.At,
		Interval:    cfg.Sweep.Interval,
		Fn: func(ctx context.Context) error {
			n, err := sw.Sweep(ctx)
			if err != nil {
				cronLogger.Warn("refresh token cleanup failed", zap.Error(err))
				return err
			}
			cronLogger.Info("refresh token cleanup done", zap.Int64("deleted", n))
			return nil
		},
	})
}
