package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/chattr/authcore/internal/config"
	"github.com/chattr/authcore/internal/database"
	"github.com/chattr/authcore/internal/modules/auth"
	pkgredis "github.com/chattr/authcore/internal/pkg/redis"
	"github.com/chattr/authcore/internal/pkg/session"
	"github.com/chattr/authcore/internal/pkg/session/mongostore"
	"github.com/chattr/authcore/internal/pkg/session/sqlstore"
	"go.uber.org/zap"
)

// Users is implemented by both user stores.
type Users interface {
	auth.UserStore
	session.OwnerLookup
}

// Backends are the connected stores behind the credential core.
type Backends struct {
	Store session.Store
	Users Users
	Cache session.Cache

	closers []func() error
}

// OpenBackends connects the configured durable store and the Redis lookup cache.
func OpenBackends(ctx context.Context, cfg *config.AppConfig) (*Backends, error) {
	b := &Backends{}

	switch cfg.Store {
	case config.StoreMongo:
		mdb, err := database.ConnectMongo(ctx, cfg)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() error { return mdb.Client().Disconnect(context.Background()) })

		store := mongostore.New(mdb)
		users := mongostore.NewUsers(mdb)
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = b.Close()
			return nil, fmt.Errorf("mongo indexes: %w", err)
		}
		if err := users.EnsureIndexes(ctx); err != nil {
			_ = b.Close()
			return nil, fmt.Errorf("mongo indexes: %w", err)
		}
		b.Store, b.Users = store, users
	default:
		db, err := database.Connect(cfg, true)
		if err != nil {
			return nil, fmt.Errorf("database: %w", err)
		}
		b.closers = append(b.closers, func() error { return database.Close(db) })
		b.Store, b.Users = sqlstore.New(db), sqlstore.NewUsers(db)
	}

	rc, err := pkgredis.Connect(cfg.RedisURL)
	if err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("redis: %w", err)
	}
	b.closers = append(b.closers, rc.Close)
	b.Cache = pkgredis.NewTokenCache(rc)
	return b, nil
}

// Close releases every connection, newest first.
func (b *Backends) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}

// NewManager builds the credential core over b.
func NewManager(cfg *config.AppConfig, b *Backends, logger *zap.Logger, metrics session.Metrics) *session.Manager {
	return session.New(b.Store, b.Cache, session.Options{
		Secret:     cfg.JWTSecret,
		AccessTTL:  cfg.Token.AccessTTL,
		RefreshTTL: cfg.Token.RefreshTTL,
		Logger:     logger.Named("SessionService"),
		Metrics:    metrics,
		Owners:     b.Users,
	})
}
