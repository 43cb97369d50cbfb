package session

import (
	"context"

	"go.uber.org/zap"
)

// Sweep deletes durable records that expired before now, revoked or not.
// Cache entries expire on their own TTL and are left alone.
func (m *Manager) Sweep(ctx context.Context) (int64, error) {
	n, err := m.store.DeleteExpired(ctx, m.now())
	if err != nil {
		return 0, storageErr("delete expired refresh tokens", err)
	}
	m.metrics.Swept(n)
	m.logger.Info("expired refresh tokens removed", zap.Int64("count", n))
	return n, nil
}

// Inspect returns the durable record for token in any state, or nil.
func (m *Manager) Inspect(ctx context.Context, token string) (*Record, error) {
	rec, err := m.store.Find(ctx, token)
	if err != nil {
		return nil, storageErr("find refresh token", err)
	}
	return rec, nil
}

// Ping checks both stores.
func (m *Manager) Ping(ctx context.Context) error {
	if err := m.store.Ping(ctx); err != nil {
		return storageErr("ping store", err)
	}
	if err := m.cache.Ping(ctx); err != nil {
		return storageErr("ping cache", err)
	}
	return nil
}
