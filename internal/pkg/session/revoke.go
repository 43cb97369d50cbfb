package session

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// RevokeOne evicts token from the cache, revokes its durable record and evicts
// again once the flip is durable.
// It reports whether a record actually moved from active to revoked. The durable
// update is attempted even when eviction fails; the eviction error is still returned
// because a stale cache entry would keep the token usable.
func (m *Manager) RevokeOne(ctx context.Context, token string) (bool, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return false, nil
	}

	delErr := m.cache.Del(ctx, token)
	if delErr != nil {
		m.metrics.CacheError("del")
	}

	changed, err := m.store.Revoke(ctx, token, m.now())
	if err != nil {
		return false, storageErr("revoke refresh token", err)
	}
	if changed {
		m.metrics.Revoked(ScopeOne, 1)
		// A verifier that read the record before the flip may have re-cached it.
		delErr = m.evictAgain(ctx, delErr, token)
	}
	if delErr != nil {
		return changed, storageErr("evict refresh token", delErr)
	}
	return changed, nil
}

// RevokeAll revokes every active refresh token of the user. Tokens to evict come
// from the durable by-user index since the cache cannot be searched by user.
func (m *Manager) RevokeAll(ctx context.Context, userID string) (bool, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return false, errEmptyUser
	}

	tokens, err := m.store.ListActiveTokens(ctx, userID)
	if err != nil {
		return false, storageErr("list refresh tokens", err)
	}

	var delErr error
	if len(tokens) > 0 {
		if delErr = m.cache.Del(ctx, tokens...); delErr != nil {
			m.metrics.CacheError("del")
		}
	}

	n, err := m.store.RevokeAll(ctx, userID, m.now())
	if err != nil {
		return false, storageErr("revoke refresh tokens", err)
	}
	if n > 0 {
		m.metrics.Revoked(ScopeAll, n)
		if len(tokens) > 0 {
			delErr = m.evictAgain(ctx, delErr, tokens...)
		}
	}
	m.logger.Info("revoked all refresh tokens",
		zap.String("user_id", userID), zap.Int64("count", n))

	if delErr != nil {
		return n > 0, storageErr("evict refresh tokens", delErr)
	}
	return n > 0, nil
}

// evictAgain repeats an eviction after the durable flip. Success clears an
// earlier eviction error since the cache no longer holds the tokens.
func (m *Manager) evictAgain(ctx context.Context, prev error, tokens ...string) error {
	if err := m.cache.Del(ctx, tokens...); err != nil {
		m.metrics.CacheError("del")
		if prev != nil {
			return prev
		}
		return err
	}
	return nil
}
