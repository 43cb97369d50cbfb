package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// VerifyAccess checks an access token's signature, expiry and claim shape.
// It never touches a store.
func (m *Manager) VerifyAccess(token string) (*Identity, error) {
	claims, err := m.signer.Parse(strings.TrimSpace(token))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCredential, err)
	}
	id := &Identity{UserID: claims.UserID, Username: claims.Username}
	if claims.ExpiresAt != nil {
		id.ExpiresAt = claims.ExpiresAt.Time
	}
	return id, nil
}

// VerifyRefresh resolves a refresh token to its user id.
//
// The cache is consulted first; a hit is trusted because revocation evicts the
// entry both before and after flipping the durable record. Cache errors count as misses. On a miss
// the durable store decides, and a live record is written back to the cache with
// its remaining lifetime. ok is false for unknown, revoked or expired tokens.
func (m *Manager) VerifyRefresh(ctx context.Context, token string) (userID string, ok bool, err error) {
	token = strings.TrimSpace(token)
	if token == "" {
		m.metrics.RefreshLookup(LookupMiss)
		return "", false, nil
	}

	cached, hit, err := m.cache.Get(ctx, token)
	switch {
	case err != nil:
		m.metrics.CacheError("get")
		m.logger.Warn("refresh token cache read failed, falling back to store", zap.Error(err))
	case hit:
		m.metrics.RefreshLookup(LookupCacheHit)
		return cached, true, nil
	}

	now := m.now()
	rec, err := m.store.FindActive(ctx, token, now)
	if err != nil {
		return "", false, storageErr("find refresh token", err)
	}
	if rec == nil {
		m.metrics.RefreshLookup(LookupMiss)
		return "", false, nil
	}

	if remaining := rec.ExpiresAt.Sub(now).Truncate(time.Second); remaining > 0 {
		if err := m.cache.Set(ctx, token, rec.UserID, remaining); err != nil {
			m.metrics.CacheError("set")
			m.logger.Warn("refresh token cache repair failed",
				zap.String("user_id", rec.UserID), zap.Error(err))
		} else if live, err := m.confirmRepair(ctx, token); err != nil || !live {
			m.metrics.RefreshLookup(LookupMiss)
			return "", false, err
		}
	}
	m.metrics.RefreshLookup(LookupStoreHit)
	return rec.UserID, true, nil
}

// confirmRepair re-reads the record after a cache write. A revocation that
// completed between the first read and the write has already evicted, so the
// entry just written is removed here. Revocations that flip later evict it
// themselves after the flip.
func (m *Manager) confirmRepair(ctx context.Context, token string) (bool, error) {
	rec, err := m.store.FindActive(ctx, token, m.now())
	if err == nil && rec != nil {
		return true, nil
	}
	if delErr := m.cache.Del(ctx, token); delErr != nil {
		m.metrics.CacheError("del")
		return false, storageErr("evict refresh token", delErr)
	}
	if err != nil {
		return false, storageErr("find refresh token", err)
	}
	return false, nil
}
