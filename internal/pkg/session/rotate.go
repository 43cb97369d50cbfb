package session

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// Rotate exchanges a refresh token for a new pair. The presented token is single-use:
// the conditional revoke lets exactly one of several concurrent rotations win, the
// others get ErrTokenConsumed.
//
// A replayed, already revoked token is rejected and logged. It does not revoke the
// user's other sessions.
func (m *Manager) Rotate(ctx context.Context, token string) (Pair, error) {
	if m.owners == nil {
		return Pair{}, ErrNoOwnerLookup
	}
	token = strings.TrimSpace(token)

	userID, ok, err := m.VerifyRefresh(ctx, token)
	if err != nil {
		m.metrics.Rotation(RotationError)
		return Pair{}, err
	}
	if !ok {
		m.metrics.Rotation(RotationInvalid)
		m.noteReplay(ctx, token)
		return Pair{}, ErrExpiredOrRevoked
	}

	owner, err := m.owners.FindOwnerByID(ctx, userID)
	if err != nil {
		m.metrics.Rotation(RotationError)
		return Pair{}, storageErr("find owner", err)
	}
	if owner == nil {
		m.logger.Warn("refresh token owner no longer exists", zap.String("user_id", userID))
		if _, err := m.RevokeOne(ctx, token); err != nil {
			m.logger.Warn("revoke orphaned refresh token failed", zap.Error(err))
		}
		m.metrics.Rotation(RotationInvalid)
		return Pair{}, ErrExpiredOrRevoked
	}

	revoked, err := m.RevokeOne(ctx, token)
	if err != nil {
		m.metrics.Rotation(RotationError)
		return Pair{}, err
	}
	if !revoked {
		m.metrics.Rotation(RotationConsumed)
		m.logger.Warn("refresh token already consumed", zap.String("user_id", userID))
		return Pair{}, ErrTokenConsumed
	}

	pair, err := m.IssuePair(ctx, owner.ID, owner.Username)
	if err != nil {
		m.metrics.Rotation(RotationError)
		return Pair{}, err
	}
	m.metrics.Rotation(RotationOK)
	return pair, nil
}

func (m *Manager) noteReplay(ctx context.Context, token string) {
	if token == "" {
		return
	}
	rec, err := m.store.Find(ctx, token)
	if err != nil || rec == nil {
		return
	}
	if rec.IsRevoked && rec.ExpiresAt.After(m.now()) {
		m.logger.Warn("revoked refresh token presented again", zap.String("user_id", rec.UserID))
	}
}
