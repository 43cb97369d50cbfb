package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var errEmptyUser = errors.New("user id is required")

// newToken returns an opaque refresh token value. uuid v4 reads crypto/rand.
var newToken = func() string { return uuid.NewString() }

// IssueAccess signs a short-lived access token for the user. It has no side effects.
func (m *Manager) IssueAccess(userID, username string) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", errEmptyUser
	}
	token, err := m.signer.Sign(userID, username)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	m.metrics.CredentialIssued(KindAccess)
	return token, nil
}

// IssueRefresh persists a new refresh token for the user and mirrors it into the cache.
// The durable write happens first; if it fails no token is returned. A failed cache
// write is only logged because the verifier repairs the cache from the store.
func (m *Manager) IssueRefresh(ctx context.Context, userID string) (string, error) {
	rec, err := m.issueRefresh(ctx, userID)
	if err != nil {
		return "", err
	}
	return rec.Token, nil
}

// IssuePair issues a refresh token and an access token for the user.
func (m *Manager) IssuePair(ctx context.Context, userID, username string) (Pair, error) {
	rec, err := m.issueRefresh(ctx, userID)
	if err != nil {
		return Pair{}, err
	}
	access, err := m.IssueAccess(userID, username)
	if err != nil {
		return Pair{}, err
	}
	return Pair{
		AccessToken:      access,
		RefreshToken:     rec.Token,
		AccessExpiresAt:  m.now().Add(m.signer.TTL()),
		RefreshExpiresAt: rec.ExpiresAt,
	}, nil
}

func (m *Manager) issueRefresh(ctx context.Context, userID string) (*Record, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, errEmptyUser
	}

	rec, err := m.createRecord(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := m.cache.Set(ctx, rec.Token, userID, m.refreshTTL); err != nil {
		m.metrics.CacheError("set")
		m.logger.Warn("refresh token cache write failed",
			zap.String("user_id", userID), zap.Error(err))
	}
	m.metrics.CredentialIssued(KindRefresh)
	return rec, nil
}

// createRecord retries once on a token collision before surfacing it.
func (m *Manager) createRecord(ctx context.Context, userID string) (*Record, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		now := m.now()
		rec := &Record{
			UserID:    userID,
			Token:     newToken(),
			IsRevoked: false,
			ExpiresAt: now.Add(m.refreshTTL),
		}
		rec.CreatedAt = now
		rec.UpdatedAt = now

		err := m.store.Create(ctx, rec)
		if err == nil {
			return rec, nil
		}
		if !errors.Is(err, ErrDuplicateToken) {
			return nil, storageErr("create refresh token", err)
		}
		lastErr = err
		m.logger.Warn("refresh token collision, regenerating", zap.Int("attempt", attempt+1))
	}
	return nil, fmt.Errorf("create refresh token: %w", lastErr)
}
