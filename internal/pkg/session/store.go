package session

import (
	"context"
	"time"

	"github.com/chattr/authcore/internal/models"
)

// Record is the durable renewal record.
type Record = models.RefreshToken

// Store is the durable record store. Implementations must enforce token uniqueness
// and return ErrDuplicateToken when Create hits it.
type Store interface {
	Create(ctx context.Context, rec *Record) error
	// FindActive returns the non-revoked record for token that expires after now,
	// or (nil, nil).
	FindActive(ctx context.Context, token string, now time.Time) (*Record, error)
	// Find returns the record for token in any state, or (nil, nil).
	Find(ctx context.Context, token string) (*Record, error)
	// Revoke flips IsRevoked false→true for token and reports whether a row changed.
	Revoke(ctx context.Context, token string, now time.Time) (bool, error)
	ListActiveTokens(ctx context.Context, userID string) ([]string, error)
	RevokeAll(ctx context.Context, userID string, now time.Time) (int64, error)
	// DeleteExpired removes records with ExpiresAt before now, revoked or not.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	Ping(ctx context.Context) error
}

// Cache is the ephemeral token → user id lookup.
type Cache interface {
	// Get returns ("", false, nil) on a miss.
	Get(ctx context.Context, token string) (string, bool, error)
	Set(ctx context.Context, token, userID string, ttl time.Duration) error
	// Del is a no-op for absent tokens.
	Del(ctx context.Context, tokens ...string) error
	Ping(ctx context.Context) error
}

// Owner is the part of a user the credential core needs.
type Owner struct {
	ID       string
	Username string
}

// OwnerLookup resolves session owners. Both methods return (nil, nil) when absent.
type OwnerLookup interface {
	FindOwnerByID(ctx context.Context, id string) (*Owner, error)
	FindOwnerByUsername(ctx context.Context, username string) (*Owner, error)
}
