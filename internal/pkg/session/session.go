// Package session issues, verifies, rotates and revokes the paired credentials of an
// authenticated session: a short-lived signed access token and a long-lived opaque
// refresh token backed by a durable record and mirrored into a TTL lookup cache.
//
// The durable store is authoritative. The cache only shortens the hot path and is
// evicted synchronously whenever its backing record is revoked.
package session

import (
	"time"

	jwtpkg "github.com/chattr/authcore/internal/pkg/jwt"
	"go.uber.org/zap"
)

const (
	DefaultAccessTTL  = jwtpkg.DefaultTTL
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// Options configures a Manager. Zero values fall back to defaults.
type Options struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Now        func() time.Time
	Logger     *zap.Logger
	Metrics    Metrics
	Owners     OwnerLookup
}

// Pair is a freshly issued access/refresh credential pair.
type Pair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// Identity is what a verified access token proves.
type Identity struct {
	UserID    string
	Username  string
	ExpiresAt time.Time
}

// Manager is the credential issuer, verifier, revocation manager and expiry
// reconciler. It holds no per-request state and is safe for concurrent use.
type Manager struct {
	store      Store
	cache      Cache
	owners     OwnerLookup
	signer     *jwtpkg.Signer
	refreshTTL time.Duration
	now        func() time.Time
	logger     *zap.Logger
	metrics    Metrics
}

// New builds a Manager over the given durable store and lookup cache.
func New(store Store, cache Cache, opts Options) *Manager {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.AccessTTL <= 0 {
		opts.AccessTTL = DefaultAccessTTL
	}
	if opts.RefreshTTL <= 0 {
		opts.RefreshTTL = DefaultRefreshTTL
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = nopMetrics{}
	}
	return &Manager{
		store:      store,
		cache:      cache,
		owners:     opts.Owners,
		signer:     jwtpkg.NewSigner(opts.Secret, opts.AccessTTL, opts.Now),
		refreshTTL: opts.RefreshTTL,
		now:        opts.Now,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
	}
}

// UsesDefaultSecret reports whether no signing secret was configured.
func (m *Manager) UsesDefaultSecret() bool { return m.signer.UsesDefaultSecret() }

// AccessTTL returns the lifetime of issued access tokens.
func (m *Manager) AccessTTL() time.Duration { return m.signer.TTL() }

// RefreshTTL returns the lifetime of issued refresh tokens.
func (m *Manager) RefreshTTL() time.Duration { return m.refreshTTL }
