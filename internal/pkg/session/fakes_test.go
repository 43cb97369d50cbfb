package session

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
)

var errUnavailable = errors.New("connection refused")

type memStore struct {
	mu      sync.Mutex
	byToken map[string]*Record

	createErr error
	findErr   error
	revokeErr error
	dupes     int
}

func newMemStore() *memStore { return &memStore{byToken: map[string]*Record{}} }

func (s *memStore) Create(_ context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	if s.dupes > 0 {
		s.dupes--
		return ErrDuplicateToken
	}
	if _, ok := s.byToken[rec.Token]; ok {
		return ErrDuplicateToken
	}
	cp := *rec
	s.byToken[rec.Token] = &cp
	return nil
}

func (s *memStore) FindActive(_ context.Context, token string, now time.Time) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	rec, ok := s.byToken[token]
	if !ok || !rec.Active(now) {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (s *memStore) Find(_ context.Context, token string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byToken[token]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (s *memStore) Revoke(_ context.Context, token string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.revokeErr != nil {
		return false, s.revokeErr
	}
	rec, ok := s.byToken[token]
	if !ok || rec.IsRevoked {
		return false, nil
	}
	rec.IsRevoked = true
	rec.UpdatedAt = now
	return true, nil
}

func (s *memStore) ListActiveTokens(_ context.Context, userID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for tok, rec := range s.byToken {
		if rec.UserID == userID && !rec.IsRevoked {
			out = append(out, tok)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *memStore) RevokeAll(_ context.Context, userID string, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, rec := range s.byToken {
		if rec.UserID == userID && !rec.IsRevoked {
			rec.IsRevoked = true
			rec.UpdatedAt = now
			n++
		}
	}
	return n, nil
}

func (s *memStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for tok, rec := range s.byToken {
		if rec.ExpiresAt.Before(now) {
			delete(s.byToken, tok)
			n++
		}
	}
	return n, nil
}

func (s *memStore) Ping(context.Context) error { return nil }

func (s *memStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byToken)
}

// hookStore runs afterFind[n] once the n-th FindActive call has read the record,
// and beforeFlip once ahead of the next Revoke or RevokeAll.
type hookStore struct {
	*memStore
	finds      int
	afterFind  map[int]func()
	beforeFlip func()
}

func (s *hookStore) flipHook() {
	if fn := s.beforeFlip; fn != nil {
		s.beforeFlip = nil
		fn()
	}
}

func (s *hookStore) Revoke(ctx context.Context, token string, now time.Time) (bool, error) {
	s.flipHook()
	return s.memStore.Revoke(ctx, token, now)
}

func (s *hookStore) RevokeAll(ctx context.Context, userID string, now time.Time) (int64, error) {
	s.flipHook()
	return s.memStore.RevokeAll(ctx, userID, now)
}

func (s *hookStore) FindActive(ctx context.Context, token string, now time.Time) (*Record, error) {
	rec, err := s.memStore.FindActive(ctx, token, now)
	s.finds++
	if fn := s.afterFind[s.finds]; fn != nil {
		fn()
	}
	return rec, err
}

type cacheEntry struct {
	userID string
	ttl    time.Duration
}

type memCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry

	getErr error
	setErr error
	delErr error
}

func newMemCache() *memCache { return &memCache{entries: map[string]cacheEntry{}} }

func (c *memCache) Get(_ context.Context, token string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return "", false, c.getErr
	}
	e, ok := c.entries[token]
	return e.userID, ok, nil
}

func (c *memCache) Set(_ context.Context, token, userID string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return c.setErr
	}
	c.entries[token] = cacheEntry{userID: userID, ttl: ttl}
	return nil
}

func (c *memCache) Del(_ context.Context, tokens ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.delErr != nil {
		return c.delErr
	}
	for _, t := range tokens {
		delete(c.entries, t)
	}
	return nil
}

func (c *memCache) Ping(context.Context) error { return nil }

func (c *memCache) entry(token string) (cacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[token]
	return e, ok
}

type mockOwners struct{ mock.Mock }

func (m *mockOwners) FindOwnerByID(ctx context.Context, id string) (*Owner, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Owner), args.Error(1)
}

func (m *mockOwners) FindOwnerByUsername(ctx context.Context, username string) (*Owner, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Owner), args.Error(1)
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
