package redis

import (
	"context"
	"time"
)

// TokenKeyPrefix namespaces refresh token lookups.
const TokenKeyPrefix = "refresh_token:"

// TokenCache maps refresh token values to their owner id.
type TokenCache struct{ c *Client }

func NewTokenCache(c *Client) *TokenCache { return &TokenCache{c: c} }

func TokenKey(token string) string { return TokenKeyPrefix + token }

func (t *TokenCache) Get(ctx context.Context, token string) (string, bool, error) {
	return t.c.Get(ctx, TokenKey(token))
}

func (t *TokenCache) Set(ctx context.Context, token, userID string, ttl time.Duration) error {
	return t.c.Set(ctx, TokenKey(token), userID, ttl)
}

func (t *TokenCache) Del(ctx context.Context, tokens ...string) error {
	keys := make([]string, len(tokens))
	for i, tok := range tokens {
		keys[i] = TokenKey(tok)
	}
	return t.c.Del(ctx, keys...)
}

func (t *TokenCache) Ping(ctx context.Context) error { return t.c.Ping(ctx) }
