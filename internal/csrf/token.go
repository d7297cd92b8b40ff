package csrf

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/marcogenualdo/sanctum-client/internal/cache"
)

// TokenCache mirrors the current CSRF token in memory so requests do not have
// to re-parse cookies, and writes it through to a cache.Cache so other
// processes sharing that store can pick it up.
type TokenCache struct {
	mu    sync.RWMutex
	token string

	store  cache.Cache
	key    string
	ttl    time.Duration
	logger *slog.Logger
}

func NewTokenCache(store cache.Cache, host string, ttl time.Duration, logger *slog.Logger) *TokenCache {
	return &TokenCache{
		store:  store,
		key:    "csrf:token:" + host,
		ttl:    ttl,
		logger: logger,
	}
}

func (tc *TokenCache) Get(ctx context.Context) string {
	tc.mu.RLock()
	token := tc.token
	tc.mu.RUnlock()
	if token != "" || tc.store == nil {
		return token
	}

	data, err := tc.store.Get(ctx, tc.key)
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			tc.logger.Warn("failed to read csrf token from cache", "error", err)
		}
		return ""
	}

	tc.mu.Lock()
	if tc.token == "" {
		tc.token = string(data)
	}
	token = tc.token
	tc.mu.Unlock()
	return token
}

// Set replaces the cached token. An empty token clears the cache.
func (tc *TokenCache) Set(ctx context.Context, token string) {
	if token == "" {
		tc.Clear(ctx)
		return
	}

	tc.mu.Lock()
	tc.token = token
	tc.mu.Unlock()

	if tc.store == nil {
		return
	}
	if err := tc.store.Set(ctx, tc.key, []byte(token), tc.ttl); err != nil {
		tc.logger.Warn("failed to store csrf token in cache", "error", err)
	}
}

func (tc *TokenCache) Clear(ctx context.Context) {
	tc.mu.Lock()
	tc.token = ""
	tc.mu.Unlock()

	if tc.store == nil {
		return
	}
	if err := tc.store.Delete(ctx, tc.key); err != nil {
		tc.logger.Warn("failed to delete csrf token from cache", "error", err)
	}
}
