package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

type MemoryCache struct {
	c *gocache.Cache
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{c: gocache.New(gocache.NoExpiration, time.Minute)}
}

func (mc *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	v, ok := mc.c.Get(key)
	if !ok {
		return nil, ErrNotFound
	}

	value, _ := v.([]byte)
	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)
	return valueCopy, nil
}

func (mc *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)

	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	mc.c.Set(key, valueCopy, ttl)
	return nil
}

func (mc *MemoryCache) Delete(ctx context.Context, key string) error {
	mc.c.Delete(key)
	return nil
}

func (mc *MemoryCache) Close() error {
	mc.c.Flush()
	return nil
}
