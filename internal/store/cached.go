package store

import (
	"context"
	"sync"

	"github.com/voyagen/gonet/internal/cache"
)

// CachedBackend wraps a Backend with a read cache. Reads are served from
// the cache when possible; writes go to the inner backend first and then
// invalidate the cached entry.
//
// Every write bumps a per-key generation. A read that raced with a write
// (the generation moved while it was reading the inner backend) does not
// populate the cache, so a stale value is never cached after a newer write.
type CachedBackend struct {
	inner Backend
	cache cache.Cache

	mu    sync.Mutex
	gens  map[string]uint64
	epoch uint64 // bumped by Clear
}

// NewCachedBackend creates a CachedBackend that wraps inner with c.
func NewCachedBackend(inner Backend, c cache.Cache) *CachedBackend {
	return &CachedBackend{inner: inner, cache: c, gens: make(map[string]uint64)}
}

func (c *CachedBackend) Get(ctx context.Context, key string) ([]byte, error) {
	if v, ok := c.cache.Get(ctx, key); ok {
		return v, nil
	}
	gen := c.generation(key)
	v, err := c.inner.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	if c.epoch+c.gens[key] == gen {
		c.cache.Set(ctx, key, v)
	}
	c.mu.Unlock()
	return v, nil
}

func (c *CachedBackend) Put(ctx context.Context, key string, value []byte) error {
	if err := c.inner.Put(ctx, key, value); err != nil {
		return err
	}
	c.invalidate(ctx, key)
	return nil
}

func (c *CachedBackend) Delete(ctx context.Context, key string) error {
	if err := c.inner.Delete(ctx, key); err != nil {
		return err
	}
	c.invalidate(ctx, key)
	return nil
}

func (c *CachedBackend) Clear(ctx context.Context) error {
	if err := c.inner.Clear(ctx); err != nil {
		return err
	}
	c.mu.Lock()
	c.epoch++
	c.cache.Purge(ctx)
	c.mu.Unlock()
	return nil
}

func (c *CachedBackend) Close() error {
	return c.inner.Close()
}

func (c *CachedBackend) generation(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch + c.gens[key]
}

func (c *CachedBackend) invalidate(ctx context.Context, key string) {
	c.mu.Lock()
	c.gens[key]++
	c.cache.Del(ctx, key)
	c.mu.Unlock()
}
