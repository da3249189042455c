package cache

import "context"

// Cache is a byte-oriented read cache. Misses and backend errors both
// report ok == false; callers fall through to the source of truth.
type Cache interface {
	Get(ctx context.Context, key string) (value []byte, ok bool)
	Set(ctx context.Context, key string, value []byte)
	Del(ctx context.Context, keys ...string)
	// Purge drops every cached entry.
	Purge(ctx context.Context)
}
