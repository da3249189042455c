package cache

import (
	"context"

	"github.com/coocood/freecache"
)

// Local is an in-process Cache backed by freecache.
type Local struct {
	cache *freecache.Cache
	ttl   int
}

// NewLocal allocates a cache of sizeMB megabytes. ttlSeconds of 0 means no expiry.
func NewLocal(sizeMB int, ttlSeconds int) *Local {
	return &Local{
		cache: freecache.NewCache(sizeMB * 1024 * 1024),
		ttl:   ttlSeconds,
	}
}

func (l *Local) Get(_ context.Context, key string) ([]byte, bool) {
	v, err := l.cache.Get([]byte(key))
	if err != nil {
		return nil, false
	}
	return v, true
}

// Set stores value. Values larger than the cache segment limit are silently
// not cached.
func (l *Local) Set(_ context.Context, key string, value []byte) {
	_ = l.cache.Set([]byte(key), value, l.ttl)
}

func (l *Local) Del(_ context.Context, keys ...string) {
	for _, k := range keys {
		l.cache.Del([]byte(k))
	}
}

func (l *Local) Purge(_ context.Context) {
	l.cache.Clear()
}
