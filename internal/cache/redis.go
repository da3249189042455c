package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// KeyPrefix namespaces every cached value.
const KeyPrefix = "gonet:kv:"

// Redis wraps a go-redis client as a Cache and as the change-event transport.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

// New parses a Redis URL (e.g. "redis://host:6379/0") and returns a
// client. Call Ping to verify the connection.
func New(rawURL string, ttl time.Duration, log zerolog.Logger) (*Redis, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return NewWithClient(redis.NewClient(opts), ttl, log), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(c *redis.Client, ttl time.Duration, log zerolog.Logger) *Redis {
	return &Redis{client: c, ttl: ttl, log: log.With().Str("component", "redis").Logger()}
}

// Ping checks the connection to Redis.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close shuts down the Redis client.
func (r *Redis) Close() error {
	return r.client.Close()
}

// Client returns the underlying go-redis client for direct access.
func (r *Redis) Client() *redis.Client {
	return r.client
}

// Get returns the cached bytes for key.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	raw, err := r.client.Get(ctx, KeyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.log.Warn().Err(err).Str("key", key).Msg("cache get")
		}
		return nil, false
	}
	return raw, true
}

// Set stores value under key with the configured TTL.
func (r *Redis) Set(ctx context.Context, key string, value []byte) {
	if err := r.client.Set(ctx, KeyPrefix+key, value, r.ttl).Err(); err != nil {
		r.log.Warn().Err(err).Str("key", key).Msg("cache set")
	}
}

// Del deletes one or more exact keys.
func (r *Redis) Del(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = KeyPrefix + k
	}
	if err := r.client.Del(ctx, full...).Err(); err != nil && !errors.Is(err, redis.Nil) {
		r.log.Warn().Err(err).Strs("keys", keys).Msg("cache del")
	}
}

// Purge deletes every cached value.
func (r *Redis) Purge(ctx context.Context) {
	if err := r.DelPattern(ctx, KeyPrefix+"*"); err != nil {
		r.log.Warn().Err(err).Msg("cache purge")
	}
}

// DelPattern deletes all keys matching a glob pattern.
// Uses SCAN so it is safe for production, unlike KEYS.
func (r *Redis) DelPattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return fmt.Errorf("cache scan %s: %w", pattern, err)
		}
		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("cache del pattern %s: %w", pattern, err)
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return nil
}
