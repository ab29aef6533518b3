// services/cache_invalidator.go
package services

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// CacheInvalidator drops cached views after catalog or order mutations.
// Every call site treats it as best-effort: failures are logged, never
// surfaced.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, pattern string) error
}

// RedisInvalidator deletes all keys matching the pattern.
type RedisInvalidator struct {
	Client *redis.Client
}

func NewRedisInvalidator(client *redis.Client) *RedisInvalidator {
	return &RedisInvalidator{Client: client}
}

func (r *RedisInvalidator) Invalidate(ctx context.Context, pattern string) error {
	iter := r.Client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan cache keys %q: %w", pattern, err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := r.Client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete cache keys %q: %w", pattern, err)
	}
	return nil
}

// NoopInvalidator is substituted in tests and when Redis is not configured.
type NoopInvalidator struct{}

func (NoopInvalidator) Invalidate(context.Context, string) error { return nil }
