// Package cache holds the Redis-backed read cache for list responses.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "anihistory:list:"

// redisClient is the slice of the redis API the cache touches; satisfied
// by *redis.Client and by fakes in tests.
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Close() error
}

// ListCache caches rendered list responses per username. A nil *ListCache
// is valid and disables caching, so callers never branch on configuration.
type ListCache struct {
	client redisClient
	ttl    time.Duration
	log    *zap.Logger
}

func New(url string, ttl time.Duration, log *zap.Logger) (*ListCache, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &ListCache{client: redis.NewClient(opt), ttl: ttl, log: log}, nil
}

func (c *ListCache) Get(ctx context.Context, username string, dest any) bool {
	if c == nil {
		return false
	}
	val, err := c.client.Get(ctx, keyPrefix+username).Result()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn("cache read failed", zap.String("username", username), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal([]byte(val), dest); err != nil {
		c.log.Warn("cache payload unmarshal failed", zap.String("username", username), zap.Error(err))
		return false
	}
	return true
}

func (c *ListCache) Set(ctx context.Context, username string, v any) {
	if c == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		c.log.Warn("cache payload marshal failed", zap.String("username", username), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, keyPrefix+username, b, c.ttl).Err(); err != nil {
		c.log.Warn("cache write failed", zap.String("username", username), zap.Error(err))
	}
}

// Invalidate drops the cached response for a username; called after a
// reconciliation converges so readers see fresh rows immediately.
func (c *ListCache) Invalidate(ctx context.Context, username string) {
	if c == nil {
		return
	}
	if err := c.client.Del(ctx, keyPrefix+username).Err(); err != nil {
		c.log.Warn("cache invalidate failed", zap.String("username", username), zap.Error(err))
	}
}

func (c *ListCache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
