// Package cachedb provides a small JSON cache on top of redis. Statistics
// endpoints use it so repeated dashboard refreshes do not hammer postgres.
// A missing or unreachable redis never fails a request, callers fall back
// to the source of truth.
package cachedb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Config struct {
	Addr     string
	Password string
	DB       int
}

// Cache wraps a redis client with a fixed ttl for every key it writes.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// Open connects to redis. The connection is verified lazily, use Ping when
// startup needs to know.
func Open(cfg Config, ttl time.Duration) *Cache {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &Cache{client: client, ttl: ttl}
}

// Ping verifies redis connectivity.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (c *Cache) Close() error {
	return c.client.Close()
}

// GetJSON loads key into dest. The boolean reports whether the key existed.
func (c *Cache) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	bs, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get %s: %w", key, err)
	}

	if err := json.Unmarshal(bs, dest); err != nil {
		return false, fmt.Errorf("unmarshal %s: %w", key, err)
	}

	return true, nil
}

// SetJSON stores val under key with the cache ttl.
func (c *Cache) SetJSON(ctx context.Context, key string, val any) error {
	bs, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}

	if err := c.client.Set(ctx, key, bs, c.ttl).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}

	return nil
}

// Delete drops the given keys.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("del: %w", err)
	}
	return nil
}
