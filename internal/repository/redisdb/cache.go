package redisdb

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ventra/catalog-server/internal/repository"
)

// Cache implements repository.Cache using Redis.
type Cache struct {
	client *Client
}

// NewCache creates a Redis-backed cache.
func NewCache(client *Client) *Cache {
	return &Cache{client: client}
}

// Get retrieves a value by key.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repository.ErrCacheMiss
		}
		return nil, err
	}
	return val, nil
}

// Set stores a value with an optional TTL.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.rdb.Set(ctx, key, value, ttlOrKeep(ttl)).Err()
}

// SetNX sets a value only if the key doesn't exist.
func (c *Cache) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	return c.client.rdb.SetNX(ctx, key, value, ttlOrKeep(ttl)).Result()
}

// Delete removes a value by key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.client.rdb.Del(ctx, key).Err()
}

// Exists checks if a key exists.
func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.client.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Expire sets or updates the TTL for a key.
func (c *Cache) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return c.client.rdb.Expire(ctx, key, ttl).Err()
}

// TTL returns the remaining TTL for a key.
func (c *Cache) TTL(ctx context.Context, key string) (time.Duration, error) {
	return c.client.rdb.TTL(ctx, key).Result()
}

// Ensure Cache implements repository.Cache.
var _ repository.Cache = (*Cache)(nil)
