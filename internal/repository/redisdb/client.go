// Package redisdb provides Redis-backed implementations of the repository
// cache and distributed lock interfaces.
package redisdb

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ventra/catalog-server/internal/config"
)

// Client wraps a go-redis client.
type Client struct {
	rdb    *redis.Client
	logger zerolog.Logger
}

// NewClient connects to Redis using the given configuration.
func NewClient(ctx context.Context, cfg config.RedisConfig, logger zerolog.Logger) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr(),
		Password:    cfg.Password,
		DB:          cfg.DB,
		PoolSize:    cfg.PoolSize,
		DialTimeout: cfg.DialTimeout,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	logger.Info().
		Str("addr", cfg.Addr()).
		Int("db", cfg.DB).
		Msg("connected to Redis")

	return &Client{rdb: rdb, logger: logger}, nil
}

// NewClientFromRedis wraps an existing go-redis client (used in tests with
// miniredis).
func NewClientFromRedis(rdb *redis.Client, logger zerolog.Logger) *Client {
	return &Client{rdb: rdb, logger: logger}
}

// Close closes the underlying connection pool.
func (c *Client) Close() error {
	c.logger.Info().Msg("closing Redis connection")
	return c.rdb.Close()
}

// Ping checks the Redis connection.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Health checks the Redis connection health.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx)
}

// ttlOrKeep clamps non-positive TTLs to zero, which go-redis treats as
// "no expiration" on SET.
func ttlOrKeep(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 0
	}
	return ttl
}
