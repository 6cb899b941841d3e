// internal/common/database/redis.go
package database

import (
	"context"
	"fmt"
	"time"

	"fundmatch-workers/internal/common/config"

	"github.com/redis/go-redis/v9"
)

// RedisClient owns the connection pool behind profile caching and the quota
// counters. Services receive the underlying *redis.Client so they can run
// pipelines and scripts directly.
type RedisClient struct {
	Client *redis.Client
}

// NewRedis builds a client from config. Timeouts are kept short: quota checks
// sit on the swipe hot path and a slow Redis should surface as a dependency
// failure, not a stalled job.
func NewRedis(cfg config.RedisConfig) (*RedisClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	return &RedisClient{Client: rdb}, nil
}

func (c *RedisClient) Ping(ctx context.Context) error {
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (c *RedisClient) Close() error {
	if c.Client != nil {
		return c.Client.Close()
	}
	return nil
}

// GetClient exposes the raw client for cache and counter services.
func (c *RedisClient) GetClient() *redis.Client {
	return c.Client
}
