// Package cache provides the Redis layer: the resolved-identity cache
// used by the auth middleware and the token bucket guarding the auth
// endpoints.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Pool sizing for Bookhive's Redis workload: every authenticated request
// touches the identity cache once and the auth endpoints add one rate-limit
// script call each, so the pool stays small relative to the pg pool.
const (
	poolSize        = 8
	minIdleConns    = 2
	poolWaitTimeout = 4 * time.Second
	connMaxIdle     = 5 * time.Minute
)

// Cache wraps the Redis client behind Bookhive-specific operations.
type Cache struct {
	client *redis.Client
}

// New connects to Redis at redisURL and verifies the connection.
func New(ctx context.Context, redisURL string) (*Cache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opt.PoolSize = poolSize
	opt.MinIdleConns = minIdleConns
	opt.PoolTimeout = poolWaitTimeout
	opt.ConnMaxIdleTime = connMaxIdle

	client := redis.NewClient(opt)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return &Cache{client: client}, nil
}

// Ping checks Redis connectivity, feeding the readiness probe.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Client returns the underlying Redis client.
// Use sparingly - prefer adding methods to Cache.
func (c *Cache) Client() *redis.Client {
	return c.client
}
