package cache

import (
	"context"
	"time"

	"github.com/plct-archrv/pkgstatus/common/logger"
	"github.com/redis/go-redis/v9"
)

// Cache interface for key-value storage with TTL
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// RedisCache backs the status dashboard snapshot
type RedisCache struct {
	client *redis.Client
	log    *logger.Logger
}

// NewRedis creates a Redis-backed cache
func NewRedis(client *redis.Client, log *logger.Logger) *RedisCache {
	return &RedisCache{
		client: client,
		log:    log,
	}
}

// Get retrieves a value from cache
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, err
	}
	return value, true, nil
}

// Set stores a value in cache with TTL
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

// Delete removes a value from cache
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

// Close closes the underlying client
func (c *RedisCache) Close() error {
	c.log.Info("closing redis cache")
	return c.client.Close()
}
