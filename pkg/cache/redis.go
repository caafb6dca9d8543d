package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
)

// RedisOptions configures a Redis-backed cache.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int

	// Prefix is prepended to every key. Default: "choropleth:".
	Prefix string
}

// RedisCache stores entries in Redis with native key expiry.
type RedisCache struct {
	client  *redis.Client
	breaker *gobreaker.CircuitBreaker
	prefix  string
}

// NewRedisCache connects to Redis and verifies the connection with PING.
// Connection failures are retried with DefaultBackoff.
func NewRedisCache(ctx context.Context, opts RedisOptions) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{Addr: opts.Addr, Password: opts.Password, DB: opts.DB})
	err := RetryWithBackoff(ctx, DefaultBackoff, func() error {
		return Retryable(client.Ping(ctx).Err())
	})
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", opts.Addr, errors.Join(ErrUnavailable, err))
	}
	return newRedisCache(client, opts.Prefix), nil
}

func newRedisCache(client *redis.Client, prefix string) *RedisCache {
	if prefix == "" {
		prefix = "choropleth:"
	}
	return &RedisCache{client: client, breaker: newBreaker("redis-cache"), prefix: prefix}
}

// Get retrieves a value. A missing key is a miss, not a failure.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	res, err := c.breaker.Execute(func() (interface{}, error) {
		data, err := c.client.Get(ctx, c.prefix+key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return data, err
	})
	if err != nil {
		return nil, false, breakerErr(err)
	}
	data, _ := res.([]byte)
	if data == nil {
		return nil, false, nil
	}
	return data, true, nil
}

// Set stores a value with the given ttl (zero means no expiry).
func (c *RedisCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.client.Set(ctx, c.prefix+key, data, ttl).Err()
	})
	return breakerErr(err)
}

// Delete removes a value.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.client.Del(ctx, c.prefix+key).Err()
	})
	return breakerErr(err)
}

// Close closes the Redis client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

var _ Cache = (*RedisCache)(nil)
