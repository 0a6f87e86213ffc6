package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"taikoweb/metrics"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient parses the URL and verifies the server answers
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return client, nil
}

// Cache stores JSON encoded values in Redis. A nil Cache never hits.
type Cache struct {
	client redis.UniversalClient
}

// NewCache wraps a Redis client
func NewCache(client redis.UniversalClient) *Cache {
	return &Cache{client: client}
}

// GetFromCache decodes the cached value into dest and reports whether it was found
func (c *Cache) GetFromCache(ctx context.Context, key string, dest interface{}) (bool, error) {
	if c == nil || c.client == nil {
		return false, nil
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		metrics.CacheMisses.Inc()
		return false, nil
	}
	if err != nil {
		metrics.CacheMisses.Inc()
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		metrics.CacheMisses.Inc()
		return false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	metrics.CacheHits.Inc()
	return true, nil
}

// SetToCache stores value under key for ttl
func (c *Cache) SetToCache(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if c == nil || c.client == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return c.client.Set(ctx, key, data, ttl).Err()
}

// Invalidate drops the given keys
func (c *Cache) Invalidate(ctx context.Context, keys ...string) error {
	if c == nil || c.client == nil || len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}
