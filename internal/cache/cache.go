// Package cache provides a Redis-backed store for completed analysis
// results keyed by their deterministic cache key.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/hydrostats/hydrofreq/internal/frequency"
)

// ErrMiss is returned when no result is stored under the requested key.
var ErrMiss = errors.New("cache miss")

// ResultCache stores analysis results in Redis with TTL-based expiration.
// Results for identical inputs are identical, so a cached entry can be
// served in place of recomputation for as long as it lives.
type ResultCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates a Redis-backed result cache.
// A ttl of 0 uses a default of 60 minutes.
func New(addr, password string, db int, ttl time.Duration) (*ResultCache, error) {
	if addr == "" {
		return nil, errors.New("redis address cannot be empty")
	}
	if db < 0 {
		return nil, errors.New("redis database number must be >= 0")
	}

	if ttl == 0 {
		ttl = 60 * time.Minute
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}

	return &ResultCache{
		client: client,
		ttl:    ttl,
	}, nil
}

func redisKey(key string) string {
	return "hydrofreq:analysis:" + key
}

// Put stores an analysis result under its cache key.
func (c *ResultCache) Put(ctx context.Context, key string, result *frequency.AnalysisResult) error {
	if key == "" {
		return errors.New("cache key required")
	}

	data, err := msgpack.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode analysis result: %w", err)
	}

	if err := c.client.Set(ctx, redisKey(key), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store analysis result: %w", err)
	}
	return nil
}

// Get retrieves a cached analysis result, returning ErrMiss when absent.
func (c *ResultCache) Get(ctx context.Context, key string) (*frequency.AnalysisResult, error) {
	if key == "" {
		return nil, errors.New("cache key required")
	}

	data, err := c.client.Get(ctx, redisKey(key)).Bytes()
	if err == redis.Nil {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch analysis result: %w", err)
	}

	var result frequency.AnalysisResult
	if err := msgpack.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode analysis result: %w", err)
	}
	return &result, nil
}

// Close releases the Redis connection.
func (c *ResultCache) Close() error {
	return c.client.Close()
}
