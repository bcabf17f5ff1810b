package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/survey-recon-api/pkg/errors"
)

// ResultCache caches derived reconciliation and validation outputs in Redis.
// Stored values are always recomputable; a nil client degrades to recompute-
// every-time instead of failing.
type ResultCache struct {
	client *redis.Client
	logger *zap.Logger
}

// NewResultCache constructs a result cache.
func NewResultCache(client *redis.Client, logger *zap.Logger) *ResultCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResultCache{client: client, logger: logger}
}

// Get retrieves and unmarshals the cached value into the provided destination.
func (c *ResultCache) Get(ctx context.Context, key string, dest interface{}) error {
	if c.client == nil {
		return appErrors.ErrCacheMiss
	}

	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return appErrors.ErrCacheMiss
		}
		return fmt.Errorf("redis get %s: %w", key, err)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("unmarshal cache value for %s: %w", key, err)
	}

	return nil
}

// Set marshals the provided value and stores it with the given TTL.
func (c *ResultCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if c.client == nil {
		return nil
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value for %s: %w", key, err)
	}

	if err := c.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}

	return nil
}

// InvalidateSubject drops every cached artifact derived from one subject's
// submissions. Called on ingest so stale merges never outlive new data.
func (c *ResultCache) InvalidateSubject(ctx context.Context, subjectID string) error {
	if c.client == nil {
		return nil
	}
	// key layout is owned by the services; both families embed the subject id
	patterns := []string{
		fmt.Sprintf("validation:%s:*", subjectID),
		fmt.Sprintf("merged:%s", subjectID),
	}
	for _, pattern := range patterns {
		if err := c.deleteByPattern(ctx, pattern); err != nil {
			return err
		}
	}
	return nil
}

func (c *ResultCache) deleteByPattern(ctx context.Context, pattern string) error {
	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if err := c.client.Del(ctx, key).Err(); err != nil {
			return fmt.Errorf("redis delete %s: %w", key, err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan pattern %s: %w", pattern, err)
	}
	return nil
}

// Close releases the underlying Redis connection if present.
func (c *ResultCache) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}
