package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const predictionKeyPrefix = "voicecmd:prediction:"

// stringStore is the part of redis.Cmdable the prediction cache needs.
type stringStore interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// PredictionCache maps a scoped payload digest to the label it produced.
// Identical uploads to the same model skip it.
type PredictionCache struct {
	store stringStore
	ttl   time.Duration
}

// NewPredictionCache creates a cache on client. A zero ttl keeps entries forever.
func NewPredictionCache(client *redis.Client, ttl time.Duration) *PredictionCache {
	return &PredictionCache{store: client, ttl: ttl}
}

// GetPredictionKey returns the Redis key for key.
func GetPredictionKey(key string) string {
	return predictionKeyPrefix + key
}

// Get returns the cached label; ok is false on a miss.
func (c *PredictionCache) Get(ctx context.Context, key string) (string, bool, error) {
	label, err := c.store.Get(ctx, GetPredictionKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get cached prediction: %w", err)
	}
	return label, true, nil
}

// Set stores label under key.
func (c *PredictionCache) Set(ctx context.Context, key, label string) error {
	if err := c.store.Set(ctx, GetPredictionKey(key), label, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache prediction: %w", err)
	}
	return nil
}
