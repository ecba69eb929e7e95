package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/optistock/internal/config"
	"github.com/andresuchdata/optistock/internal/domain"
)

const classificationKeyPrefix = "optistock:classification:"

// ClassificationCache holds the population-wide ABC/XYZ snapshot.
// Classification is population-relative, so the cached value is the whole
// snapshot keyed by a population fingerprint, never per-SKU entries.
type ClassificationCache interface {
	Get(ctx context.Context, fingerprint string) ([]domain.SKUClass, bool, error)
	Set(ctx context.Context, fingerprint string, classes []domain.SKUClass) error
	Invalidate(ctx context.Context) error
}

// NewClassificationCache returns the redis-backed cache when caching is
// enabled and reachable, downgrading to a noop otherwise.
func NewClassificationCache(cfg config.CacheConfig) ClassificationCache {
	if !cfg.Enabled {
		return NewNoopClassificationCache()
	}
	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("classification cache disabled, falling back to noop")
		return NewNoopClassificationCache()
	}
	return &redisClassificationCache{client: client, ttl: ttl}
}

type redisClassificationCache struct {
	client *redis.Client
	ttl    time.Duration
}

func (c *redisClassificationCache) Get(ctx context.Context, fingerprint string) ([]domain.SKUClass, bool, error) {
	raw, err := c.client.Get(ctx, classificationKeyPrefix+fingerprint).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("classification cache get failed: %w", err)
	}

	var classes []domain.SKUClass
	if err := json.Unmarshal(raw, &classes); err != nil {
		return nil, false, fmt.Errorf("classification cache decode failed: %w", err)
	}
	return classes, true, nil
}

func (c *redisClassificationCache) Set(ctx context.Context, fingerprint string, classes []domain.SKUClass) error {
	raw, err := json.Marshal(classes)
	if err != nil {
		return fmt.Errorf("classification cache encode failed: %w", err)
	}
	if err := c.client.Set(ctx, classificationKeyPrefix+fingerprint, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("classification cache set failed: %w", err)
	}
	return nil
}

func (c *redisClassificationCache) Invalidate(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, classificationKeyPrefix, 100)
}

// NewNoopClassificationCache returns a cache that never hits.
func NewNoopClassificationCache() ClassificationCache {
	return noopClassificationCache{}
}

type noopClassificationCache struct{}

func (noopClassificationCache) Get(context.Context, string) ([]domain.SKUClass, bool, error) {
	return nil, false, nil
}
func (noopClassificationCache) Set(context.Context, string, []domain.SKUClass) error { return nil }
func (noopClassificationCache) Invalidate(context.Context) error                     { return nil }
