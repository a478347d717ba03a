package biz

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/kart-io/logger"
	goredis "github.com/redis/go-redis/v9"

	"github.com/kart-io/advisor-x/internal/model"
	"github.com/kart-io/advisor-x/pkg/utils/json"
)

// ResultCacheConfig configures the opt-in recommendation cache. It is
// disabled by default: recommendations depend on live CRM and pricing data,
// so caching is an explicit trade-off the operator opts into.
type ResultCacheConfig struct {
	Enabled   bool
	TTL       time.Duration
	KeyPrefix string
}

// ResultCache caches full recommendation responses in Redis, keyed on the
// pair (question, customer id).
type ResultCache struct {
	redis  *goredis.Client
	config *ResultCacheConfig
}

// NewResultCache creates a ResultCache instance.
func NewResultCache(redis *goredis.Client, config *ResultCacheConfig) *ResultCache {
	if config == nil {
		config = &ResultCacheConfig{
			Enabled:   false,
			TTL:       1 * time.Hour,
			KeyPrefix: "advisor:recommend:",
		}
	}
	return &ResultCache{redis: redis, config: config}
}

// Enabled reports whether the cache is active.
func (c *ResultCache) Enabled() bool {
	return c.config.Enabled && c.redis != nil
}

// cacheKey hashes question and customer id together. Customer id is part of
// the key: the same question must never leak another customer's result.
func (c *ResultCache) cacheKey(question, customerID string) string {
	h := sha256.New()
	h.Write([]byte(question))
	h.Write([]byte{0})
	h.Write([]byte(customerID))
	return c.config.KeyPrefix + hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached response for (question, customerID), or nil on miss.
func (c *ResultCache) Get(ctx context.Context, question, customerID string) (*model.RecommendationResponse, error) {
	if !c.Enabled() {
		return nil, nil
	}

	key := c.cacheKey(question, customerID)
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err == goredis.Nil {
			logger.Debugw("cache miss", "key", key)
			return nil, nil
		}
		logger.Warnw("failed to get from cache", "error", err.Error(), "key", key)
		return nil, err
	}

	var resp model.RecommendationResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		logger.Warnw("failed to unmarshal cached response, dropping entry", "error", err.Error(), "key", key)
		_ = c.redis.Del(ctx, key).Err()
		return nil, err
	}

	logger.Infow("cache hit", "key", key)
	return &resp, nil
}

// Set stores the response under (question, customerID) with the configured TTL.
func (c *ResultCache) Set(ctx context.Context, question, customerID string, resp *model.RecommendationResponse) error {
	if !c.Enabled() {
		return nil
	}

	key := c.cacheKey(question, customerID)
	data, err := json.Marshal(resp)
	if err != nil {
		logger.Warnw("failed to marshal response for caching", "error", err.Error())
		return err
	}

	if err := c.redis.Set(ctx, key, data, c.config.TTL).Err(); err != nil {
		logger.Warnw("failed to set cache", "error", err.Error(), "key", key)
		return err
	}
	return nil
}

// Clear removes all cached recommendation responses.
func (c *ResultCache) Clear(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}

	iter := c.redis.Scan(ctx, 0, c.config.KeyPrefix+"*", 0).Iterator()
	deleted := 0
	for iter.Next(ctx) {
		if err := c.redis.Del(ctx, iter.Val()).Err(); err != nil {
			logger.Warnw("failed to delete cache key", "error", err.Error(), "key", iter.Val())
		} else {
			deleted++
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}

	logger.Infow("cleared recommendation cache", "deleted_count", deleted)
	return nil
}

// Stats returns cache statistics.
func (c *ResultCache) Stats(ctx context.Context) (map[string]interface{}, error) {
	if !c.Enabled() {
		return map[string]interface{}{"enabled": false}, nil
	}

	iter := c.redis.Scan(ctx, 0, c.config.KeyPrefix+"*", 0).Iterator()
	keyCount := 0
	for iter.Next(ctx) {
		keyCount++
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"enabled":    true,
		"key_count":  keyCount,
		"ttl":        c.config.TTL.String(),
		"key_prefix": c.config.KeyPrefix,
	}, nil
}
