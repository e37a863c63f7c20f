package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/featurepulse/backend/internal/database"
)

const (
	// CacheKeyPrefix is the Redis key prefix for cached chart data
	CacheKeyPrefix = "cache:"
	// SummaryCacheTTL keeps summary aggregates for a few minutes; the
	// analytics table only changes when the ingestion pipeline loads a batch
	SummaryCacheTTL = 5 * time.Minute
)

// CacheService caches chart responses in Redis. Every method fails open:
// a cold or unreachable Redis never breaks a request, it just means the
// query runs again.
type CacheService struct{}

// Get retrieves a value from cache. Returns false on miss or when Redis
// is not connected.
func (c *CacheService) Get(ctx context.Context, key string, dest interface{}) bool {
	if database.RedisClient == nil {
		return false
	}

	val, err := database.RedisClient.Get(ctx, CacheKeyPrefix+key).Result()
	if err != nil {
		return false
	}

	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return false
	}

	return true
}

// Set stores a value in cache with the given TTL. Errors are dropped.
func (c *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if database.RedisClient == nil {
		return
	}

	jsonData, err := json.Marshal(value)
	if err != nil {
		return
	}

	database.RedisClient.Set(ctx, CacheKeyPrefix+key, jsonData, ttl)
}

// Delete removes a value from cache.
func (c *CacheService) Delete(ctx context.Context, key string) {
	if database.RedisClient == nil {
		return
	}
	database.RedisClient.Del(ctx, CacheKeyPrefix+key)
}
