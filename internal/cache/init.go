package cache

import (
	"encoding/json"

	"github.com/localpulse/localpulse/internal/config"
	"github.com/localpulse/localpulse/internal/logger"
)

type CacheType string

const (
	CacheTypeInMemory CacheType = "inmemory"
	CacheTypeRedis    CacheType = "redis"
)

// Initialize selects the cache backend from configuration.
func Initialize(cfg *config.Configuration, log *logger.Logger) Cache {
	switch CacheType(cfg.Cache.Type) {
	case CacheTypeRedis:
		log.Infow("using redis cache", "addr", cfg.Cache.Redis.Addr)
		return NewRedisCache(cfg, log)
	default:
		log.Infow("using in-memory cache")
		return NewInMemoryCache()
	}
}

// UnmarshalCacheValue converts a cached value to the requested type. It
// handles both the in-memory backend (stores live objects) and the Redis
// backend (stores JSON strings).
func UnmarshalCacheValue[T any](value interface{}) (*T, bool) {
	if value == nil {
		return nil, false
	}
	if typed, ok := value.(*T); ok {
		return typed, true
	}
	if str, ok := value.(string); ok {
		var result T
		if err := json.Unmarshal([]byte(str), &result); err == nil {
			return &result, true
		}
	}
	return nil, false
}
