package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/localpulse/localpulse/internal/config"
	"github.com/localpulse/localpulse/internal/logger"

	"github.com/redis/go-redis/v9"
)

// RedisCache backs the cache with Redis for multi-instance deployments.
// Values are stored as JSON strings.
type RedisCache struct {
	client *redis.Client
	log    *logger.Logger
}

func NewRedisCache(cfg *config.Configuration, log *logger.Logger) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
	})
	return &RedisCache{client: client, log: log}
}

func (c *RedisCache) Get(ctx context.Context, key string) (interface{}, bool) {
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			c.log.Warnw("redis get failed", "key", key, "error", err)
		}
		return nil, false
	}
	return val, true
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		c.log.Warnw("failed to marshal cache value", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, string(data), ttl).Err(); err != nil {
		c.log.Warnw("redis set failed", "key", key, "error", err)
	}
}

func (c *RedisCache) Delete(ctx context.Context, key string) {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.log.Warnw("redis delete failed", "key", key, "error", err)
	}
}
