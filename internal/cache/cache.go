package cache

import (
	"context"
	"time"
)

// Cache is the minimal cache contract the billing guard uses to keep status
// lookups off the store's hot path.
type Cache interface {
	Get(ctx context.Context, key string) (interface{}, bool)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration)
	Delete(ctx context.Context, key string)
}
