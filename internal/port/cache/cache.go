// Package cache defines the port interface for caching retrieval results.
package cache

import (
	"context"
	"time"
)

// Cache is the port interface for key-value caching. The context service
// uses it to memoize context retrieval results per provider and query.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
