// Package cache provides a byte-value cache with TTL, backed either by an
// in-process LRU or by the shared key-value store.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values under string keys. Implementations treat
// storage failures as misses; a cache must never fail a request.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
}
