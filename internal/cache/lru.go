package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// LRU is an in-process expiring LRU cache. Entry TTL is fixed at
// construction; per-call TTLs are ignored.
type LRU struct {
	inner *expirable.LRU[string, []byte]
}

// NewLRU creates an in-process cache holding up to size entries for ttl.
func NewLRU(size int, ttl time.Duration) *LRU {
	return &LRU{inner: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

// Get returns the cached value and whether it was present.
func (c *LRU) Get(_ context.Context, key string) ([]byte, bool) {
	return c.inner.Get(key)
}

// Set stores a value. The construction-time TTL applies.
func (c *LRU) Set(_ context.Context, key string, value []byte, _ time.Duration) {
	c.inner.Add(key, value)
}
