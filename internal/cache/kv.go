package cache

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/museumlab/artsearch/internal/db"
)

// kvStore is the consumer interface for the shared key-value store.
type kvStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// KV caches values in the shared key-value store so entries survive process
// restarts and are shared across replicas.
type KV struct {
	store  kvStore
	logger *zap.Logger
}

// NewKV creates a store-backed cache.
func NewKV(s kvStore, logger *zap.Logger) *KV {
	return &KV{store: s, logger: logger}
}

// Get returns the cached value; store failures degrade to a miss.
func (c *KV) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	if len(data) == 0 {
		return nil, false
	}
	return data, true
}

// Set stores a value with the given TTL; failures are logged and dropped.
func (c *KV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := c.store.SetWithTTL(ctx, key, value, ttl); err != nil {
		c.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}
