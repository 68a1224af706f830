// Package embcache decorates an embedder with a per-model query cache.
package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/museumlab/artsearch/internal/cache"
	"github.com/museumlab/artsearch/internal/domain"
)

const cacheKeyPrefix = "emb_cache:"

// CachedEmbedder caches query vectors per model. A provider outage with a
// partially warm cache returns the cached subset instead of failing.
type CachedEmbedder struct {
	inner      domain.Embedder
	cache      cache.Cache
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed
// explicitly.
func New(
	inner domain.Embedder,
	c cache.Cache,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedEmbedder {
	return &CachedEmbedder{
		inner:      inner,
		cache:      c,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Embed returns cached vectors where possible and calls the inner embedder
// only for the missing models.
func (c *CachedEmbedder) Embed(ctx context.Context, query string, models []string) (domain.EmbeddingSet, error) {
	vectors := make(map[string][]float32, len(models))
	missing := make([]string, 0, len(models))

	for _, m := range models {
		if vec, ok := c.getFromCache(ctx, cacheKey(m, query)); ok {
			c.incCache("hit")
			vectors[m] = vec
			continue
		}
		c.incCache("miss")
		missing = append(missing, m)
	}

	if len(missing) == 0 {
		return domain.NewEmbeddingSet(vectors), nil
	}

	set, err := c.inner.Embed(ctx, query, missing)
	if err != nil {
		if len(vectors) > 0 {
			c.logger.Warn("embedding provider failed, serving cached subset",
				zap.Strings("missing", missing), zap.Error(err))
			return domain.NewEmbeddingSet(vectors), nil
		}
		return domain.EmbeddingSet{}, fmt.Errorf("embed query: %w", err)
	}

	for _, m := range missing {
		vec, ok := set.Vector(m)
		if !ok {
			continue
		}
		vectors[m] = vec
		c.cache.Set(ctx, cacheKey(m, query), vectorToBytes(vec), c.ttl)
	}

	return domain.NewEmbeddingSet(vectors), nil
}

func (c *CachedEmbedder) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *CachedEmbedder) getFromCache(ctx context.Context, key string) ([]float32, bool) {
	data, ok := c.cache.Get(ctx, key)
	if !ok {
		return nil, false
	}

	vec, err := bytesToVector(data)
	if err != nil {
		c.logger.Warn("failed to parse cached embedding", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return vec, true
}

// cacheKey hashes model and normalized query together so the same query
// text never collides across models. Case and surrounding whitespace do not
// change an embedding enough to warrant separate entries.
func cacheKey(model, query string) string {
	normalized := strings.ToLower(strings.TrimSpace(query))
	h := sha256.Sum256([]byte(model + "|" + normalized))
	return cacheKeyPrefix + hex.EncodeToString(h[:])
}

func vectorToBytes(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func bytesToVector(data []byte) ([]float32, error) {
	if len(data) == 0 || len(data)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding cache data: len=%d", len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}
