// Package embmux routes embedding requests to the provider registered for
// each model and merges the results.
package embmux

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/museumlab/artsearch/internal/domain"
)

// Router implements domain.Embedder over several providers. Each provider
// is called once per request with the subset of models it owns; provider
// failures degrade to absent vectors unless nothing could be embedded.
type Router struct {
	providers map[string]domain.Embedder // model key -> provider
	logger    *zap.Logger
}

// New creates an empty router.
func New(logger *zap.Logger) *Router {
	return &Router{providers: make(map[string]domain.Embedder), logger: logger}
}

// Register binds a provider to the models it serves.
func (r *Router) Register(p domain.Embedder, models ...string) {
	for _, m := range models {
		r.providers[m] = p
	}
}

// Models returns the model keys the router can embed for.
func (r *Router) Models() []string {
	keys := make([]string, 0, len(r.providers))
	for k := range r.providers {
		keys = append(keys, k)
	}
	return keys
}

// Embed fans out to the distinct providers behind the requested models.
func (r *Router) Embed(ctx context.Context, query string, models []string) (domain.EmbeddingSet, error) {
	// Group models by owning provider so a multi-model provider gets one
	// upstream call.
	groups := make(map[domain.Embedder][]string)
	for _, m := range models {
		p, ok := r.providers[m]
		if !ok {
			return domain.EmbeddingSet{}, fmt.Errorf("%w: %s", domain.ErrUnknownModel, m)
		}
		groups[p] = append(groups[p], m)
	}

	var (
		mu      sync.Mutex
		merged  = domain.NewEmbeddingSet(nil)
		lastErr error
	)

	g := new(errgroup.Group)
	for p, ms := range groups {
		p, ms := p, ms
		g.Go(func() error {
			set, err := p.Embed(ctx, query, ms)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				r.logger.Warn("embedding provider failed",
					zap.Strings("models", ms), zap.Error(err))
				lastErr = err
				return nil
			}
			merged = merged.Merge(set)
			return nil
		})
	}
	_ = g.Wait()

	if merged.Len() == 0 && lastErr != nil {
		return domain.EmbeddingSet{}, fmt.Errorf("all embedding providers failed: %w", lastErr)
	}
	return merged, nil
}
