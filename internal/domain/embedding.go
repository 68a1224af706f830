package domain

import "context"

// Embedder vectorizes a query for a set of embedding models.
// Providers that serve several models from one upstream call (the unified
// Modal endpoint) return them all in a single EmbeddingSet; per-model
// providers are fanned out behind the same contract.
type Embedder interface {
	Embed(ctx context.Context, query string, models []string) (EmbeddingSet, error)
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingSet holds the vectors produced for one query, keyed by model.
// A model the provider could not serve is simply absent: "no embedding for
// this model" is routine, not an error.
type EmbeddingSet struct {
	vectors map[string][]float32
}

// NewEmbeddingSet creates an embedding set from a model->vector map.
func NewEmbeddingSet(vectors map[string][]float32) EmbeddingSet {
	return EmbeddingSet{vectors: vectors}
}

// Vector returns the vector for a model, reporting whether it is present.
func (s EmbeddingSet) Vector(model string) ([]float32, bool) {
	v, ok := s.vectors[model]
	return v, ok
}

// Models returns the model keys present in the set.
func (s EmbeddingSet) Models() []string {
	keys := make([]string, 0, len(s.vectors))
	for k := range s.vectors {
		keys = append(keys, k)
	}
	return keys
}

// Len returns the number of vectors in the set.
func (s EmbeddingSet) Len() int { return len(s.vectors) }

// Merge combines two sets; vectors in other win on key collision.
func (s EmbeddingSet) Merge(other EmbeddingSet) EmbeddingSet {
	merged := make(map[string][]float32, len(s.vectors)+len(other.vectors))
	for k, v := range s.vectors {
		merged[k] = v
	}
	for k, v := range other.vectors {
		merged[k] = v
	}
	return EmbeddingSet{vectors: merged}
}
