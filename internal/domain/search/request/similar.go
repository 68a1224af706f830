package request

import (
	"fmt"

	"github.com/museumlab/artsearch/internal/domain"
)

// MetadataWeightKey addresses the metadata pseudo-list in a weights map.
const MetadataWeightKey = "metadata"

// SimilarRequest is a validated "find similar artworks" query.
type SimilarRequest struct {
	artworkID string
	models    []string
	size      int
	weights   map[string]float64
}

// NewSimilar validates and normalizes similar-search parameters.
// weights may override the per-source fusion shares, keyed by model key or
// "metadata"; nil means the default equal split.
func NewSimilar(
	artworkID string,
	models []string,
	size int,
	weights map[string]float64,
) (SimilarRequest, error) {
	if artworkID == "" {
		return SimilarRequest{}, fmt.Errorf("%w: artwork id is required", domain.ErrInvalidRequest)
	}
	if len(models) == 0 {
		return SimilarRequest{}, fmt.Errorf("%w: at least one model is required", domain.ErrInvalidRequest)
	}
	for k, w := range weights {
		if w < 0 {
			return SimilarRequest{}, fmt.Errorf("%w: weight for %q must be non-negative", domain.ErrInvalidRequest, k)
		}
	}
	if size <= 0 {
		size = DefaultSize
	}
	if size > MaxSize {
		size = MaxSize
	}

	return SimilarRequest{
		artworkID: artworkID,
		models:    models,
		size:      size,
		weights:   weights,
	}, nil
}

// ArtworkID returns the seed artwork identifier.
func (r *SimilarRequest) ArtworkID() string { return r.artworkID }

// Models returns the embedding model keys to blend.
func (r *SimilarRequest) Models() []string { return r.models }

// Size returns the maximum results to return.
func (r *SimilarRequest) Size() int { return r.size }

// Weight returns the caller-supplied share for a source key, reporting
// whether one was given.
func (r *SimilarRequest) Weight(key string) (float64, bool) {
	w, ok := r.weights[key]
	return w, ok
}
