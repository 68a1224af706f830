package search

import (
	"context"

	"github.com/museumlab/artsearch/internal/domain"
	"github.com/museumlab/artsearch/internal/domain/artwork"
	"github.com/museumlab/artsearch/internal/domain/search/result"
)

// Model modality keys used to select hybrid participants.
const (
	ModalityText  = "text"
	ModalityImage = "image"
)

// Store defines the index contract for search operations. Read-only: the
// search core never mutates the store.
type Store interface {
	// KeywordSearch runs a BM25 query over the text fields;
	// includeDescriptions widens the field set with the AI visual
	// descriptions.
	KeywordSearch(ctx context.Context, query string, includeDescriptions bool, size int) (result.RankedList, error)

	// VectorSearch runs kNN over one model's vector field.
	VectorSearch(ctx context.Context, model string, vector []float32, k, numCandidates int) (result.RankedList, error)

	// MetadataSearch returns candidate artworks structurally related to the
	// seed (same artist, classification, department, nearby date). Scores
	// are engine-native recall scores; callers re-rank.
	MetadataSearch(ctx context.Context, seed artwork.Artwork, size int) ([]result.Hit, error)

	// GetArtwork fetches one artwork by id, including its stored vectors.
	GetArtwork(ctx context.Context, id string) (artwork.Artwork, error)
}

// Embedder vectorizes query text for a set of models.
type Embedder interface {
	Embed(ctx context.Context, query string, models []string) (domain.EmbeddingSet, error)
}
