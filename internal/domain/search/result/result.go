package result

import (
	"github.com/museumlab/artsearch/internal/domain/artwork"
	"github.com/museumlab/artsearch/internal/domain/search/source"
)

// Hit is a single retrieved artwork with its native engine score.
type Hit struct {
	id      string
	score   float64
	artwork artwork.Artwork
}

// NewHit creates a search hit.
func NewHit(id string, score float64, art artwork.Artwork) Hit {
	return Hit{id: id, score: score, artwork: art}
}

// ID returns the artwork identifier.
func (h Hit) ID() string { return h.id }

// Score returns the native score (BM25 or cosine similarity).
func (h Hit) Score() float64 { return h.score }

// Artwork returns the artwork payload.
func (h Hit) Artwork() artwork.Artwork { return h.artwork }

// RankedList is an ordered result list from one source; rank 0 is the best
// match. Fusion never mutates a list in place.
type RankedList struct {
	src  source.Source
	hits []Hit
}

// NewRankedList creates a ranked list for a source.
func NewRankedList(src source.Source, hits []Hit) RankedList {
	return RankedList{src: src, hits: hits}
}

// Source returns the list origin.
func (l RankedList) Source() source.Source { return l.src }

// Hits returns the ordered hits.
func (l RankedList) Hits() []Hit { return l.hits }

// Len returns the number of hits.
func (l RankedList) Len() int { return len(l.hits) }

// WithoutID returns a copy of the list with the given id removed, preserving
// order. Used to exclude the seed artwork from similarity results.
func (l RankedList) WithoutID(id string) RankedList {
	hits := make([]Hit, 0, len(l.hits))
	for _, h := range l.hits {
		if h.ID() != id {
			hits = append(hits, h)
		}
	}
	return RankedList{src: l.src, hits: hits}
}

// FusedHit is one artwork after rank fusion, carrying the accumulated score
// and the sources that contributed to it.
type FusedHit struct {
	hit     Hit
	fused   float64
	sources []string
}

// NewFusedHit creates a fused hit.
func NewFusedHit(hit Hit, fusedScore float64, sources []string) FusedHit {
	return FusedHit{hit: hit, fused: fusedScore, sources: sources}
}

// Hit returns the underlying hit (id, native score, artwork).
func (f FusedHit) Hit() Hit { return f.hit }

// FusedScore returns the accumulated RRF score. Only meaningful for relative
// ranking; it is not a probability and can exceed 1.
func (f FusedHit) FusedScore() float64 { return f.fused }

// Sources returns the source keys that contributed, sorted.
func (f FusedHit) Sources() []string { return f.sources }

// FusionResult is the ordered output of rank fusion.
type FusionResult struct {
	hits []FusedHit
}

// NewFusionResult creates a fusion result.
func NewFusionResult(hits []FusedHit) FusionResult {
	return FusionResult{hits: hits}
}

// Hits returns the ordered fused hits.
func (r FusionResult) Hits() []FusedHit { return r.hits }

// Total returns the number of fused hits.
func (r FusionResult) Total() int { return len(r.hits) }
