package search

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/museumlab/artsearch/internal/domain/artwork"
	"github.com/museumlab/artsearch/internal/domain/search/request"
	"github.com/museumlab/artsearch/internal/domain/search/result"
	"github.com/museumlab/artsearch/internal/domain/search/source"
	"github.com/museumlab/artsearch/internal/metrics"
)

// Metadata affinity component weights; they sum to 1 so affinity stays in
// [0,1] and is comparable across candidates.
const (
	affArtist         = 0.30
	affClassification = 0.15
	affDepartment     = 0.10
	affNationality    = 0.05
	affMedium         = 0.10
	affDate           = 0.20
	affDimensions     = 0.10

	// dateDecayScaleYears is the Gaussian half-weight distance: a 25-year
	// gap scores exactly half of an exact-year match.
	dateDecayScaleYears = 25.0

	// metadataCandidateFactor over-fetches structural candidates because
	// affinity re-ranking reorders them.
	metadataCandidateFactor = 3
)

// FindSimilar returns artworks similar to a seed, fusing per-model vector
// neighborhoods with a metadata-affinity pseudo-list. The seed itself never
// appears in the output.
func (s *Service) FindSimilar(ctx context.Context, req *request.SimilarRequest) (result.FusionResult, error) {
	seed, err := s.store.GetArtwork(ctx, req.ArtworkID())
	if err != nil {
		return result.FusionResult{}, fmt.Errorf("get seed artwork: %w", err)
	}

	// One extra slot: the seed ranks first in its own neighborhood and is
	// dropped afterwards.
	fetch := req.Size() + 1

	models := req.Models()
	semLists := make([]result.RankedList, len(models))
	var metaList result.RankedList

	g := new(errgroup.Group)
	for i, m := range models {
		i, m := i, m
		src := source.Semantic(m)
		g.Go(func() error {
			vec, ok := seed.Embedding(m)
			if !ok {
				s.log.Warn("seed artwork has no vector for model",
					zap.String("artwork_id", seed.ID()), zap.String("model", m))
				semLists[i] = result.NewRankedList(src, nil)
				return nil
			}
			semLists[i] = s.runListQuery(ctx, src, func(bctx context.Context) (result.RankedList, error) {
				return s.store.VectorSearch(bctx, m, vec, fetch, fetch*s.opts.CandidateMultiplier)
			})
			return nil
		})
	}
	g.Go(func() error {
		metaList = s.metadataList(ctx, seed, fetch)
		return nil
	})
	_ = g.Wait() // branches never return errors; they degrade

	metaWeight := s.opts.MetadataWeight
	if w, ok := req.Weight(request.MetadataWeightKey); ok {
		metaWeight = w
	}
	modelShare := 0.0
	if len(models) > 0 {
		modelShare = math.Max(0, 1-metaWeight) / float64(len(models))
	}

	lists := make([]weightedList, 0, len(models)+1)
	for i, m := range models {
		w := modelShare
		if ow, ok := req.Weight(m); ok {
			w = ow
		}
		src := source.Semantic(m)
		sem := applyThreshold(semLists[i].WithoutID(seed.ID()), s.table.Threshold(src)*s.table.HybridRelax())
		lists = append(lists, weightedList{list: sem, weight: w})
	}
	lists = append(lists, weightedList{list: metaList.WithoutID(seed.ID()), weight: metaWeight})

	// No balance slider here; pin the RRF constant at its center value.
	rrfK := s.table.DeriveWeights(0.5, nil).RRFK()

	metrics.FusionCandidates.WithLabelValues("similar").Observe(float64(candidateCount(lists)))
	return fuseRRF(lists, rrfK, req.Size()), nil
}

// metadataList fetches structural candidates and re-ranks them by metadata
// affinity to the seed. Store failure degrades to an empty list.
func (s *Service) metadataList(ctx context.Context, seed artwork.Artwork, limit int) result.RankedList {
	src := source.Metadata()

	bctx, cancel := context.WithTimeout(ctx, s.opts.BranchTimeout)
	defer cancel()

	cands, err := s.store.MetadataSearch(bctx, seed, limit*metadataCandidateFactor)
	if err != nil {
		s.log.Warn("metadata subquery degraded to empty list",
			zap.String("artwork_id", seed.ID()), zap.Error(err))
		metrics.SearchDegradedTotal.WithLabelValues(src.Key()).Inc()
		return result.NewRankedList(src, nil)
	}

	scored := make([]result.Hit, 0, len(cands))
	for _, h := range cands {
		if h.ID() == seed.ID() {
			continue
		}
		cand := h.Artwork()
		aff := metadataAffinity(seed, cand)
		if aff <= 0 {
			continue
		}
		scored = append(scored, result.NewHit(h.ID(), aff, cand))
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score() != scored[j].Score() {
			return scored[i].Score() > scored[j].Score()
		}
		return scored[i].ID() < scored[j].ID()
	})
	if len(scored) > limit {
		scored = scored[:limit]
	}

	return result.NewRankedList(src, scored)
}

// metadataAffinity scores how structurally close a candidate is to the seed.
func metadataAffinity(seed, cand artwork.Artwork) float64 {
	var aff float64
	if fieldsMatch(seed.Artist(), cand.Artist()) {
		aff += affArtist
	}
	if fieldsMatch(seed.Classification(), cand.Classification()) {
		aff += affClassification
	}
	if fieldsMatch(seed.Department(), cand.Department()) {
		aff += affDepartment
	}
	if fieldsMatch(seed.Nationality(), cand.Nationality()) {
		aff += affNationality
	}
	aff += affMedium * tokenOverlap(seed.Medium(), cand.Medium())
	aff += affDate * dateDecay(seed.Year(), cand.Year())
	aff += affDimensions * dimensionCloseness(seed, cand)
	return aff
}

// dateDecay is a Gaussian over the year gap: full weight for close dates,
// exactly half at a 25-year offset, approaching zero beyond. Unknown years
// contribute nothing.
func dateDecay(seedYear, candYear int) float64 {
	if seedYear == 0 || candYear == 0 {
		return 0
	}
	d := float64(seedYear-candYear) / dateDecayScaleYears
	return math.Pow(0.5, d*d)
}

// fieldsMatch compares two catalogue fields, ignoring case; empty fields
// never match.
func fieldsMatch(a, b string) bool {
	return a != "" && strings.EqualFold(a, b)
}

// tokenOverlap is the Jaccard similarity of the lowercase word sets of two
// free-text fields.
func tokenOverlap(a, b string) float64 {
	ta, tb := tokenize(a), tokenize(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	inter := 0
	for t := range ta {
		if _, ok := tb[t]; ok {
			inter++
		}
	}
	union := len(ta) + len(tb) - inter
	return float64(inter) / float64(union)
}

func tokenize(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, t := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	}) {
		out[t] = struct{}{}
	}
	return out
}

// dimensionCloseness compares canvas areas; 1 for identical, falling toward
// 0 as sizes diverge. Missing dimensions contribute nothing.
func dimensionCloseness(seed, cand artwork.Artwork) float64 {
	sa := seed.HeightCM() * seed.WidthCM()
	ca := cand.HeightCM() * cand.WidthCM()
	if sa <= 0 || ca <= 0 {
		return 0
	}
	if sa < ca {
		return sa / ca
	}
	return ca / sa
}
