package search

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/museumlab/artsearch/internal/domain"
	"github.com/museumlab/artsearch/internal/domain/artwork"
	"github.com/museumlab/artsearch/internal/domain/calibration"
	"github.com/museumlab/artsearch/internal/domain/search/mode"
	"github.com/museumlab/artsearch/internal/domain/search/request"
	"github.com/museumlab/artsearch/internal/domain/search/result"
	"github.com/museumlab/artsearch/internal/domain/search/source"
	"github.com/museumlab/artsearch/internal/metrics"
)

// Options tunes the orchestrator.
type Options struct {
	// BranchTimeout bounds each store sub-query independently.
	BranchTimeout time.Duration
	// CandidateMultiplier sets kNN numCandidates = k * multiplier.
	CandidateMultiplier int
	// MetadataWeight is the default fusion share of the metadata
	// pseudo-list in similarity search.
	MetadataWeight float64
}

// Option defaults.
const (
	DefaultBranchTimeout       = 5 * time.Second
	DefaultCandidateMultiplier = 4
	DefaultMetadataWeight      = 0.3
)

func (o Options) withDefaults() Options {
	if o.BranchTimeout <= 0 {
		o.BranchTimeout = DefaultBranchTimeout
	}
	if o.CandidateMultiplier <= 0 {
		o.CandidateMultiplier = DefaultCandidateMultiplier
	}
	if o.MetadataWeight <= 0 {
		o.MetadataWeight = DefaultMetadataWeight
	}
	return o
}

// Response bundles the parallel result lists of one search request for
// comparison-view callers. Standalone lists carry raw engine scores; only
// the hybrid list went through threshold filtering and fusion.
type Response struct {
	Keyword  *result.RankedList
	Semantic map[string]result.RankedList
	Hybrid   *result.FusionResult
}

// Service orchestrates keyword, semantic, and hybrid artwork search.
// Sub-queries degrade to empty lists on failure; only invalid requests and
// missing seed artworks surface as errors.
type Service struct {
	store    Store
	embed    Embedder
	table    calibration.Table
	modality map[string]string
	opts     Options
	log      *zap.Logger
}

// New creates a search service. modality maps model keys to "text" or
// "image" and drives hybrid-mode participant selection.
func New(
	store Store,
	embed Embedder,
	table calibration.Table,
	modality map[string]string,
	opts Options,
	log *zap.Logger,
) *Service {
	return &Service{
		store:    store,
		embed:    embed,
		table:    table,
		modality: modality,
		opts:     opts.withDefaults(),
		log:      log,
	}
}

// Search runs the enabled search types concurrently and returns their lists.
// All sub-queries complete (or degrade) before fusion starts.
func (s *Service) Search(ctx context.Context, req *request.Request) (*Response, error) {
	hybridModels := s.hybridModels(req)
	embedModels := unionModels(req.Models(), hybridModels)

	set := s.embedQuery(ctx, req.Query(), embedModels)

	// Hybrid fusion drops the keyword list at the semantic extreme, so the
	// keyword sub-query only runs when something will consume it.
	needKeyword := req.Keyword() ||
		(req.Hybrid() && req.Balance() < calibration.SemanticBypass)

	var keywordList result.RankedList
	semLists := make([]result.RankedList, len(embedModels))

	g := new(errgroup.Group)
	if needKeyword {
		g.Go(func() error {
			keywordList = s.runListQuery(ctx, source.Keyword(), func(bctx context.Context) (result.RankedList, error) {
				return s.store.KeywordSearch(bctx, req.Query(), req.IncludeDescriptions(), req.Size())
			})
			return nil
		})
	}
	for i, m := range embedModels {
		i, m := i, m
		src := source.Semantic(m)
		g.Go(func() error {
			vec, ok := set.Vector(m)
			if !ok {
				semLists[i] = result.NewRankedList(src, nil)
				return nil
			}
			semLists[i] = s.runListQuery(ctx, src, func(bctx context.Context) (result.RankedList, error) {
				k := req.Size()
				return s.store.VectorSearch(bctx, m, vec, k, k*s.opts.CandidateMultiplier)
			})
			return nil
		})
	}
	_ = g.Wait() // branches never return errors; they degrade

	semantic := make(map[string]result.RankedList, len(embedModels))
	for i, m := range embedModels {
		semantic[m] = semLists[i]
	}

	resp := &Response{}
	if req.Keyword() {
		kw := keywordList
		resp.Keyword = &kw
	}
	if len(req.Models()) > 0 {
		resp.Semantic = make(map[string]result.RankedList, len(req.Models()))
		for _, m := range req.Models() {
			resp.Semantic[m] = semantic[m]
		}
	}
	if req.Hybrid() {
		fused := s.fuseHybrid(req, keywordList, semantic, hybridModels)
		resp.Hybrid = &fused
	}

	return resp, nil
}

// GetArtwork fetches a single artwork by id.
func (s *Service) GetArtwork(ctx context.Context, id string) (artwork.Artwork, error) {
	if id == "" {
		return artwork.Artwork{}, fmt.Errorf("%w: artwork id is required", domain.ErrInvalidRequest)
	}
	art, err := s.store.GetArtwork(ctx, id)
	if err != nil {
		return artwork.Artwork{}, fmt.Errorf("get artwork %q: %w", id, err)
	}
	return art, nil
}

// fuseHybrid applies thresholds, derives weights from the balance slider,
// and fuses. Extreme balances bypass fusion entirely and return the pure
// single-signal list with its raw scores.
func (s *Service) fuseHybrid(
	req *request.Request,
	keyword result.RankedList,
	semantic map[string]result.RankedList,
	models []string,
) result.FusionResult {
	b := req.Balance()

	if b <= calibration.KeywordBypass {
		return listAsFusion(keyword, req.Size())
	}
	if b >= calibration.SemanticBypass && len(models) == 1 {
		return listAsFusion(semantic[models[0]], req.Size())
	}

	w := s.table.DeriveWeights(b, models)

	lists := make([]weightedList, 0, len(models)+1)
	if b < calibration.SemanticBypass {
		kw := applyThreshold(keyword, s.table.Threshold(source.Keyword()))
		lists = append(lists, weightedList{list: kw, weight: w.Keyword()})
	}
	for _, m := range models {
		src := source.Semantic(m)
		sem := applyThreshold(semantic[m], s.table.Threshold(src)*s.table.HybridRelax())
		lists = append(lists, weightedList{list: sem, weight: w.ModelWeight(m)})
	}

	metrics.FusionCandidates.WithLabelValues("search").Observe(float64(candidateCount(lists)))
	return fuseRRF(lists, w.RRFK(), req.Size())
}

// hybridModels selects which of the requested models participate in hybrid
// fusion, per the request's hybrid mode. An empty modality match falls back
// to all requested models rather than silencing the semantic side.
func (s *Service) hybridModels(req *request.Request) []string {
	if !req.Hybrid() {
		return nil
	}
	var want string
	switch req.HybridMode() {
	case mode.Text:
		want = ModalityText
	case mode.Image:
		want = ModalityImage
	default:
		return req.Models()
	}
	out := make([]string, 0, len(req.Models()))
	for _, m := range req.Models() {
		if s.modality[m] == want {
			out = append(out, m)
		}
	}
	if len(out) == 0 {
		return req.Models()
	}
	return out
}

// embedQuery vectorizes the query once for every model that needs it.
// Provider failure degrades to an empty set so keyword search still answers.
func (s *Service) embedQuery(ctx context.Context, query string, models []string) domain.EmbeddingSet {
	if len(models) == 0 {
		return domain.NewEmbeddingSet(nil)
	}
	bctx, cancel := context.WithTimeout(ctx, s.opts.BranchTimeout)
	defer cancel()

	set, err := s.embed.Embed(bctx, query, models)
	if err != nil {
		s.log.Warn("query embedding failed, semantic lists degrade to empty",
			zap.Strings("models", models), zap.Error(err))
		for _, m := range models {
			metrics.SearchDegradedTotal.WithLabelValues(source.Semantic(m).Key()).Inc()
		}
		return domain.NewEmbeddingSet(nil)
	}
	return set
}

// runListQuery executes one store sub-query with its own timeout. Failures
// degrade to an empty list for the source instead of failing the request.
func (s *Service) runListQuery(
	ctx context.Context,
	src source.Source,
	fn func(context.Context) (result.RankedList, error),
) result.RankedList {
	bctx, cancel := context.WithTimeout(ctx, s.opts.BranchTimeout)
	defer cancel()

	list, err := fn(bctx)
	if err != nil {
		s.log.Warn("subquery degraded to empty list",
			zap.String("source", src.Key()), zap.Error(err))
		metrics.SearchDegradedTotal.WithLabelValues(src.Key()).Inc()
		return result.NewRankedList(src, nil)
	}
	return list
}

// candidateCount sums the hits entering fusion across all lists.
func candidateCount(lists []weightedList) int {
	n := 0
	for _, wl := range lists {
		n += len(wl.list.Hits())
	}
	return n
}

// listAsFusion wraps a single ranked list as a fusion result, keeping the
// raw engine scores.
func listAsFusion(list result.RankedList, topK int) result.FusionResult {
	hits := list.Hits()
	if topK > 0 && len(hits) > topK {
		hits = hits[:topK]
	}
	key := list.Source().Key()
	fused := make([]result.FusedHit, 0, len(hits))
	for _, h := range hits {
		fused = append(fused, result.NewFusedHit(h, h.Score(), []string{key}))
	}
	return result.NewFusionResult(fused)
}

// unionModels merges model key slices preserving first-seen order.
func unionModels(groups ...[]string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, g := range groups {
		for _, m := range g {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			out = append(out, m)
		}
	}
	return out
}
