package search

import (
	"context"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"go.uber.org/zap"

	"github.com/museumlab/artsearch/internal/domain"
	"github.com/museumlab/artsearch/internal/domain/artwork"
	"github.com/museumlab/artsearch/internal/domain/calibration"
	"github.com/museumlab/artsearch/internal/domain/search/result"
	"github.com/museumlab/artsearch/internal/domain/search/source"
	"github.com/museumlab/artsearch/internal/metrics"
)

// fakeStore implements Store with overridable behavior per test. Call
// counters are mutex-guarded because the orchestrator fans out concurrently.
type fakeStore struct {
	keywordFn  func(ctx context.Context, query string, includeDescs bool, size int) (result.RankedList, error)
	vectorFn   func(ctx context.Context, model string, vec []float32, k, numCandidates int) (result.RankedList, error)
	metadataFn func(ctx context.Context, seed artwork.Artwork, size int) ([]result.Hit, error)
	getFn      func(ctx context.Context, id string) (artwork.Artwork, error)

	mu           sync.Mutex
	keywordCalls int
	vectorModels []string
}

func (f *fakeStore) KeywordSearch(ctx context.Context, query string, includeDescs bool, size int) (result.RankedList, error) {
	f.mu.Lock()
	f.keywordCalls++
	f.mu.Unlock()
	if f.keywordFn == nil {
		return result.NewRankedList(source.Keyword(), nil), nil
	}
	return f.keywordFn(ctx, query, includeDescs, size)
}

func (f *fakeStore) VectorSearch(ctx context.Context, model string, vec []float32, k, numCandidates int) (result.RankedList, error) {
	f.mu.Lock()
	f.vectorModels = append(f.vectorModels, model)
	f.mu.Unlock()
	if f.vectorFn == nil {
		return result.NewRankedList(source.Semantic(model), nil), nil
	}
	return f.vectorFn(ctx, model, vec, k, numCandidates)
}

func (f *fakeStore) MetadataSearch(ctx context.Context, seed artwork.Artwork, size int) ([]result.Hit, error) {
	if f.metadataFn == nil {
		return nil, nil
	}
	return f.metadataFn(ctx, seed, size)
}

func (f *fakeStore) GetArtwork(ctx context.Context, id string) (artwork.Artwork, error) {
	if f.getFn == nil {
		return artwork.Artwork{}, domain.ErrArtworkNotFound
	}
	return f.getFn(ctx, id)
}

func (f *fakeStore) vectorCallsFor(model string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, m := range f.vectorModels {
		if m == model {
			n++
		}
	}
	return n
}

// fakeEmbedder implements Embedder.
type fakeEmbedder struct {
	embedFn func(ctx context.Context, query string, models []string) (domain.EmbeddingSet, error)

	mu    sync.Mutex
	calls int
}

func (f *fakeEmbedder) Embed(ctx context.Context, query string, models []string) (domain.EmbeddingSet, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.embedFn == nil {
		vecs := make(map[string][]float32, len(models))
		for _, m := range models {
			vecs[m] = []float32{1, 0, 0}
		}
		return domain.NewEmbeddingSet(vecs), nil
	}
	return f.embedFn(ctx, query, models)
}

var testModality = map[string]string{
	"jina_v3": ModalityText,
	"siglip2": ModalityImage,
}

func newTestService(store *fakeStore, embed *fakeEmbedder, table calibration.Table) *Service {
	return New(store, embed, table, testModality, Options{}, zap.NewNop())
}

func permissiveTable() calibration.Table {
	return calibration.NewTable(nil, 0, 0, 0)
}

// degradedCount reads the degraded-subquery counter for one source key.
// Tests compare deltas, so shared package-level metric state is harmless.
func degradedCount(src string) float64 {
	return testutil.ToFloat64(metrics.SearchDegradedTotal.WithLabelValues(src))
}

// fusionSampleCount reads how many fusions have been observed for a type.
func fusionSampleCount(t *testing.T, label string) uint64 {
	t.Helper()
	h, ok := metrics.FusionCandidates.WithLabelValues(label).(prometheus.Histogram)
	if !ok {
		t.Fatal("fusion candidates metric must be a histogram")
	}
	m := &dto.Metric{}
	if err := h.Write(m); err != nil {
		t.Fatalf("read histogram: %v", err)
	}
	return m.GetHistogram().GetSampleCount()
}

func listFor(src source.Source, idScores ...any) result.RankedList {
	hits := make([]result.Hit, 0, len(idScores)/2)
	for i := 0; i+1 < len(idScores); i += 2 {
		id := idScores[i].(string)
		score := idScores[i+1].(float64)
		hits = append(hits, result.NewHit(id, score, artwork.Artwork{}))
	}
	return result.NewRankedList(src, hits)
}
