package embcache

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/museumlab/artsearch/internal/cache"
	"github.com/museumlab/artsearch/internal/domain"
)

type fakeEmbedder struct {
	calls  int
	models [][]string
	err    error
}

func (f *fakeEmbedder) Embed(_ context.Context, _ string, models []string) (domain.EmbeddingSet, error) {
	f.calls++
	f.models = append(f.models, models)
	if f.err != nil {
		return domain.EmbeddingSet{}, f.err
	}
	vecs := make(map[string][]float32, len(models))
	for i, m := range models {
		vecs[m] = []float32{float32(i + 1), 0}
	}
	return domain.NewEmbeddingSet(vecs), nil
}

func newCached(inner domain.Embedder) *CachedEmbedder {
	return New(inner, cache.NewLRU(16, time.Minute), time.Minute, nil, zap.NewNop())
}

func TestEmbed_CachesPerModel(t *testing.T) {
	inner := &fakeEmbedder{}
	c := newCached(inner)
	ctx := context.Background()

	first, err := c.Embed(ctx, "sunflowers", []string{"jina_v3", "siglip2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("expected one inner call, got %d", inner.calls)
	}

	second, err := c.Embed(ctx, "sunflowers", []string{"jina_v3", "siglip2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("warm cache must not call the inner embedder, got %d calls", inner.calls)
	}

	for _, m := range []string{"jina_v3", "siglip2"} {
		a, _ := first.Vector(m)
		b, ok := second.Vector(m)
		if !ok || !reflect.DeepEqual(a, b) {
			t.Errorf("model %s: cached vector differs: %v vs %v", m, a, b)
		}
	}
}

func TestEmbed_FetchesOnlyMissingModels(t *testing.T) {
	inner := &fakeEmbedder{}
	c := newCached(inner)
	ctx := context.Background()

	if _, err := c.Embed(ctx, "sunflowers", []string{"jina_v3"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := c.Embed(ctx, "sunflowers", []string{"jina_v3", "siglip2"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if inner.calls != 2 {
		t.Fatalf("expected two inner calls, got %d", inner.calls)
	}
	if !reflect.DeepEqual(inner.models[1], []string{"siglip2"}) {
		t.Errorf("second call must fetch only the cold model, got %v", inner.models[1])
	}
}

func TestEmbed_DifferentQueriesDoNotCollide(t *testing.T) {
	inner := &fakeEmbedder{}
	c := newCached(inner)
	ctx := context.Background()

	if _, err := c.Embed(ctx, "sunflowers", []string{"jina_v3"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := c.Embed(ctx, "water lilies", []string{"jina_v3"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 2 {
		t.Errorf("distinct queries must miss, got %d inner calls", inner.calls)
	}
}

func TestEmbed_NormalizesQueryForCaching(t *testing.T) {
	inner := &fakeEmbedder{}
	c := newCached(inner)
	ctx := context.Background()

	first, err := c.Embed(ctx, "Monet ", []string{"jina_v3"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Case and whitespace variants of the same query share one entry.
	second, err := c.Embed(ctx, "monet", []string{"jina_v3"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("normalized variants must hit the cache, got %d inner calls", inner.calls)
	}
	a, _ := first.Vector("jina_v3")
	b, ok := second.Vector("jina_v3")
	if !ok || !reflect.DeepEqual(a, b) {
		t.Errorf("cached vector differs across variants: %v vs %v", a, b)
	}
}

func TestEmbed_ProviderOutageServesCachedSubset(t *testing.T) {
	inner := &fakeEmbedder{}
	c := newCached(inner)
	ctx := context.Background()

	if _, err := c.Embed(ctx, "sunflowers", []string{"jina_v3"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	inner.err = errors.New("provider down")
	set, err := c.Embed(ctx, "sunflowers", []string{"jina_v3", "siglip2"})
	if err != nil {
		t.Fatalf("warm subset must be served despite outage: %v", err)
	}
	if _, ok := set.Vector("jina_v3"); !ok {
		t.Error("cached model must be present")
	}
	if _, ok := set.Vector("siglip2"); ok {
		t.Error("cold model must be absent during an outage")
	}
}

func TestEmbed_ColdCacheOutagePropagates(t *testing.T) {
	inner := &fakeEmbedder{err: errors.New("provider down")}
	c := newCached(inner)

	if _, err := c.Embed(context.Background(), "sunflowers", []string{"jina_v3"}); err == nil {
		t.Error("cold-cache outage must surface the provider error")
	}
}
