package request

import (
	"errors"
	"strings"
	"testing"

	"github.com/museumlab/artsearch/internal/domain"
	"github.com/museumlab/artsearch/internal/domain/search/mode"
)

func TestNew_Defaults(t *testing.T) {
	r, err := New("sunflowers", true, []string{"jina_v3"}, true, 0.5, "", false, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Size() != DefaultSize {
		t.Errorf("expected default size %d, got %d", DefaultSize, r.Size())
	}
	if r.HybridMode() != mode.Both {
		t.Errorf("expected default hybrid mode both, got %s", r.HybridMode())
	}
}

func TestNew_EmptyQuery(t *testing.T) {
	_, err := New("", true, nil, false, 0, "", false, 10)
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestNew_NoSearchTypes(t *testing.T) {
	_, err := New("sunflowers", false, nil, false, 0, "", false, 10)
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestNew_HybridWithoutModels(t *testing.T) {
	_, err := New("sunflowers", true, nil, true, 0.5, "", false, 10)
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestNew_BalanceRange(t *testing.T) {
	for _, b := range []float64{-0.1, 1.1} {
		_, err := New("q", false, []string{"jina_v3"}, true, b, "", false, 10)
		if !errors.Is(err, domain.ErrInvalidRequest) {
			t.Errorf("balance=%f: expected ErrInvalidRequest, got %v", b, err)
		}
	}
	for _, b := range []float64{0, 0.5, 1} {
		if _, err := New("q", false, []string{"jina_v3"}, true, b, "", false, 10); err != nil {
			t.Errorf("balance=%f: unexpected error: %v", b, err)
		}
	}
}

func TestNew_QueryTooLong(t *testing.T) {
	_, err := New(strings.Repeat("a", MaxQueryLength+1), true, nil, false, 0, "", false, 10)
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestNew_SizeClamped(t *testing.T) {
	r, err := New("q", true, nil, false, 0, "", false, MaxSize+50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Size() != MaxSize {
		t.Errorf("expected size clamped to %d, got %d", MaxSize, r.Size())
	}
}

func TestNewSimilar_Validation(t *testing.T) {
	if _, err := NewSimilar("", []string{"jina_v3"}, 10, nil); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("empty id: expected ErrInvalidRequest, got %v", err)
	}
	if _, err := NewSimilar("moma-1", nil, 10, nil); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("no models: expected ErrInvalidRequest, got %v", err)
	}
	if _, err := NewSimilar("moma-1", []string{"jina_v3"}, 10, map[string]float64{"metadata": -1}); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("negative weight: expected ErrInvalidRequest, got %v", err)
	}
}

func TestNewSimilar_WeightLookup(t *testing.T) {
	r, err := NewSimilar("moma-1", []string{"jina_v3"}, 10, map[string]float64{MetadataWeightKey: 0.3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w, ok := r.Weight(MetadataWeightKey); !ok || w != 0.3 {
		t.Errorf("expected metadata weight 0.3, got %f ok=%v", w, ok)
	}
	if _, ok := r.Weight("jina_v3"); ok {
		t.Error("unset weight should report ok=false")
	}
}
