package modal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/museumlab/artsearch/internal/domain"
)

func newTestEmbedder(url string) *Embedder {
	return NewEmbedder(&Config{BaseURL: url, APIKey: "test-key", Logger: zap.NewNop()})
}

func TestEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embed" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header: %q", got)
		}

		var req embedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Text != "starry night" || len(req.Models) != 2 {
			t.Errorf("unexpected payload: %+v", req)
		}

		_ = json.NewEncoder(w).Encode(embedResponse{
			Embeddings: map[string][]float32{
				"jina_v3": {0.1, 0.2},
				"siglip2": {0.3, 0.4},
			},
		})
	}))
	defer srv.Close()

	set, err := newTestEmbedder(srv.URL).Embed(context.Background(), "starry night", []string{"jina_v3", "siglip2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	vec, ok := set.Vector("jina_v3")
	if !ok || len(vec) != 2 || vec[0] != 0.1 {
		t.Errorf("unexpected jina vector: %v ok=%v", vec, ok)
	}
	if _, ok := set.Vector("siglip2"); !ok {
		t.Error("expected siglip2 vector")
	}
}

func TestEmbed_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestEmbedder(srv.URL).Embed(context.Background(), "q", []string{"jina_v3"})
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Errorf("expected ErrEmbeddingProviderError, got %v", err)
	}
}

func TestEmbed_EmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(embedResponse{})
	}))
	defer srv.Close()

	_, err := newTestEmbedder(srv.URL).Embed(context.Background(), "q", []string{"jina_v3"})
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Errorf("expected ErrEmbeddingProviderError, got %v", err)
	}
}

func TestHealthCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if err := newTestEmbedder(srv.URL).HealthCheck(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestHealthCheck_Unhealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	if err := newTestEmbedder(srv.URL).HealthCheck(context.Background()); err == nil {
		t.Error("expected error for unhealthy service")
	}
}
