// Package modal is the client for the self-hosted embedding service that
// serves the text and image models from a single endpoint.
package modal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/museumlab/artsearch/internal/domain"
	"github.com/museumlab/artsearch/internal/metrics"
)

const providerName = "modal"

// Config holds the embedding service settings.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Logger  *zap.Logger
}

// Embedder calls the unified embedding endpoint. One POST returns vectors
// for every requested model.
type Embedder struct {
	client  *http.Client
	baseURL string
	apiKey  string
	logger  *zap.Logger
}

// NewEmbedder creates a client for the unified embedding service.
func NewEmbedder(cfg *Config) *Embedder {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Embedder{
		client:  &http.Client{Timeout: timeout},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		logger:  cfg.Logger,
	}
}

type embedRequest struct {
	Text   string   `json:"text"`
	Models []string `json:"models"`
}

type embedResponse struct {
	Embeddings map[string][]float32 `json:"embeddings"`
}

// Embed implements domain.Embedder.
func (e *Embedder) Embed(ctx context.Context, query string, models []string) (domain.EmbeddingSet, error) {
	body, err := json.Marshal(embedRequest{Text: query, Models: models})
	if err != nil {
		return domain.EmbeddingSet{}, fmt.Errorf("marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embed", bytes.NewReader(body))
	if err != nil {
		return domain.EmbeddingSet{}, fmt.Errorf("build embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	start := time.Now()
	resp, err := e.client.Do(req)
	duration := time.Since(start)

	if err != nil {
		e.recordError(models, "transport_error")
		return domain.EmbeddingSet{}, fmt.Errorf("embedding request failed: %w: %w",
			err, domain.ErrEmbeddingProviderError)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		e.recordError(models, "api_error")
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.EmbeddingSet{}, fmt.Errorf("embedding API error %d: %s: %w",
			resp.StatusCode, string(detail), domain.ErrEmbeddingProviderError)
	}

	var parsed embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		e.recordError(models, "decode_error")
		return domain.EmbeddingSet{}, fmt.Errorf("decode embedding response: %w: %w",
			err, domain.ErrEmbeddingProviderError)
	}
	if len(parsed.Embeddings) == 0 {
		e.recordError(models, "empty_response")
		return domain.EmbeddingSet{}, fmt.Errorf("empty embedding response: %w",
			domain.ErrEmbeddingProviderError)
	}

	for _, m := range models {
		metrics.EmbeddingRequestsTotal.WithLabelValues(providerName, m, "success").Inc()
		metrics.EmbeddingRequestDuration.WithLabelValues(providerName, m).Observe(duration.Seconds())
	}

	return domain.NewEmbeddingSet(parsed.Embeddings), nil
}

// HealthCheck probes the service health endpoint.
func (e *Embedder) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("build health request: %w", err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("embedding service health: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("embedding service health: status %d", resp.StatusCode)
	}
	return nil
}

func (e *Embedder) recordError(models []string, errType string) {
	for _, m := range models {
		metrics.EmbeddingRequestsTotal.WithLabelValues(providerName, m, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(providerName, m, errType).Inc()
	}
}
