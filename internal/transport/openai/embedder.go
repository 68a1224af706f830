// Package openai is an embedding provider speaking the OpenAI-compatible
// embeddings API (Jina, Voyage, and similar hosted providers).
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/museumlab/artsearch/internal/domain"
	"github.com/museumlab/artsearch/internal/metrics"
)

// Embedder serves one model key via an OpenAI-compatible API.
type Embedder struct {
	client     *openai.Client
	modelKey   string
	model      openai.EmbeddingModel
	dimensions int
	provider   string
	logger     *zap.Logger
}

// Config holds the embedding provider settings. ModelKey is the name the
// search index knows the model by; Model is the upstream identifier.
type Config struct {
	APIKey     string
	BaseURL    string
	ModelKey   string
	Model      string
	Dimensions int
	Provider   string
	Logger     *zap.Logger
}

// NewEmbedder creates an OpenAI-compatible embedding provider.
func NewEmbedder(cfg *Config) *Embedder {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Embedder{
		client:     openai.NewClientWithConfig(clientCfg),
		modelKey:   cfg.ModelKey,
		model:      openai.EmbeddingModel(cfg.Model),
		dimensions: cfg.Dimensions,
		provider:   cfg.Provider,
		logger:     cfg.Logger,
	}
}

// ModelKey returns the index-facing model name this provider serves.
func (e *Embedder) ModelKey() string { return e.modelKey }

// Embed implements domain.Embedder for this provider's single model. Other
// requested models are ignored; routing them is the caller's concern.
func (e *Embedder) Embed(ctx context.Context, query string, _ []string) (domain.EmbeddingSet, error) {
	req := openai.EmbeddingRequest{
		Input:          []string{query},
		Model:          e.model,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
	}
	if e.dimensions > 0 {
		req.Dimensions = e.dimensions
	}

	start := time.Now()
	resp, err := e.client.CreateEmbeddings(ctx, req)
	duration := time.Since(start)

	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, e.modelKey, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(e.provider, e.modelKey, "api_error").Inc()
		return domain.EmbeddingSet{}, parseAPIError(err)
	}

	if len(resp.Data) == 0 {
		metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, e.modelKey, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(e.provider, e.modelKey, "empty_response").Inc()
		return domain.EmbeddingSet{}, fmt.Errorf("empty embedding response: %w", domain.ErrEmbeddingProviderError)
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, e.modelKey, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(e.provider, e.modelKey).Observe(duration.Seconds())

	return domain.NewEmbeddingSet(map[string][]float32{
		e.modelKey: resp.Data[0].Embedding,
	}), nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (e *Embedder) HealthCheck(ctx context.Context) error {
	if _, err := e.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// parseAPIError extracts a human-readable error from the API response.
// All errors are wrapped with domain.ErrEmbeddingProviderError for correct
// 502 mapping.
func parseAPIError(err error) error {
	wrap := domain.ErrEmbeddingProviderError

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail != "" {
			return fmt.Errorf("embedding API error %d: %s: %w",
				reqErr.HTTPStatusCode, detail, wrap)
		}
		return fmt.Errorf("embedding API error %d: %s: %w",
			reqErr.HTTPStatusCode, string(reqErr.Body), wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("embedding API error %d: %s: %w",
			apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	return fmt.Errorf("embedding request failed: %w", wrap)
}

// extractDetail extracts the "detail" field from a JSON error body.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
