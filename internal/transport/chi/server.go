// Package chi is the HTTP transport for the artwork search API.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	gochi "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/museumlab/artsearch/internal/domain"
	"github.com/museumlab/artsearch/internal/domain/search/mode"
	"github.com/museumlab/artsearch/internal/domain/search/request"
	"github.com/museumlab/artsearch/internal/metrics"
	healthuc "github.com/museumlab/artsearch/internal/usecase/health"
	searchuc "github.com/museumlab/artsearch/internal/usecase/search"
)

// defaultBalance is the slider midpoint used when the request omits it.
const defaultBalance = 0.5

// Error response codes.
const (
	codeBadRequest             = "bad_request"
	codeValidationFailed       = "validation_failed"
	codeArtworkNotFound        = "artwork_not_found"
	codeUnknownModel           = "unknown_model"
	codeEmbeddingProviderError = "embedding_provider_error"
	codeStoreUnavailable       = "store_unavailable"
	codeInternalError          = "internal_error"
)

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes the search, similarity, and health endpoints.
type Server struct {
	search        *searchuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(search *searchuc.Service, health *healthuc.Service, logger *zap.Logger) *Server {
	s := &Server{
		search: search,
		health: health,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrArtworkNotFound, http.StatusNotFound, codeArtworkNotFound),
		sentinelHandler(domain.ErrUnknownModel, http.StatusBadRequest, codeUnknownModel),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeEmbeddingProviderError),
		sentinelHandler(domain.ErrStoreUnavailable, http.StatusServiceUnavailable, codeStoreUnavailable),
	}
	return s
}

// Routes registers all API routes on the router.
func (s *Server) Routes(r gochi.Router) {
	r.Post("/api/v1/search", s.SearchArtworks)
	r.Get("/api/v1/artworks/{id}", s.GetArtwork)
	r.Get("/api/v1/artworks/{id}/similar", s.SimilarArtworks)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// SearchArtworks handles POST /api/v1/search.
func (s *Server) SearchArtworks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var body searchRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	balance := defaultBalance
	if body.HybridBalance != nil {
		balance = *body.HybridBalance
	}

	req, err := request.New(
		body.Query,
		body.Keyword,
		enabledModels(body.Models),
		body.Hybrid,
		balance,
		mode.HybridMode(body.HybridMode),
		body.IncludeDescriptions,
		body.Size,
	)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("search", "error").Inc()
		s.handleDomainError(w, err)
		return
	}

	resp, err := s.search.Search(r.Context(), &req)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("search", "error").Inc()
		s.handleDomainError(w, err)
		return
	}

	metrics.SearchRequestsTotal.WithLabelValues("search", "success").Inc()
	metrics.SearchDuration.WithLabelValues("search").Observe(time.Since(start).Seconds())
	writeJSON(w, http.StatusOK, searchResponseToDTO(resp))
}

// GetArtwork handles GET /api/v1/artworks/{id}.
func (s *Server) GetArtwork(w http.ResponseWriter, r *http.Request) {
	id := gochi.URLParam(r, "id")

	art, err := s.search.GetArtwork(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, artworkToDTO(art))
}

// SimilarArtworks handles GET /api/v1/artworks/{id}/similar.
// Query params: models (comma-separated), size, weights (key:value pairs,
// comma-separated, keyed by model key or "metadata").
func (s *Server) SimilarArtworks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id := gochi.URLParam(r, "id")
	q := r.URL.Query()

	models := splitParam(q.Get("models"))

	size := 0
	if raw := q.Get("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeValidationFailed, "size must be an integer")
			return
		}
		size = n
	}

	weights, err := parseWeights(q.Get("weights"))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	req, err := request.NewSimilar(id, models, size, weights)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("similar", "error").Inc()
		s.handleDomainError(w, err)
		return
	}

	fused, err := s.search.FindSimilar(r.Context(), &req)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("similar", "error").Inc()
		s.handleDomainError(w, err)
		return
	}

	metrics.SearchRequestsTotal.WithLabelValues("similar", "success").Inc()
	metrics.SearchDuration.WithLabelValues("similar").Observe(time.Since(start).Seconds())
	writeJSON(w, http.StatusOK, fusionResultToDTO(fused))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func splitParam(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseWeights parses "jina_v3:0.4,metadata:0.2" into a weights map.
func parseWeights(raw string) (map[string]float64, error) {
	if raw == "" {
		return nil, nil
	}
	out := make(map[string]float64)
	for _, pair := range strings.Split(raw, ",") {
		key, val, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if !ok || key == "" {
			return nil, errors.New("weights must be key:value pairs separated by commas")
		}
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return nil, errors.New("weight for " + strconv.Quote(key) + " must be a number")
		}
		out[key] = f
	}
	return out, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidRequest,
		domain.ErrArtworkNotFound,
		domain.ErrUnknownModel,
		domain.ErrEmbeddingProviderError,
		domain.ErrStoreUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
