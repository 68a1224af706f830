package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/museumlab/artsearch/internal/cache"
	"github.com/museumlab/artsearch/internal/config"
	dbRedis "github.com/museumlab/artsearch/internal/db/redis"
	"github.com/museumlab/artsearch/internal/domain/calibration"
	logpkg "github.com/museumlab/artsearch/internal/logger"
	"github.com/museumlab/artsearch/internal/metrics"
	artworkrepo "github.com/museumlab/artsearch/internal/repository/artwork"
	"github.com/museumlab/artsearch/internal/repository/embcache"
	"github.com/museumlab/artsearch/internal/repository/embmux"
	chiTransport "github.com/museumlab/artsearch/internal/transport/chi"
	modalEmb "github.com/museumlab/artsearch/internal/transport/modal"
	openaiEmb "github.com/museumlab/artsearch/internal/transport/openai"
	healthuc "github.com/museumlab/artsearch/internal/usecase/health"
	searchuc "github.com/museumlab/artsearch/internal/usecase/search"
	"github.com/museumlab/artsearch/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting artsearch API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		DB:       cfg.Database.DB,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	// Wait for database to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register domain metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterSearchMetrics()

	// Artwork repository over the FT index
	repoModels := make([]artworkrepo.Model, len(cfg.Embedding.Models))
	modality := make(map[string]string, len(cfg.Embedding.Models))
	for i, m := range cfg.Embedding.Models {
		repoModels[i] = artworkrepo.Model{Key: m.Key, Dim: m.Dim}
		modality[m.Key] = m.Modality
	}
	repo := artworkrepo.New(store, repoModels)
	if err := repo.EnsureIndex(ctx); err != nil {
		logger.Fatal("Failed to ensure search index", zap.Error(err))
	}

	// Embedder chain: providers -> router -> cache decorator
	healthSvc := healthuc.New(store)
	router := embmux.New(logger)
	wireProviders(cfg, router, healthSvc, logger)

	var embCache cache.Cache
	switch cfg.Cache.Backend {
	case "redis":
		embCache = cache.NewKV(store, logger)
	default:
		embCache = cache.NewLRU(cfg.Cache.Size, time.Duration(cfg.Cache.TTLSec)*time.Second)
	}
	embedder := embcache.New(router, embCache,
		time.Duration(cfg.Cache.TTLSec)*time.Second, metrics.EmbeddingCacheTotal, logger)

	table := calibration.NewTable(
		cfg.Calibration.Thresholds,
		cfg.Calibration.RRFKMin,
		cfg.Calibration.RRFKSpread,
		cfg.Calibration.HybridRelax,
	)

	searchSvc := searchuc.New(repo, embedder, table, modality, searchuc.Options{
		BranchTimeout:       time.Duration(cfg.Search.BranchTimeoutSec) * time.Second,
		CandidateMultiplier: cfg.Search.CandidateMultiplier,
		MetadataWeight:      cfg.Search.MetadataWeight,
	}, logger)

	server := chiTransport.NewServer(searchSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// wireProviders registers one embedder per configured provider on the
// router and one health probe per provider on the health service.
func wireProviders(
	cfg config.Config,
	router *embmux.Router,
	healthSvc *healthuc.Service,
	logger *zap.Logger,
) {
	var modalModels []string
	byProvider := make(map[string][]config.ModelConfig)
	for _, m := range cfg.Embedding.Models {
		if m.Provider == "modal" {
			modalModels = append(modalModels, m.Key)
			continue
		}
		byProvider[m.Provider] = append(byProvider[m.Provider], m)
	}

	if len(modalModels) > 0 {
		emb := modalEmb.NewEmbedder(&modalEmb.Config{
			BaseURL: cfg.Embedding.Modal.BaseURL,
			APIKey:  cfg.Embedding.Modal.APIKey,
			Timeout: time.Duration(cfg.Embedding.Modal.TimeoutSec) * time.Second,
			Logger:  logger,
		})
		router.Register(emb, modalModels...)
		healthSvc.AddEmbeddingCheck("modal", emb)
		logger.Info("Registered unified embedding provider",
			zap.Strings("models", modalModels))
	}

	for name, models := range byProvider {
		pc := cfg.Embedding.Providers[name]
		var probe *openaiEmb.Embedder
		for _, m := range models {
			emb := openaiEmb.NewEmbedder(&openaiEmb.Config{
				APIKey:     pc.APIKey,
				BaseURL:    pc.BaseURL,
				ModelKey:   m.Key,
				Model:      pc.Model,
				Dimensions: pc.Dimensions,
				Provider:   name,
				Logger:     logger,
			})
			router.Register(emb, m.Key)
			probe = emb
		}
		// One probe per provider regardless of how many models it serves.
		healthSvc.AddEmbeddingCheck(name, probe)
		logger.Info("Registered embedding provider",
			zap.String("provider", name), zap.Int("models", len(models)))
	}
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
