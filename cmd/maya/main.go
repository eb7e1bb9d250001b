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
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/udyami-labs/maya/internal/config"
	dbRedis "github.com/udyami-labs/maya/internal/db/redis"
	"github.com/udyami-labs/maya/internal/domain"
	logpkg "github.com/udyami-labs/maya/internal/logger"
	"github.com/udyami-labs/maya/internal/metrics"
	"github.com/udyami-labs/maya/internal/repository/embcache"
	historyrepo "github.com/udyami-labs/maya/internal/repository/history"
	schemerepo "github.com/udyami-labs/maya/internal/repository/scheme"
	chiTransport "github.com/udyami-labs/maya/internal/transport/chi"
	googleaiProv "github.com/udyami-labs/maya/internal/transport/googleai"
	openaiProv "github.com/udyami-labs/maya/internal/transport/openai"
	classifyuc "github.com/udyami-labs/maya/internal/usecase/classify"
	dispatchuc "github.com/udyami-labs/maya/internal/usecase/dispatch"
	healthuc "github.com/udyami-labs/maya/internal/usecase/health"
	retrievaluc "github.com/udyami-labs/maya/internal/usecase/retrieval"
	"github.com/udyami-labs/maya/internal/version"
)

func main() {
	// .env is optional; real deployments set variables in the environment.
	_ = godotenv.Load()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting maya API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("provider_backend", cfg.Provider.Backend),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register provider and dispatch metrics explicitly (no init())
	metrics.RegisterProviderMetrics()

	gen, embedder := buildProvider(ctx, cfg.Provider, logger)

	// Cache embeddings in the store; the model name is part of the cache key.
	cacheTTL := time.Duration(cfg.Provider.CacheTTLSec) * time.Second
	cachedEmbedder := embcache.New(embedder, store, cfg.Provider.EmbeddingModel, cacheTTL, metrics.EmbeddingCacheTotal, logger)

	schemeRepo := schemerepo.New(store)
	historyRepo := historyrepo.New(store)

	retrievalSvc := retrievaluc.New(schemeRepo, cachedEmbedder)
	classifier := classifyuc.New(gen)

	graph, err := dispatchuc.NewGraph(classifier,
		dispatchuc.DefaultHandlers(retrievalSvc, gen, cfg.Retrieval.Limit))
	if err != nil {
		logger.Fatal("Failed to build dispatch graph", zap.Error(err))
	}

	healthSvc := healthuc.New(store, providerChecker(gen))

	server := chiTransport.NewServer(graph, retrievalSvc, historyRepo, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Register(r)

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

// provider bundles the two provider roles every backend implements.
type provider interface {
	domain.Generator
	domain.Embedder
}

// buildProvider selects the backend from config. A missing API key does not
// abort startup: classification and retrieval degrade, placeholders and
// fallback strings still work.
func buildProvider(ctx context.Context, cfg config.ProviderConfig, logger *zap.Logger) (provider, domain.Embedder) {
	if cfg.APIKey == "" {
		logger.Warn("Provider API key is not set, running degraded",
			zap.String("backend", cfg.Backend))
		p := domain.NewUnavailableProvider(cfg.Backend + " api key missing")
		return p, p
	}

	switch cfg.Backend {
	case "openai":
		p := openaiProv.New(&openaiProv.Config{
			APIKey:         cfg.APIKey,
			BaseURL:        cfg.BaseURL,
			ChatModel:      cfg.ChatModel,
			EmbeddingModel: cfg.EmbeddingModel,
			Dimensions:     cfg.Dimensions,
			Logger:         logger,
		})
		return p, p
	default:
		p, err := googleaiProv.New(ctx, &googleaiProv.Config{
			APIKey:         cfg.APIKey,
			ChatModel:      cfg.ChatModel,
			EmbeddingModel: cfg.EmbeddingModel,
			Logger:         logger,
		})
		if err != nil {
			logger.Error("Failed to create gemini client, running degraded", zap.Error(err))
			u := domain.NewUnavailableProvider("gemini client init failed")
			return u, u
		}
		return p, p
	}
}

// providerChecker narrows a provider to the health contract when it has one.
func providerChecker(p provider) healthuc.ProviderChecker {
	if hc, ok := p.(domain.HealthChecker); ok {
		return hc
	}
	return nil
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
