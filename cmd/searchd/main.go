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

	"github.com/marketdz/searchd/internal/config"
	"github.com/marketdz/searchd/internal/db"
	dbRedis "github.com/marketdz/searchd/internal/db/redis"
	"github.com/marketdz/searchd/internal/domain"
	logpkg "github.com/marketdz/searchd/internal/logger"
	"github.com/marketdz/searchd/internal/metrics"
	georepo "github.com/marketdz/searchd/internal/repository/geo"
	listingrepo "github.com/marketdz/searchd/internal/repository/listing"
	profilerepo "github.com/marketdz/searchd/internal/repository/profile"
	"github.com/marketdz/searchd/internal/repository/suggestcache"
	chiTransport "github.com/marketdz/searchd/internal/transport/chi"
	openaiScoring "github.com/marketdz/searchd/internal/transport/openai"
	healthuc "github.com/marketdz/searchd/internal/usecase/health"
	rerankuc "github.com/marketdz/searchd/internal/usecase/rerank"
	searchuc "github.com/marketdz/searchd/internal/usecase/search"
	suggestuc "github.com/marketdz/searchd/internal/usecase/suggest"
	"github.com/marketdz/searchd/internal/version"
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

	logger.Info("Starting searchd API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	// Create database store based on driver
	var store db.Store
	switch cfg.Database.Driver {
	case "redis":
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Password: cfg.Database.Password,
		})
	default:
		logger.Fatal("Unknown database driver", zap.String("driver", cfg.Database.Driver))
	}
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

	// Register search metrics explicitly (no init())
	metrics.RegisterSearchMetrics()

	// Create repositories (domain-native, no adapters)
	listingRepo := listingrepo.New(store).
		WithLayout(cfg.Search.IndexName, cfg.Search.KeyPrefix)
	if err := listingRepo.EnsureIndex(ctx); err != nil {
		logger.Fatal("Failed to ensure listings index", zap.Error(err))
	}
	logger.Info("Listings index ready",
		zap.String("index", cfg.Search.IndexName),
		zap.String("key_prefix", cfg.Search.KeyPrefix),
	)

	profileRepo := profilerepo.New(store)
	geoLookup := georepo.New(store, cfg.Search.KeyPrefix)

	// Content scorer — composition root
	scorer := buildScorer(cfg.Scoring, logger)
	logger.Info("Content scorer created", zap.String("provider", cfg.Scoring.Provider))

	// Autocomplete titles go through a short-TTL cache in front of the index.
	cachedTitles := suggestcache.New(
		listingRepo, store,
		time.Duration(cfg.Suggest.CacheTTLSec)*time.Second,
		metrics.SuggestCacheTotal, logger,
	)

	// Create use case services
	searchSvc := searchuc.New(listingRepo, logger)
	suggestSvc := suggestuc.New(cachedTitles, logger).
		WithTitleFetchLimit(cfg.Suggest.TitleFetchLimit)
	rerankSvc := rerankuc.New(
		searchSvc, geoLookup, profileRepo, scorer, logger,
		rerankuc.Options{
			PoolSize:            cfg.Rerank.PoolSize,
			Deadline:            time.Duration(cfg.Rerank.DeadlineMs) * time.Millisecond,
			TrendingViewsPerDay: cfg.Rerank.TrendingViewsPerDay,
		},
	)

	// Health service
	healthSvc := healthuc.New(store, newScorerHealthChecker(scorer))

	// Create chi server
	server := chiTransport.NewServer(searchSvc, suggestSvc, rerankSvc, healthSvc, logger)

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

// buildScorer selects the content scoring provider from config.
func buildScorer(cfg config.ScoringConfig, logger *zap.Logger) domain.ContentScorer {
	if cfg.Provider == "openai" {
		return openaiScoring.NewScorer(&openaiScoring.Config{
			APIKey:   cfg.OpenAI.APIKey,
			BaseURL:  cfg.OpenAI.BaseURL,
			Model:    cfg.OpenAI.Model,
			Provider: cfg.Provider,
			Logger:   logger,
		})
	}
	return domain.NewKeywordScorer()
}

// scorerHealthChecker wraps domain.ContentScorer to implement health.ScorerChecker.
type scorerHealthChecker struct {
	scorer domain.ContentScorer
}

func newScorerHealthChecker(scorer domain.ContentScorer) *scorerHealthChecker {
	return &scorerHealthChecker{scorer: scorer}
}

func (h *scorerHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.scorer.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("scorer health check: %w", err)
		}
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
