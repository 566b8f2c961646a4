package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"pricewatch/internal/config"
	"pricewatch/internal/dataset"
	"pricewatch/internal/middleware"
	"pricewatch/internal/observability"
	"pricewatch/internal/server"
	"pricewatch/internal/services"
	"pricewatch/internal/ui/templates"
)

const (
	renderTimeout = 10 * time.Second
	cacheMaxAge   = "public, max-age=300"
)

func handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
	defer cancel()

	w.Header().Set("Cache-Control", cacheMaxAge)
	if err := templates.Dashboard().Render(ctx, w); err != nil {
		http.Error(w, "render error", http.StatusInternalServerError)
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", "1.0.0",
		"dataset_id", cfg.Dataset.DatasetID,
		"category_filter", cfg.Dataset.CategoryFilter,
	)

	cache, err := dataset.OpenSnapshotCache(cfg.Dataset.CachePath)
	if err != nil {
		logger.Warn("snapshot cache unavailable, loading without it", "error", err)
		cache = nil
	}

	loader := dataset.NewClient(cfg.Dataset, cache, logger)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Dataset.FetchTimeout)
	defer cancel()

	start := time.Now()
	table, err := loader.Load(ctx)
	if err != nil {
		logger.Error("failed to load dataset", "error", err)
		os.Exit(1)
	}
	logger.Info("dataset ready", "records", len(table), "duration", time.Since(start))

	analytics := services.NewAnalytics()
	analytics.SetTable(table)

	templateHandlers := &server.TemplateHandlers{
		Dashboard: handleDashboard,
	}

	srv := server.NewServer(analytics, logger, templateHandlers)

	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
	)

	handler := middlewareChain(srv)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg)

	if cache != nil {
		gracefulServer.RegisterShutdownHook(func(ctx context.Context) error {
			logger.Info("closing snapshot cache")
			return cache.Close()
		})
	}

	if err := gracefulServer.ListenAndServe(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
