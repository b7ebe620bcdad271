package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"superstore-dashboard/internal/config"
	"superstore-dashboard/internal/loader"
	"superstore-dashboard/internal/middleware"
	"superstore-dashboard/internal/observability"
	"superstore-dashboard/internal/server"
	"superstore-dashboard/internal/services"
	"superstore-dashboard/internal/ui/templates"
)

const (
	renderTimeout = 10 * time.Second
	pageCacheAge  = "no-cache"
)

// dashboardPage renders the page shell with the filter options of the
// snapshot current at request time.
func dashboardPage(analytics *services.Analytics, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
		defer cancel()

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", pageCacheAge)
		if err := templates.Dashboard(analytics.Dataset().Options).Render(ctx, w); err != nil {
			logger.Error("render dashboard", "error", err)
			http.Error(w, "render error", http.StatusInternalServerError)
		}
	}
}

// loaderAttempts feeds each strategy outcome into the attempts counter.
func loaderAttempts(m *observability.Metrics) func(strategy string, err error) {
	return func(strategy string, err error) {
		result := "ok"
		if err != nil {
			result = "failed"
		}
		m.LoaderAttempts.WithLabelValues(strategy, result).Inc()
	}
}

func newHandler(cfg *config.Config, analytics *services.Analytics, logger *slog.Logger, metrics *observability.Metrics) http.Handler {
	templateHandlers := &server.TemplateHandlers{
		Dashboard: dashboardPage(analytics, logger),
	}
	srv := server.NewServer(analytics, logger, metrics, templateHandlers)

	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(logger),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
		middleware.Metrics(metrics),
	)

	return middlewareChain(srv)
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
		"dataset", cfg.Dataset.Path,
		"addr", cfg.Address(),
	)

	metrics := observability.NewMetrics()
	src := loader.New(cfg.Dataset.Path,
		loader.WithLogger(logger),
		loader.OnAttempt(loaderAttempts(metrics)),
	)
	analytics := services.NewAnalytics(src, logger, services.Options{
		StrictDates: cfg.Dataset.StrictDates,
		Metrics:     metrics,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Dataset.LoadTimeout)
	err = analytics.Load(ctx)
	cancel()
	if err != nil {
		logger.Error("failed to load dataset", "path", cfg.Dataset.Path, "error", err)
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      newHandler(cfg, analytics, logger, metrics),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg)

	gracefulServer.RegisterShutdownHook(func(ctx context.Context) error {
		ds := analytics.Dataset()
		logger.Info("releasing dataset snapshot", "version", ds.Version, "rows", len(ds.Rows))
		return nil
	})

	if err := gracefulServer.ListenAndServe(context.Background()); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
