// Package main is the entrypoint for the MasterDesk API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkosov/masterdesk/internal/api"
	"github.com/pkosov/masterdesk/internal/api/handler"
	mw "github.com/pkosov/masterdesk/internal/api/middleware"
	"github.com/pkosov/masterdesk/internal/api/response"
	"github.com/pkosov/masterdesk/internal/cache"
	"github.com/pkosov/masterdesk/internal/calendar"
	"github.com/pkosov/masterdesk/internal/config"
	"github.com/pkosov/masterdesk/internal/dispatch"
	"github.com/pkosov/masterdesk/internal/pricing"
	"github.com/pkosov/masterdesk/internal/store"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is a local development convenience; absent in production
	_ = godotenv.Load()

	// 1. Load config — fail fast on invalid config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded", "env", cfg.Server.Env, "default_city", cfg.Dispatch.DefaultCity)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to database
	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	slog.Info("database connected")

	// 3. Run migrations
	if err := store.RunMigrations(cfg.Database.URL, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("database migrations applied")

	// 4. Create Redis cache
	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")

	// 5. Pick the calendar sink
	var sink calendar.Sink = calendar.Noop{}
	if cfg.Calendar.BaseURL != "" {
		sink = calendar.NewClient(cfg.Calendar.BaseURL, cfg.Calendar.Token, cfg.Calendar.Timeout)
		slog.Info("calendar bridge configured", "base_url", cfg.Calendar.BaseURL)
	} else {
		slog.Info("no calendar bridge configured, announcements disabled")
	}

	// 6. Create store and dispatch service
	pgStore := store.NewPostgresStore(pool)
	svc := dispatch.NewService(pgStore, redisCache, sink, pricing.KeywordEstimator{}, cfg.Dispatch.DefaultCity)

	// 7. Build router with dependencies
	deps := api.Dependencies{
		RateLimit: mw.NewRateLimit(redisCache, 0),

		HealthHandler: healthHandler(pgStore, redisCache),

		EstimateHandler:      handler.NewEstimateHandler(svc),
		TemplatesHandler:     handler.NewTemplatesHandler(),
		TemplateQuoteHandler: handler.NewTemplateQuoteHandler(),

		CreateJobHandler:      handler.NewCreateJobHandler(svc),
		ListJobsHandler:       handler.NewListJobsHandler(svc),
		GetJobHandler:         handler.NewGetJobHandler(svc),
		AssignJobHandler:      handler.NewAssignJobHandler(svc),
		UpdateJobStatus:       handler.NewUpdateJobStatusHandler(svc),
		DepartJobHandler:      handler.NewDepartJobHandler(svc),
		ArriveJobHandler:      handler.NewArriveJobHandler(svc),
		TrackJobHandler:       handler.NewTrackJobHandler(svc),
		JobStatusHandler:      handler.NewJobStatusHandler(svc),
		SettleJobHandler:      handler.NewSettleJobHandler(svc),
		GetTransactionHandler: handler.NewGetTransactionHandler(svc),

		RegisterMasterHandler:   handler.NewRegisterMasterHandler(svc),
		ListMastersHandler:      handler.NewListAvailableMastersHandler(svc),
		GetMasterHandler:        handler.NewGetMasterHandler(svc),
		TerminalHandler:         handler.NewTerminalHandler(svc),
		DeactivateMasterHandler: handler.NewDeactivateMasterHandler(svc),
		MasterJobsHandler:       handler.NewMasterJobsHandler(svc),
		MasterStatsHandler:      handler.NewMasterStatsHandler(svc),
		MasterEarningsHandler:   handler.NewMasterEarningsHandler(svc),
	}

	router := api.NewRouter(deps)

	// 8. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// healthHandler checks database and cache connectivity.
func healthHandler(s store.Store, c cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"database": "ok",
			"cache":    "ok",
		}

		if err := s.Ping(r.Context()); err != nil {
			checks["database"] = "degraded"
		}
		if err := c.Ping(r.Context()); err != nil {
			checks["cache"] = "degraded"
		}

		if checks["database"] != "ok" || checks["cache"] != "ok" {
			response.Error(w, http.StatusServiceUnavailable, "DEGRADED",
				"One or more services degraded", checks)
			return
		}

		response.JSON(w, map[string]any{
			"status":   "ok",
			"services": checks,
		})
	}
}
