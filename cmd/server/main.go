package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/notifyhub/receiver/internal/api"
	"github.com/notifyhub/receiver/internal/config"
	"github.com/notifyhub/receiver/internal/db"
	"github.com/notifyhub/receiver/internal/metrics"
	"github.com/notifyhub/receiver/internal/provider"
	"github.com/notifyhub/receiver/internal/ratelimiter"
	"github.com/notifyhub/receiver/internal/repository"
	"github.com/notifyhub/receiver/internal/service"
	"github.com/notifyhub/receiver/internal/worker"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync() //nolint:errcheck

	// ---- configuration ----
	if err := config.LoadDotEnv(); err != nil {
		logger.Fatal("failed to read .env", zap.Error(err))
	}
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	// ---- subscriber store ----
	ctx := context.Background()
	var repo repository.SubscriberRepository
	if cfg.DatabaseURL == "" {
		logger.Info("DATABASE_URL not set, subscribers are kept in memory")
		repo = repository.NewMemorySubscriberRepository()
	} else {
		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer pool.Close()

		if err := db.Migrate(cfg.MigrationsPath, cfg.DatabaseURL); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
		logger.Info("database migrations applied")
		repo = repository.NewPgSubscriberRepository(pool)
	}

	// ---- core dependencies ----
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	onDelivered, onFailed := m.WorkerHooks()
	dispatch := worker.NewPool(
		cfg,
		provider.NewCallbackProvider(cfg.CallbackTimeout),
		ratelimiter.New(cfg.CallbackRateLimit),
		logger,
		worker.MetricHooks{OnDelivered: onDelivered, OnFailed: onFailed},
	)
	svc := service.NewNotificationService(repo, dispatch, logger,
		service.WithSubscriptionHook(m.SubscriptionHook()))

	// ---- HTTP server ----
	router := api.NewRouter(svc, reg, logger)
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Start server in a goroutine so it does not block the shutdown listener.
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// ---- graceful shutdown ----
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutdown signal received")

	// In-flight notify calls finish their fan-out before Shutdown returns,
	// bounded by ShutdownTimeout.
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	logger.Info("server stopped cleanly")
}
