package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jkimathi/sokoflow-backend/internal/catalog"
	"github.com/jkimathi/sokoflow-backend/internal/inventory"
	"github.com/jkimathi/sokoflow-backend/internal/notifications"
	"github.com/jkimathi/sokoflow-backend/internal/reorder"
	"github.com/jkimathi/sokoflow-backend/pkg/config"
	"github.com/jkimathi/sokoflow-backend/pkg/db"
	"github.com/jkimathi/sokoflow-backend/pkg/logger"
	"github.com/jkimathi/sokoflow-backend/pkg/metrics"
	"github.com/jkimathi/sokoflow-backend/pkg/migrate"
	"github.com/jkimathi/sokoflow-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "reorder-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "reorder-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gormDB := dbClient.DB()
	notificationsService, err := notifications.NewService(notifications.NewRepository(gormDB), redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	scanner, err := reorder.NewScanner(reorder.ScannerParams{
		Logger:    logg,
		DB:        dbClient,
		Inventory: inventory.NewRepository(gormDB),
		Alerts:    reorder.NewRepository(gormDB),
		Products:  catalog.NewRepository(gormDB),
		Notifier:  notificationsService,
		Dedupe:    redisClient,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create scanner", err)
		os.Exit(1)
	}

	jobMetrics := metrics.NewJobMetrics(prometheus.DefaultRegisterer)
	worker, err := reorder.NewWorker(reorder.WorkerParams{
		Logger:   logg,
		Scanner:  scanner,
		Metrics:  jobMetrics,
		Interval: cfg.Worker.ReorderScanInterval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create worker", err)
		os.Exit(1)
	}

	go serveMetrics(cfg.Worker.MetricsPort, logg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithField(ctx, "env", cfg.App.Env)
	logg.Info(ctx, "starting reorder worker")

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "reorder worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "reorder worker shutting down gracefully")
}

func serveMetrics(port string, logg *logger.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(":"+port, mux); err != nil && err != http.ErrServerClosed {
		logg.Error(context.Background(), "metrics server stopped", err)
	}
}
