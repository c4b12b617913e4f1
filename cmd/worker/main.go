package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bookshelf/internal/config"
	pgRepo "bookshelf/internal/infra/adapter/persistence/postgres"
	"bookshelf/internal/infra/db"
	workerPkg "bookshelf/internal/infra/worker"
	"bookshelf/internal/observability/logging"
	"bookshelf/internal/observability/metrics"
	"bookshelf/internal/usecase/rating"
)

// reconcileJob is the job name used in logs and metrics.
const reconcileJob = "rating-reconcile"

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "path to an optional YAML config file")
	runOnce := flag.Bool("once", false, "run the reconcile job once and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath, slog.Default())
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger := logging.New(os.Stdout, logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	slog.SetDefault(logger)

	database := initDatabase(logger, cfg.Database)
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	logger.Info("worker configuration loaded",
		slog.String("schedule", cfg.Reconcile.Schedule),
		slog.String("timezone", cfg.Reconcile.Timezone),
		slog.Duration("timeout", cfg.Reconcile.Timeout),
		slog.Int("batch_size", cfg.Reconcile.BatchSize),
		slog.Float64("per_second", cfg.Reconcile.PerSecond))

	job := reconcileJobFor(logger, database, cfg.Reconcile)

	scheduler, err := workerPkg.NewScheduler(cfg.Reconcile.Timezone, logger)
	if err != nil {
		logger.Error("failed to create scheduler", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *runOnce {
		if err := scheduler.RunNow(ctx, job); err != nil {
			os.Exit(1)
		}
		return
	}

	healthServer := workerPkg.NewHealthServer(cfg.Reconcile.HealthAddr, logger)
	healthServer.DB = database
	go func() {
		if err := healthServer.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()

	if err := scheduler.Add(cfg.Reconcile.Schedule, job); err != nil {
		logger.Error("failed to add cron job", slog.Any("error", err))
		os.Exit(1)
	}
	scheduler.Start()
	healthServer.SetReady(true)
	logger.Info("worker started",
		slog.String("schedule", cfg.Reconcile.Schedule),
		slog.String("timezone", cfg.Reconcile.Timezone))

	<-ctx.Done()
	logger.Info("shutting down worker...")
	healthServer.SetReady(false)

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := scheduler.Stop(stopCtx); err != nil {
		logger.Error("scheduler did not stop cleanly", slog.Any("error", err))
	}
	logger.Info("worker stopped")
}

// initDatabase opens the database connection. The API owns migrations.
func initDatabase(logger *slog.Logger, cfg config.DatabaseConfig) *sql.DB {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	database, err := db.Open(ctx, cfg.DSN)
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	return database
}

// reconcileJobFor builds the job that repairs pending average ratings.
func reconcileJobFor(logger *slog.Logger, database *sql.DB, cfg config.ReconcileConfig) workerPkg.Job {
	books := pgRepo.NewBookRepo(database)
	reviews := pgRepo.NewReviewRepo(database)

	aggregator := rating.NewAggregator(books, reviews)
	aggregator.Logger = logger
	reconciler := rating.NewReconciler(books, aggregator, cfg.PerSecond, cfg.BatchSize)
	reconciler.Logger = logger

	return workerPkg.Job{
		Name:    reconcileJob,
		Timeout: cfg.Timeout,
		Run: func(ctx context.Context) error {
			metrics.UpdateDBStats(database.Stats())
			_, err := reconciler.Run(ctx)
			return err
		},
	}
}
