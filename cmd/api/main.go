package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bookshelf/internal/common/pagination"
	"bookshelf/internal/config"
	hhttp "bookshelf/internal/handler/http"
	"bookshelf/internal/handler/http/auth"
	"bookshelf/internal/infra/adapter/persistence/memory"
	pgRepo "bookshelf/internal/infra/adapter/persistence/postgres"
	"bookshelf/internal/infra/cache"
	"bookshelf/internal/infra/db"
	"bookshelf/internal/observability/logging"
	"bookshelf/internal/observability/tracing"
	"bookshelf/internal/repository"
	bookUC "bookshelf/internal/usecase/book"
	"bookshelf/internal/usecase/rating"
	reviewUC "bookshelf/internal/usecase/review"
)

// sweepInterval is how often idle rate limiter entries are dropped.
const sweepInterval = time.Minute

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "path to an optional YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath, slog.Default())
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	if err := cfg.ValidateSecrets(); err != nil {
		slog.Error("invalid secrets", slog.Any("error", err))
		os.Exit(1)
	}

	logger := initLogger(cfg.Log)
	shutdownTracing := initTracing(logger, cfg)
	defer shutdownTracing()

	store := initStorage(logger, cfg.Database)
	if store.DB != nil {
		defer func() {
			if err := store.DB.Close(); err != nil {
				logger.Error("failed to close database", slog.Any("error", err))
			}
		}()
	}

	redisBackend := initRedis(logger, cfg.Redis)
	if redisBackend != nil {
		defer func() {
			if err := redisBackend.Close(); err != nil {
				logger.Error("failed to close redis", slog.Any("error", err))
			}
		}()
	}

	components := setupServer(logger, cfg, store, redisBackend)
	runServer(logger, cfg.HTTP, components)
}

// initLogger builds the process logger and installs it as the slog default.
func initLogger(cfg config.LogConfig) *slog.Logger {
	logger := logging.New(os.Stdout, logging.Options{Level: cfg.Level, Format: cfg.Format})
	slog.SetDefault(logger)
	return logger
}

// initTracing installs the tracer provider. Spans stay in-process; the
// returned function flushes the provider.
func initTracing(logger *slog.Logger, cfg config.Config) func() {
	shutdown, err := tracing.Setup(tracing.Config{
		ServiceName: cfg.Tracing.ServiceName,
		Version:     cfg.Version,
		SampleRatio: cfg.Tracing.SampleRatio,
	})
	if err != nil {
		logger.Error("failed to set up tracing", slog.Any("error", err))
		os.Exit(1)
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(ctx); err != nil {
			logger.Error("tracing shutdown failed", slog.Any("error", err))
		}
	}
}

// storage holds the repositories the use cases run on. DB is nil when the
// in-memory store is used.
type storage struct {
	DB      *sql.DB
	Books   repository.BookRepository
	Reviews repository.ReviewRepository
	Tx      repository.Transactor
}

// initStorage connects Postgres, or falls back to the in-memory store when
// no DSN is configured.
func initStorage(logger *slog.Logger, cfg config.DatabaseConfig) storage {
	if cfg.DSN == "" {
		logger.Warn("DATABASE_URL not set, using in-memory store (data is lost on restart)")
		s := memory.NewStore()
		return storage{
			Books:   memory.NewBookRepo(s),
			Reviews: memory.NewReviewRepo(s),
			Tx:      memory.NewTransactor(s),
		}
	}
	database := initDatabase(logger, cfg)
	store := storage{
		DB:      database,
		Books:   pgRepo.NewBookRepo(database),
		Reviews: pgRepo.NewReviewRepo(database),
		Tx:      pgRepo.NewTransactor(database),
	}
	if !cfg.Transactions {
		logger.Warn("database transactions disabled, cascading deletes are not atomic")
		store.Tx = repository.NoTx{}
	}
	return store
}

// initDatabase opens the database connection and runs migrations.
func initDatabase(logger *slog.Logger, cfg config.DatabaseConfig) *sql.DB {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	database, err := db.Open(ctx, cfg.DSN)
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	if cfg.Migrate {
		if err := db.MigrateUp(database); err != nil {
			logger.Error("failed to migrate database", slog.Any("error", err))
			os.Exit(1)
		}
	}
	return database
}

// initRedis connects the cache backend. Without an address, or when Redis
// is unreachable at startup, the service runs uncached.
func initRedis(logger *slog.Logger, cfg config.RedisConfig) *cache.RedisBackend {
	if cfg.Addr == "" {
		logger.Info("redis not configured, caching disabled")
		return nil
	}
	backend, err := cache.NewRedisBackend(context.Background(), cache.RedisConfig{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err != nil {
		logger.Warn("redis unavailable, caching disabled", slog.Any("error", err))
		return nil
	}
	logger.Info("redis cache enabled", slog.String("addr", cfg.Addr))
	return backend
}

// ServerComponents holds components needed for server operation and cleanup.
type ServerComponents struct {
	Handler      http.Handler
	WriteLimiter *hhttp.RateLimiter
}

// setupServer wires repositories, caches and use cases into the router.
func setupServer(logger *slog.Logger, cfg config.Config, store storage, redisBackend *cache.RedisBackend) *ServerComponents {
	books, reviews, tx := store.Books, store.Reviews, store.Tx

	var backend cache.ListBackend
	var cachePinger hhttp.Pinger
	if redisBackend != nil {
		backend = redisBackend
		cachePinger = redisBackend
	}
	policy := cache.FailOpen
	if cfg.Cache.FailClosed {
		policy = cache.FailClosed
	}

	aggregator := rating.NewAggregator(books, reviews)
	aggregator.Logger = logger

	bookSvc := &bookUC.Service{
		Repo:    books,
		Reviews: reviews,
		Tx:      tx,
		GenreCache: cache.NewListCache(backend, cache.Options{
			Name: "genres", TTL: cfg.Cache.GenreTTL, Policy: policy, Logger: logger,
		}),
		Logger: logger,
		Now:    time.Now,
	}
	reviewSvc := &reviewUC.Service{
		Repo:    reviews,
		Books:   books,
		Ratings: aggregator,
		PageCounts: cache.NewPageCountCache(backend, cache.Options{
			Name: "review_pages", TTL: cfg.Cache.PageCountTTL, Policy: policy, Logger: logger,
		}),
		Logger: logger,
	}

	var writeLimiter *hhttp.RateLimiter
	if cfg.HTTP.WriteRate > 0 {
		writeLimiter = hhttp.NewRateLimiter(cfg.HTTP.WriteRate, cfg.HTTP.WriteBurst)
		writeLimiter.TrustProxy = cfg.HTTP.TrustProxy
		logger.Info("write rate limiting enabled",
			slog.Float64("per_second", cfg.HTTP.WriteRate),
			slog.Int("burst", cfg.HTTP.WriteBurst),
			slog.Bool("trust_proxy", cfg.HTTP.TrustProxy))
	} else {
		logger.Warn("write rate limiting is DISABLED - not recommended for production")
	}

	var cursorSecret []byte
	if cfg.Auth.CursorSecret != "" {
		cursorSecret = []byte(cfg.Auth.CursorSecret)
	} else {
		logger.Warn("CURSOR_SECRET not set, cursors will not survive a restart")
	}

	handler := hhttp.NewRouter(hhttp.RouterConfig{
		Books:          bookSvc,
		Reviews:        reviewSvc,
		Pagination:     cfg.Pagination,
		Codec:          pagination.NewCursorCodec(cursorSecret),
		Auth:           auth.NewAuthenticator(cfg.Auth.JWTSecret),
		WriteLimiter:   writeLimiter,
		MaxBodyBytes:   cfg.HTTP.MaxBodyBytes,
		RequestTimeout: cfg.HTTP.RequestTimeout,
		Health:         &hhttp.HealthHandler{DB: store.DB, Cache: cachePinger, InMemory: store.DB == nil, Version: cfg.Version},
		Ready:          &hhttp.ReadyHandler{DB: store.DB, InMemory: store.DB == nil},
		Logger:         logger,
	})

	return &ServerComponents{Handler: handler, WriteLimiter: writeLimiter}
}

// runServer starts the HTTP server and handles graceful shutdown.
func runServer(logger *slog.Logger, cfg config.HTTPConfig, components *ServerComponents) {
	// Context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if components.WriteLimiter != nil {
		go components.WriteLimiter.RunSweeper(ctx, sweepInterval)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           components.Handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout, // Prevent Slowloris attacks
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		logger.Info("server starting", slog.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", slog.Any("error", err))
	}
	cancel()
	logger.Info("server stopped")
}
