package config

import (
	"log/slog"

	pkgconfig "bookshelf/pkg/config"
)

var loadMetrics = pkgconfig.NewConfigMetrics("bookshelf")

// applyEnv overlays environment variables on c. Unset variables keep the
// current value.
func (c *Config) applyEnv(logger *slog.Logger) {
	c.Version = pkgconfig.GetEnvString("VERSION", c.Version)

	c.HTTP.Addr = pkgconfig.GetEnvString("HTTP_ADDR", c.HTTP.Addr)
	c.HTTP.RequestTimeout = pkgconfig.GetEnvDuration("HTTP_REQUEST_TIMEOUT", c.HTTP.RequestTimeout)
	c.HTTP.ShutdownTimeout = pkgconfig.GetEnvDuration("HTTP_SHUTDOWN_TIMEOUT", c.HTTP.ShutdownTimeout)
	c.HTTP.MaxBodyBytes = int64(pkgconfig.GetEnvInt("HTTP_MAX_BODY_BYTES", int(c.HTTP.MaxBodyBytes)))
	c.HTTP.TrustProxy = pkgconfig.GetEnvBool("HTTP_TRUST_PROXY", c.HTTP.TrustProxy)
	c.HTTP.WriteRate = pkgconfig.GetEnvFloat("HTTP_WRITE_RATE", c.HTTP.WriteRate)
	c.HTTP.WriteBurst = pkgconfig.GetEnvInt("HTTP_WRITE_BURST", c.HTTP.WriteBurst)

	c.Database.DSN = pkgconfig.GetEnvString("DATABASE_URL", c.Database.DSN)
	c.Database.Migrate = pkgconfig.GetEnvBool("DB_MIGRATE", c.Database.Migrate)
	c.Database.Transactions = pkgconfig.GetEnvBool("DB_TRANSACTIONS", c.Database.Transactions)

	c.Redis.Addr = pkgconfig.GetEnvString("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = pkgconfig.GetEnvString("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = pkgconfig.GetEnvInt("REDIS_DB", c.Redis.DB)

	c.Cache.PageCountTTL = pkgconfig.GetEnvDuration("CACHE_PAGE_COUNT_TTL", c.Cache.PageCountTTL)
	c.Cache.GenreTTL = pkgconfig.GetEnvDuration("CACHE_GENRE_TTL", c.Cache.GenreTTL)
	c.Cache.FailClosed = pkgconfig.GetEnvBool("CACHE_FAIL_CLOSED", c.Cache.FailClosed)

	c.Pagination.DefaultLimit = pkgconfig.GetEnvInt("PAGINATION_DEFAULT_LIMIT", c.Pagination.DefaultLimit)
	c.Pagination.MaxLimit = pkgconfig.GetEnvInt("PAGINATION_MAX_LIMIT", c.Pagination.MaxLimit)

	c.Auth.JWTSecret = pkgconfig.GetEnvString("JWT_SECRET", c.Auth.JWTSecret)
	c.Auth.CursorSecret = pkgconfig.GetEnvString("CURSOR_SECRET", c.Auth.CursorSecret)

	c.Tracing.ServiceName = pkgconfig.GetEnvString("OTEL_SERVICE_NAME", c.Tracing.ServiceName)
	c.Tracing.SampleRatio = pkgconfig.GetEnvFloat("TRACING_SAMPLE_RATIO", c.Tracing.SampleRatio)

	c.Log.Level = pkgconfig.GetEnvString("LOG_LEVEL", c.Log.Level)
	c.Log.Format = pkgconfig.GetEnvString("LOG_FORMAT", c.Log.Format)

	c.applyReconcileEnv(logger)
}

// applyReconcileEnv loads the worker settings with fallback: a bad value
// keeps the previous one so a typo cannot stop the schedule.
func (c *Config) applyReconcileEnv(logger *slog.Logger) {
	r := &c.Reconcile
	fallback := false
	note := func(field string, applied bool, warnings []string) {
		if !applied {
			return
		}
		fallback = true
		loadMetrics.RecordFallback(field)
		for _, warning := range warnings {
			logger.Warn("Configuration fallback applied",
				slog.String("field", field),
				slog.String("warning", warning))
		}
	}

	schedule := pkgconfig.LoadEnvWithFallback("RECONCILE_SCHEDULE", r.Schedule, pkgconfig.ValidateCronSchedule)
	r.Schedule = schedule.Value
	note("reconcile_schedule", schedule.FallbackApplied, schedule.Warnings)

	tz := pkgconfig.LoadEnvWithFallback("RECONCILE_TIMEZONE", r.Timezone, pkgconfig.ValidateTimezone)
	r.Timezone = tz.Value
	note("reconcile_timezone", tz.FallbackApplied, tz.Warnings)

	timeout := pkgconfig.LoadEnvDuration("RECONCILE_TIMEOUT", r.Timeout, pkgconfig.ValidatePositiveDuration)
	r.Timeout = timeout.Value
	note("reconcile_timeout", timeout.FallbackApplied, timeout.Warnings)

	batch := pkgconfig.LoadEnvInt("RECONCILE_BATCH_SIZE", r.BatchSize, func(v int) error {
		return pkgconfig.ValidateIntRange(v, 1, 10000)
	})
	r.BatchSize = batch.Value
	note("reconcile_batch_size", batch.FallbackApplied, batch.Warnings)

	r.PerSecond = pkgconfig.GetEnvFloat("RECONCILE_PER_SECOND", r.PerSecond)
	r.HealthAddr = pkgconfig.GetEnvString("WORKER_HEALTH_ADDR", r.HealthAddr)

	loadMetrics.SetFallbackActive(fallback)
}
