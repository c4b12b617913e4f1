// Package config assembles the bookshelf process configuration.
//
// Values come from three layers, later layers winning:
//  1. Default()
//  2. an optional YAML file
//  3. environment variables
//
// The same Config serves the API server and the reconcile worker.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"bookshelf/internal/common/pagination"
	pkgconfig "bookshelf/pkg/config"
)

// MinSecretLength is the shortest accepted JWT or cursor secret (256 bits).
const MinSecretLength = 32

var weakSecrets = []string{"secret", "password", "test", "admin", "default", "changeme"}

// Config is the full process configuration.
type Config struct {
	Version    string            `yaml:"version"`
	HTTP       HTTPConfig        `yaml:"http"`
	Database   DatabaseConfig    `yaml:"database"`
	Redis      RedisConfig       `yaml:"redis"`
	Cache      CacheConfig       `yaml:"cache"`
	Pagination pagination.Config `yaml:"pagination"`
	Auth       AuthConfig        `yaml:"auth"`
	Reconcile  ReconcileConfig   `yaml:"reconcile"`
	Tracing    TracingConfig     `yaml:"tracing"`
	Log        LogConfig         `yaml:"log"`
}

// HTTPConfig configures the API listener and its request limits.
type HTTPConfig struct {
	Addr              string        `yaml:"addr"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	ReadTimeout       time.Duration `yaml:"read_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout"`
	IdleTimeout       time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
	// RequestTimeout bounds each handler's context; zero disables it.
	RequestTimeout time.Duration `yaml:"request_timeout"`
	MaxBodyBytes   int64         `yaml:"max_body_bytes"`
	MaxHeaderBytes int           `yaml:"max_header_bytes"`
	// TrustProxy makes the write limiter key clients by X-Forwarded-For.
	TrustProxy bool `yaml:"trust_proxy"`
	// WriteRate is the sustained mutations per second per client; zero disables limiting.
	WriteRate  float64 `yaml:"write_rate"`
	WriteBurst int     `yaml:"write_burst"`
}

// DatabaseConfig selects the Postgres connection. An empty DSN runs the
// API on the in-memory store.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
	// Migrate runs the schema migration at startup.
	Migrate bool `yaml:"migrate"`
	// Transactions wraps multi-step writes in a transaction. Turn off only
	// for servers that cannot run them.
	Transactions bool `yaml:"transactions"`
}

// RedisConfig points at the cache backend. An empty Addr disables Redis.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// CacheConfig controls the count and genre caches.
type CacheConfig struct {
	PageCountTTL time.Duration `yaml:"page_count_ttl"`
	GenreTTL     time.Duration `yaml:"genre_ttl"`
	// FailClosed surfaces backend errors instead of reading through.
	FailClosed bool `yaml:"fail_closed"`
}

// AuthConfig holds signing secrets.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	// CursorSecret signs pagination cursors. Empty means a random
	// per-process key, so cursors do not survive restarts.
	CursorSecret string `yaml:"cursor_secret"`
}

// ReconcileConfig schedules the rating reconcile job.
type ReconcileConfig struct {
	Schedule   string        `yaml:"schedule"`
	Timezone   string        `yaml:"timezone"`
	Timeout    time.Duration `yaml:"timeout"`
	BatchSize  int           `yaml:"batch_size"`
	PerSecond  float64       `yaml:"per_second"`
	HealthAddr string        `yaml:"health_addr"`
}

// TracingConfig controls the OpenTelemetry tracer provider.
type TracingConfig struct {
	ServiceName string  `yaml:"service_name"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

// LogConfig mirrors logging.Options.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Version: "dev",
		HTTP: HTTPConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
			ShutdownTimeout:   10 * time.Second,
			RequestTimeout:    10 * time.Second,
			MaxBodyBytes:      1 << 20,
			MaxHeaderBytes:    1 << 20,
			WriteRate:         5,
			WriteBurst:        10,
		},
		Database: DatabaseConfig{Migrate: true, Transactions: true},
		Cache: CacheConfig{
			PageCountTTL: time.Minute,
			GenreTTL:     10 * time.Minute,
		},
		Pagination: pagination.DefaultConfig(),
		Reconcile: ReconcileConfig{
			Schedule:   "*/5 * * * *",
			Timezone:   "UTC",
			Timeout:    2 * time.Minute,
			BatchSize:  100,
			PerSecond:  50,
			HealthAddr: ":9091",
		},
		Tracing: TracingConfig{
			ServiceName: "bookshelf",
			SampleRatio: 0.1,
		},
		Log: LogConfig{Level: "info", Format: "json"},
	}
}

// Load builds the configuration from defaults, the YAML file at path (if
// path is non-empty) and the environment, then validates it.
//
// Invalid RECONCILE_* environment values fall back to the file or default
// value with a warning instead of failing the load.
func Load(path string, logger *slog.Logger) (Config, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}
	cfg.applyEnv(logger)
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}
	loadMetrics.RecordLoadTimestamp()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

// Validate reports every invalid field at once. Secrets are checked
// separately by ValidateSecrets.
func (c *Config) Validate() error {
	var errs []error

	if c.HTTP.Addr == "" {
		errs = append(errs, errors.New("http addr is required"))
	}
	for name, d := range map[string]time.Duration{
		"http read_header_timeout": c.HTTP.ReadHeaderTimeout,
		"http shutdown_timeout":    c.HTTP.ShutdownTimeout,
		"cache page_count_ttl":     c.Cache.PageCountTTL,
		"cache genre_ttl":          c.Cache.GenreTTL,
	} {
		if err := pkgconfig.ValidatePositiveDuration(d); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	for name, d := range map[string]time.Duration{
		"http read_timeout":    c.HTTP.ReadTimeout,
		"http write_timeout":   c.HTTP.WriteTimeout,
		"http idle_timeout":    c.HTTP.IdleTimeout,
		"http request_timeout": c.HTTP.RequestTimeout,
	} {
		if err := pkgconfig.ValidateNonNegativeDuration(d); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		errs = append(errs, fmt.Errorf("http max_body_bytes must be positive, got %d", c.HTTP.MaxBodyBytes))
	}
	if c.HTTP.WriteRate < 0 {
		errs = append(errs, fmt.Errorf("http write_rate must be non-negative, got %v", c.HTTP.WriteRate))
	}
	if c.HTTP.WriteRate > 0 && c.HTTP.WriteBurst < 1 {
		errs = append(errs, fmt.Errorf("http write_burst must be at least 1, got %d", c.HTTP.WriteBurst))
	}

	if c.Pagination.DefaultLimit < 1 {
		errs = append(errs, fmt.Errorf("pagination default_limit must be positive, got %d", c.Pagination.DefaultLimit))
	}
	if c.Pagination.MaxLimit < c.Pagination.DefaultLimit {
		errs = append(errs, fmt.Errorf("pagination max_limit %d is below default_limit %d",
			c.Pagination.MaxLimit, c.Pagination.DefaultLimit))
	}

	if err := c.Reconcile.Validate(); err != nil {
		errs = append(errs, err)
	}

	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		errs = append(errs, fmt.Errorf("tracing sample_ratio must be within [0, 1], got %v", c.Tracing.SampleRatio))
	}

	return errors.Join(errs...)
}

// ValidateSecrets checks the signing secrets the API server needs: a
// strong JWT secret and, when set, a strong cursor secret.
func (c *Config) ValidateSecrets() error {
	var errs []error
	if err := validateSecret(c.Auth.JWTSecret); err != nil {
		errs = append(errs, fmt.Errorf("auth jwt_secret: %w", err))
	}
	if c.Auth.CursorSecret != "" {
		if err := validateSecret(c.Auth.CursorSecret); err != nil {
			errs = append(errs, fmt.Errorf("auth cursor_secret: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Validate checks the reconcile job settings.
func (r ReconcileConfig) Validate() error {
	var errs []error
	if err := pkgconfig.ValidateCronSchedule(r.Schedule); err != nil {
		errs = append(errs, fmt.Errorf("reconcile schedule: %w", err))
	}
	if err := pkgconfig.ValidateTimezone(r.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("reconcile timezone: %w", err))
	}
	if err := pkgconfig.ValidateDurationRange(r.Timeout, time.Second, time.Hour); err != nil {
		errs = append(errs, fmt.Errorf("reconcile timeout: %w", err))
	}
	if err := pkgconfig.ValidateIntRange(r.BatchSize, 1, 10000); err != nil {
		errs = append(errs, fmt.Errorf("reconcile batch_size: %w", err))
	}
	if r.PerSecond <= 0 {
		errs = append(errs, fmt.Errorf("reconcile per_second must be positive, got %v", r.PerSecond))
	}
	return errors.Join(errs...)
}

func validateSecret(secret string) error {
	if secret == "" {
		return errors.New("must be set")
	}
	for _, weak := range weakSecrets {
		if secret == weak || secret == weak+"123" {
			return errors.New("must not be a common weak value")
		}
	}
	if len(secret) < MinSecretLength {
		return fmt.Errorf("must be at least %d characters", MinSecretLength)
	}
	return nil
}
