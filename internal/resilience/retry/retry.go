// Package retry re-runs operations that failed with transient errors,
// waiting with exponential backoff and jitter between attempts.
package retry

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"net"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// Config controls attempts and backoff.
type Config struct {
	// MaxAttempts counts the first call; values below 1 mean a single call.
	MaxAttempts  int
	InitialDelay time.Duration
	// MaxDelay caps the backoff before jitter; zero means uncapped.
	MaxDelay   time.Duration
	Multiplier float64
	// JitterFraction adds up to this fraction of the delay at random (0.0 to 1.0).
	JitterFraction float64
}

// RatingWriteConfig returns configuration for average rating writes, which
// run inline with a review request and must give up quickly.
func RatingWriteConfig() Config {
	return Config{
		MaxAttempts:    3,
		InitialDelay:   50 * time.Millisecond,
		MaxDelay:       500 * time.Millisecond,
		Multiplier:     2.0,
		JitterFraction: 0.1,
	}
}

// Delay returns the wait after failed attempt n (1-based), before jitter.
func (c Config) Delay(n int) time.Duration {
	mult := c.Multiplier
	if mult < 1 {
		mult = 1
	}
	d := float64(c.InitialDelay) * math.Pow(mult, float64(n-1))
	if c.MaxDelay > 0 && d > float64(c.MaxDelay) {
		d = float64(c.MaxDelay)
	}
	return time.Duration(d)
}

// WithBackoff calls fn until it succeeds, fails with an error IsRetryable
// rejects, runs out of attempts or ctx ends. Non-retryable errors are
// returned unwrapped.
func WithBackoff(ctx context.Context, cfg Config, fn func() error) error {
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for n := 1; ; n++ {
		if err = fn(); err == nil {
			if n > 1 {
				slog.InfoContext(ctx, "operation succeeded after retry", slog.Int("attempt", n))
			}
			return nil
		}
		if !IsRetryable(err) {
			return err
		}
		if n == attempts {
			break
		}

		wait := addJitter(cfg.Delay(n), cfg.JitterFraction)
		slog.WarnContext(ctx, "operation failed, retrying",
			slog.Int("attempt", n),
			slog.Int("max_attempts", attempts),
			slog.Duration("delay", wait),
			slog.Any("error", err))

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry aborted: %w", ctx.Err())
		}
	}
	return fmt.Errorf("max retry attempts (%d) exceeded: %w", attempts, err)
}

// IsRetryable reports whether err is worth another attempt: errors marked
// with Transient, network timeouts, refused or reset connections, broken
// pooled connections and Postgres connection (08) or transaction rollback
// (40) classes. Context cancellation is never retryable.
func IsRetryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	}

	var te *transientError
	if errors.As(err, &te) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	for _, target := range []error{
		syscall.ECONNREFUSED, syscall.ECONNRESET, syscall.ETIMEDOUT, syscall.ENETUNREACH,
		driver.ErrBadConn, sql.ErrConnDone,
	} {
		if errors.Is(err, target) {
			return true
		}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.HasPrefix(pgErr.Code, "08") || strings.HasPrefix(pgErr.Code, "40")
	}
	return pgconn.Timeout(err)
}

// transientError marks an error as safe to retry.
type transientError struct{ err error }

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// Transient wraps err so IsRetryable reports true for it.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

func addJitter(d time.Duration, fraction float64) time.Duration {
	if fraction <= 0 || d <= 0 {
		return d
	}
	if fraction > 1 {
		fraction = 1
	}
	// #nosec G404 -- jitter does not need cryptographic randomness.
	return d + time.Duration(rand.Float64()*float64(d)*fraction)
}
