package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"bookshelf/internal/resilience/circuitbreaker"
)

// Options configures a cache built on a ListBackend.
type Options struct {
	// Name labels metrics, logs and the circuit breaker.
	Name string
	// TTL is the expiry applied to every stored entry.
	TTL time.Duration
	// Policy defaults to FailOpen.
	Policy FailurePolicy
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// guard runs backend calls through a circuit breaker and applies the
// failure policy. A nil backend disables caching entirely.
type guard struct {
	backend ListBackend
	breaker *circuitbreaker.CircuitBreaker
	opts    Options
}

func newGuard(backend ListBackend, opts Options) guard {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return guard{
		backend: backend,
		breaker: circuitbreaker.New(circuitbreaker.CacheConfig("cache-" + opts.Name)),
		opts:    opts,
	}
}

// get returns (values, true, nil) on hit and (nil, false, nil) on miss or on
// a tolerated backend failure.
func (g guard) get(ctx context.Context, key string) ([]string, bool, error) {
	if g.backend == nil {
		return nil, false, nil
	}
	res, err := g.breaker.Execute(func() (interface{}, error) {
		values, err := g.backend.GetList(ctx, key)
		if errors.Is(err, ErrMiss) {
			return []string(nil), nil
		}
		return values, err
	})
	if err != nil {
		return nil, false, g.opts.Policy.handle(ctx, g.opts.Logger, g.opts.Name, "get", key, err)
	}
	values, _ := res.([]string)
	if len(values) == 0 {
		return nil, false, nil
	}
	return values, true, nil
}

// set stores values; failures are logged and counted but never returned,
// since the caller already holds a fresh value.
func (g guard) set(ctx context.Context, key string, values []string) {
	if g.backend == nil || len(values) == 0 {
		return
	}
	_, err := g.breaker.Execute(func() (interface{}, error) {
		return nil, g.backend.SetList(ctx, key, values, g.opts.TTL)
	})
	if err != nil {
		_ = FailOpen.handle(ctx, g.opts.Logger, g.opts.Name, "set", key, err)
	}
}
