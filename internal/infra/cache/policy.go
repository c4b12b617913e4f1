package cache

import (
	"context"
	"log/slog"
)

// FailurePolicy decides what a cache read does when the backend fails.
type FailurePolicy int

const (
	// FailOpen logs the error and falls through to the source of truth.
	FailOpen FailurePolicy = iota
	// FailClosed returns the backend error to the caller.
	FailClosed
)

func (p FailurePolicy) String() string {
	if p == FailClosed {
		return "fail_closed"
	}
	return "fail_open"
}

// handle applies the policy to a backend error. A nil return means the
// caller should continue without the cache.
func (p FailurePolicy) handle(ctx context.Context, logger *slog.Logger, cacheName, op, key string, err error) error {
	RecordError(cacheName, op)
	if p == FailClosed {
		return err
	}
	logger.WarnContext(ctx, "cache unavailable, continuing without it",
		slog.String("cache", cacheName),
		slog.String("op", op),
		slog.String("key", key),
		slog.Any("error", err))
	return nil
}
