package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by a ListBackend when the key does not exist.
var ErrMiss = errors.New("cache: miss")

// ListBackend stores short string lists under a key with a TTL.
type ListBackend interface {
	GetList(ctx context.Context, key string) ([]string, error)
	SetList(ctx context.Context, key string, values []string, ttl time.Duration) error
	Ping(ctx context.Context) error
	Close() error
}
