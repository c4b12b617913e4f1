package cache

import (
	"context"
	"fmt"
	"time"
)

// DefaultListTTL is the expiry of cached lookup lists such as genres.
const DefaultListTTL = time.Hour

// LoadFunc produces the list from the source of truth.
type LoadFunc func(ctx context.Context) ([]string, error)

// ListCache caches small string lists. Empty results are not stored.
type ListCache struct {
	guard
}

// NewListCache creates a list cache. A zero TTL uses DefaultListTTL.
func NewListCache(backend ListBackend, opts Options) *ListCache {
	if opts.Name == "" {
		opts.Name = "list"
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultListTTL
	}
	return &ListCache{guard: newGuard(backend, opts)}
}

// Strings returns the list cached at key, loading and storing it on miss.
func (c *ListCache) Strings(ctx context.Context, key string, load LoadFunc) ([]string, error) {
	values, ok, err := c.get(ctx, key)
	if err != nil {
		return nil, err
	}
	if ok {
		RecordHit(c.opts.Name)
		return values, nil
	}
	RecordMiss(c.opts.Name)

	values, err = load(ctx)
	if err != nil {
		return nil, fmt.Errorf("Strings: %w", err)
	}
	c.set(ctx, key, values)
	if values == nil {
		values = []string{}
	}
	return values, nil
}
