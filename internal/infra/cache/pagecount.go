package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"bookshelf/internal/common/pagination"
)

// DefaultPageCountTTL is how long a page count stays cached. Entries are not
// invalidated on writes, so a count may lag by up to one TTL.
const DefaultPageCountTTL = 30 * time.Minute

// CountFunc returns the number of records matching the cached scope.
type CountFunc func(ctx context.Context) (int64, error)

// PageCountCache caches ceil(total/limit) per collection, scope and limit.
type PageCountCache struct {
	guard
	group singleflight.Group
}

// NewPageCountCache creates a page-count cache. A zero TTL uses
// DefaultPageCountTTL.
func NewPageCountCache(backend ListBackend, opts Options) *PageCountCache {
	if opts.Name == "" {
		opts.Name = "pagecount"
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultPageCountTTL
	}
	return &PageCountCache{guard: newGuard(backend, opts)}
}

// PageCountKey builds "<collection>[:<scope>]:pagecount:<limit>".
func PageCountKey(collection, scope string, limit int) string {
	if scope == "" {
		return fmt.Sprintf("%s:pagecount:%d", collection, limit)
	}
	return fmt.Sprintf("%s:%s:pagecount:%d", collection, scope, limit)
}

// sharedCountTimeout bounds a count shared by several callers, since it no
// longer follows any one caller's deadline.
const sharedCountTimeout = 30 * time.Second

// PageCount returns the cached page count or computes it from count.
// Concurrent misses for the same key share one count call, which runs
// detached from the caller that started it; each caller stops waiting when
// its own ctx ends. Errors from count are returned; backend errors follow
// the failure policy.
func (c *PageCountCache) PageCount(ctx context.Context, collection, scope string, limit int, count CountFunc) (int, error) {
	key := PageCountKey(collection, scope, limit)
	ch := c.group.DoChan(key, func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedCountTimeout)
		defer cancel()

		values, ok, err := c.get(ctx, key)
		if err != nil {
			return 0, err
		}
		if ok {
			if pages, perr := strconv.Atoi(values[0]); perr == nil && pages >= 0 {
				RecordHit(c.opts.Name)
				return pages, nil
			}
			RecordError(c.opts.Name, "decode")
		}
		RecordMiss(c.opts.Name)

		total, err := count(ctx)
		if err != nil {
			return 0, fmt.Errorf("PageCount: %w", err)
		}
		pages := pagination.PageCount(total, limit)
		c.set(ctx, key, []string{strconv.Itoa(pages), strconv.FormatInt(total, 10)})
		return pages, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return 0, res.Err
		}
		return res.Val.(int), nil
	case <-ctx.Done():
		return 0, fmt.Errorf("PageCount: %w", ctx.Err())
	}
}
