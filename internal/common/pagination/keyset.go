package pagination

import (
	"context"
	"fmt"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"bookshelf/internal/common/filter"
)

// Query is what the storage collaborator receives for one window fetch.
// Rows are ordered by Sort then by identity in the same direction.
type Query struct {
	Filter   filter.Expr
	Sort     SortKey
	Limit    int
	Populate []string
}

// Finder executes a Query against a collection.
type Finder[T any] interface {
	Find(ctx context.Context, q Query) ([]T, error)
}

// FinderFunc adapts a function to Finder.
type FinderFunc[T any] func(ctx context.Context, q Query) ([]T, error)

// Find calls f(ctx, q).
func (f FinderFunc[T]) Find(ctx context.Context, q Query) ([]T, error) {
	return f(ctx, q)
}

// KeyFunc extracts an item's cursor for the given sort field.
type KeyFunc[T any] func(item T, field string) Cursor

// Page is one window of items plus its navigation descriptor.
type Page[T any] struct {
	Items    []T
	PageInfo PageInfo
}

// PageInfo describes navigability around the returned window.
type PageInfo struct {
	HasNextPage bool
	HasPrevPage bool
	NextCursor  *Cursor
	PrevCursor  *Cursor
	PageCount   *int
}

type options struct {
	populate []string
}

// Option customizes a Paginate call.
type Option func(*options)

// WithPopulate asks the storage collaborator to expand the named references.
func WithPopulate(relations ...string) Option {
	return func(o *options) {
		o.populate = append(o.populate, relations...)
	}
}

var tracer = otel.Tracer("bookshelf/pagination")

// Paginate fetches one keyset window. base carries the caller's scope and user
// filters; the cursor bound is merged into it, never replacing it.
//
// Forward traversal bounds by After and queries in the requested direction.
// Backward traversal bounds by Before, queries in the reverse direction and
// reverses the result. One extra row is fetched to detect more data and is
// never returned.
func Paginate[T any](ctx context.Context, finder Finder[T], key KeyFunc[T], base filter.Expr, req Request, opts ...Option) (Page[T], error) {
	if err := req.Validate(); err != nil {
		return Page[T]{}, err
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	forward := req.Forward()
	direction := "forward"
	if !forward {
		direction = "backward"
	}

	ctx, span := tracer.Start(ctx, "pagination.Paginate")
	defer span.End()
	span.SetAttributes(
		attribute.String("pagination.sort", req.Sort.String()),
		attribute.String("pagination.direction", direction),
		attribute.Int("pagination.limit", req.Limit),
	)

	start := time.Now()
	defer func() {
		RecordDuration(direction, time.Since(start).Seconds())
	}()

	querySort := req.Sort
	var bound filter.Expr
	if forward {
		if req.After != nil {
			bound = keysetBound(req.Sort, req.After, true)
		}
	} else {
		querySort.Direction = req.Sort.Direction.Reverse()
		bound = keysetBound(req.Sort, req.Before, false)
	}

	items, err := finder.Find(ctx, Query{
		Filter:   filter.Merge(base, bound),
		Sort:     querySort,
		Limit:    req.Limit + 1,
		Populate: o.populate,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "find failed")
		RecordError("storage")
		return Page[T]{}, fmt.Errorf("paginate: %w", err)
	}

	hasMore := len(items) > req.Limit
	if hasMore {
		items = items[:req.Limit]
	}
	if !forward {
		slices.Reverse(items)
	}
	if items == nil {
		items = []T{}
	}

	info := PageInfo{}
	if forward {
		info.HasNextPage = hasMore
		info.HasPrevPage = req.After != nil
	} else {
		info.HasPrevPage = hasMore
		info.HasNextPage = true
	}
	if len(items) > 0 {
		next := key(items[len(items)-1], req.Sort.Field)
		prev := key(items[0], req.Sort.Field)
		info.NextCursor = &next
		info.PrevCursor = &prev
	}

	RecordRequest(direction, len(items))
	span.SetAttributes(attribute.Int("pagination.returned", len(items)), attribute.Bool("pagination.has_more", hasMore))

	return Page[T]{Items: items, PageInfo: info}, nil
}

// keysetBound builds the row comparison for a cursor. Forward ascending and
// backward descending select greater rows; the other two select smaller ones.
func keysetBound(sort SortKey, c *Cursor, forward bool) filter.Keyset {
	op := filter.GreaterThan
	if (sort.Direction == Descending) == forward {
		op = filter.LessThan
	}
	return filter.Keyset{Field: sort.Field, Op: op, Value: c.Value, ID: c.ID}
}
