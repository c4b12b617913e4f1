package repository

import (
	"context"

	"bookshelf/internal/common/pagination"
	"bookshelf/internal/domain/entity"
)

// BookRepository persists catalog entries.
// Get returns (nil, nil) when the book does not exist.
type BookRepository interface {
	// Find returns one keyset window. It satisfies pagination.Finder.
	Find(ctx context.Context, q pagination.Query) ([]*entity.Book, error)
	Get(ctx context.Context, id int64) (*entity.Book, error)
	Create(ctx context.Context, book *entity.Book) error
	Update(ctx context.Context, book *entity.Book) error
	// Delete removes the book row only; reviews are removed by the caller.
	Delete(ctx context.Context, id int64) error
	// Genres returns the distinct genres in ascending order.
	Genres(ctx context.Context) ([]string, error)
	// UpdateRating stores a recomputed average and its status.
	UpdateRating(ctx context.Context, id int64, average float64, status entity.RatingStatus) error
	// MarkRatingPending flags a book for the reconciler without touching the average.
	MarkRatingPending(ctx context.Context, id int64) error
	// ListPendingRating returns up to limit book ids flagged pending, oldest id first.
	ListPendingRating(ctx context.Context, limit int) ([]int64, error)
}
