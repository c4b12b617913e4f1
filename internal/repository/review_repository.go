package repository

import (
	"context"
	"errors"

	"bookshelf/internal/common/filter"
	"bookshelf/internal/common/pagination"
	"bookshelf/internal/domain/entity"
)

// ErrDuplicate reports a unique constraint violation.
var ErrDuplicate = errors.New("duplicate record")

// RelationUser expands Review.User with the author's name and email.
const RelationUser = "user"

// RatingStats is the aggregate over one book's reviews.
type RatingStats struct {
	Average float64 // 0 when Count is 0
	Count   int64
}

// ReviewRepository persists reviews.
// Get returns (nil, nil) when the review does not exist.
type ReviewRepository interface {
	// Find returns one keyset window. It satisfies pagination.Finder.
	Find(ctx context.Context, q pagination.Query) ([]*entity.Review, error)
	Get(ctx context.Context, id int64) (*entity.Review, error)
	// Create returns ErrDuplicate when the user already reviewed the book.
	Create(ctx context.Context, review *entity.Review) error
	Update(ctx context.Context, review *entity.Review) error
	Delete(ctx context.Context, id int64) error
	// DeleteByBook removes every review of a book and reports how many were removed.
	DeleteByBook(ctx context.Context, bookID int64) (int64, error)
	// Count returns the number of reviews matching expr.
	Count(ctx context.Context, expr filter.Expr) (int64, error)
	// RatingStats aggregates the ratings of one book.
	RatingStats(ctx context.Context, bookID int64) (RatingStats, error)
}
