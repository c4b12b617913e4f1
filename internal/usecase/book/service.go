package book

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"bookshelf/internal/common/filter"
	"bookshelf/internal/common/pagination"
	"bookshelf/internal/domain/entity"
	"bookshelf/internal/infra/cache"
	"bookshelf/internal/observability/metrics"
	"bookshelf/internal/repository"
)

// GenresCacheKey is where the distinct genre list is cached.
const GenresCacheKey = "books:genres"

// CreateInput represents the input parameters for creating a new book.
type CreateInput struct {
	Title         string
	Author        string
	Genre         string
	ISBN          string
	PublishedYear int
	Description   string
	CreatedBy     int64
}

// UpdateInput represents the input parameters for updating an existing book.
// Fields with nil values will not be updated.
type UpdateInput struct {
	ID            int64
	Title         *string
	Author        *string
	Genre         *string
	ISBN          *string
	PublishedYear *int
	Description   *string
}

// Service provides book catalog use cases.
type Service struct {
	Repo    repository.BookRepository
	Reviews repository.ReviewRepository
	// Tx groups the book and review deletes. Nil runs them without a transaction.
	Tx repository.Transactor
	// GenreCache may be nil, in which case genres are always read from Repo.
	GenreCache *cache.ListCache
	Logger     *slog.Logger
	Now        func() time.Time
}

// List returns one page of books matching f.
func (s *Service) List(ctx context.Context, f filter.Expr, req pagination.Request) (pagination.Page[*entity.Book], error) {
	page, err := pagination.Paginate[*entity.Book](ctx, s.Repo, Key, f, req)
	if err != nil {
		return page, fmt.Errorf("list books: %w", err)
	}
	return page, nil
}

// ListByCreator returns one page of the books a user added.
func (s *Service) ListByCreator(ctx context.Context, userID int64, f filter.Expr, req pagination.Request) (pagination.Page[*entity.Book], error) {
	if userID <= 0 {
		return pagination.Page[*entity.Book]{}, &entity.ValidationError{Field: "createdBy", Message: "must be a positive integer"}
	}
	scope := filter.Eq{Field: filter.FieldCreatedBy, Value: userID}
	page, err := pagination.Paginate[*entity.Book](ctx, s.Repo, Key, filter.Merge(scope, f), req)
	if err != nil {
		return page, fmt.Errorf("list books by creator: %w", err)
	}
	return page, nil
}

// Get retrieves a single book by its ID.
// Returns ErrInvalidBookID if the ID is not positive.
// Returns ErrBookNotFound if the book does not exist.
func (s *Service) Get(ctx context.Context, id int64) (*entity.Book, error) {
	if id <= 0 {
		return nil, ErrInvalidBookID
	}
	b, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}
	if b == nil {
		return nil, ErrBookNotFound
	}
	return b, nil
}

// Create validates and stores a new book.
func (s *Service) Create(ctx context.Context, in CreateInput) (*entity.Book, error) {
	if in.CreatedBy <= 0 {
		return nil, &entity.ValidationError{Field: "createdBy", Message: "must be positive"}
	}
	b := &entity.Book{
		Title:         strings.TrimSpace(in.Title),
		Author:        strings.TrimSpace(in.Author),
		Genre:         strings.TrimSpace(in.Genre),
		ISBN:          strings.TrimSpace(in.ISBN),
		PublishedYear: in.PublishedYear,
		Description:   in.Description,
		CreatedBy:     in.CreatedBy,
		RatingStatus:  entity.RatingConsistent,
	}
	if err := b.Validate(s.now()); err != nil {
		return nil, err
	}
	if err := s.Repo.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("create book: %w", err)
	}
	metrics.RecordBookWrite("create")
	return b, nil
}

// Update applies the non-nil fields of in to an existing book.
// Returns ErrInvalidBookID if the ID is not positive.
// Returns ErrBookNotFound if the book does not exist.
// Returns a ValidationError if any updated field is invalid.
func (s *Service) Update(ctx context.Context, in UpdateInput) (*entity.Book, error) {
	b, err := s.Get(ctx, in.ID)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		b.Title = strings.TrimSpace(*in.Title)
	}
	if in.Author != nil {
		b.Author = strings.TrimSpace(*in.Author)
	}
	if in.Genre != nil {
		b.Genre = strings.TrimSpace(*in.Genre)
	}
	if in.ISBN != nil {
		b.ISBN = strings.TrimSpace(*in.ISBN)
	}
	if in.PublishedYear != nil {
		b.PublishedYear = *in.PublishedYear
	}
	if in.Description != nil {
		b.Description = *in.Description
	}
	if err := b.Validate(s.now()); err != nil {
		return nil, err
	}

	if err := s.Repo.Update(ctx, b); err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("update book: %w", err)
	}
	metrics.RecordBookWrite("update")
	return b, nil
}

// Delete removes a book and all of its reviews as one unit. Either both are
// gone or, on failure, neither is.
// Returns ErrBookNotFound if the book does not exist.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidBookID
	}

	tx := s.Tx
	if tx == nil {
		tx = repository.NoTx{}
	}

	var removed int64
	err := tx.WithinTx(ctx, func(ctx context.Context) error {
		// Reviews reference the book, so they go first.
		n, err := s.Reviews.DeleteByBook(ctx, id)
		if err != nil {
			return fmt.Errorf("delete reviews of book: %w", err)
		}
		if err := s.Repo.Delete(ctx, id); err != nil {
			if errors.Is(err, entity.ErrNotFound) {
				return ErrBookNotFound
			}
			return fmt.Errorf("delete book: %w", err)
		}
		removed = n
		return nil
	})
	if err != nil {
		return err
	}

	metrics.RecordBookWrite("delete")
	s.logger().InfoContext(ctx, "book deleted",
		slog.Int64("book_id", id),
		slog.Int64("reviews_removed", removed))
	return nil
}

// Genres returns the distinct genres in ascending order, served from the
// genre cache when one is configured.
func (s *Service) Genres(ctx context.Context) ([]string, error) {
	load := func(ctx context.Context) ([]string, error) {
		return s.Repo.Genres(ctx)
	}
	if s.GenreCache == nil {
		genres, err := load(ctx)
		if err != nil {
			return nil, fmt.Errorf("list genres: %w", err)
		}
		if genres == nil {
			genres = []string{}
		}
		return genres, nil
	}
	genres, err := s.GenreCache.Strings(ctx, GenresCacheKey, load)
	if err != nil {
		return nil, fmt.Errorf("list genres: %w", err)
	}
	return genres, nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
