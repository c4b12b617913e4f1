package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"bookshelf/internal/common/filter"
	"bookshelf/internal/common/pagination"
	"bookshelf/internal/domain/entity"
	"bookshelf/internal/repository"
)

type bookRecord struct{ b entity.Book }

func (r bookRecord) identity() int64 { return r.b.ID }

func (r bookRecord) text() string {
	return r.b.Title + " " + r.b.Author + " " + r.b.Description
}

func (r bookRecord) field(name string) (any, bool) {
	switch name {
	case filter.FieldID:
		return r.b.ID, true
	case filter.FieldTitle:
		return r.b.Title, true
	case filter.FieldAuthor:
		return r.b.Author, true
	case filter.FieldGenre:
		return r.b.Genre, true
	case filter.FieldPublishedYear:
		return int64(r.b.PublishedYear), true
	case filter.FieldAverageRating:
		if r.b.AverageRating == nil {
			return 0.0, true
		}
		return *r.b.AverageRating, true
	case filter.FieldCreatedBy:
		return r.b.CreatedBy, true
	case filter.FieldCreatedAt:
		return r.b.CreatedAt, true
	default:
		return nil, false
	}
}

func cloneBook(b entity.Book) *entity.Book {
	if b.AverageRating != nil {
		avg := *b.AverageRating
		b.AverageRating = &avg
	}
	return &b
}

type BookRepo struct{ s *Store }

func NewBookRepo(s *Store) repository.BookRepository {
	return &BookRepo{s: s}
}

func (repo *BookRepo) records() []bookRecord {
	out := make([]bookRecord, 0, len(repo.s.books))
	for _, b := range repo.s.books {
		out = append(out, bookRecord{b: b})
	}
	return out
}

func (repo *BookRepo) Find(_ context.Context, q pagination.Query) ([]*entity.Book, error) {
	if len(q.Populate) > 0 {
		return nil, fmt.Errorf("Find: books have no relation %q", q.Populate[0])
	}
	repo.s.mu.RLock()
	defer repo.s.mu.RUnlock()

	recs, err := window(repo.records(), q)
	if err != nil {
		return nil, fmt.Errorf("Find: %w", err)
	}
	books := make([]*entity.Book, 0, len(recs))
	for _, r := range recs {
		books = append(books, cloneBook(r.b))
	}
	return books, nil
}

func (repo *BookRepo) Get(_ context.Context, id int64) (*entity.Book, error) {
	repo.s.mu.RLock()
	defer repo.s.mu.RUnlock()
	b, ok := repo.s.books[id]
	if !ok {
		return nil, nil
	}
	return cloneBook(b), nil
}

func (repo *BookRepo) Create(ctx context.Context, book *entity.Book) error {
	repo.s.mu.Lock()
	defer repo.s.mu.Unlock()

	repo.s.nextBookID++
	now := repo.s.now()
	book.ID = repo.s.nextBookID
	book.CreatedAt, book.UpdatedAt = now, now
	if book.RatingStatus == "" {
		book.RatingStatus = entity.RatingConsistent
	}
	repo.s.journalBook(ctx, book.ID)
	repo.s.books[book.ID] = *cloneBook(*book)
	return nil
}

func (repo *BookRepo) Update(ctx context.Context, book *entity.Book) error {
	repo.s.mu.Lock()
	defer repo.s.mu.Unlock()

	cur, ok := repo.s.books[book.ID]
	if !ok {
		return fmt.Errorf("Update: %w", entity.ErrNotFound)
	}
	cur.Title, cur.Author, cur.Genre = book.Title, book.Author, book.Genre
	cur.ISBN, cur.PublishedYear, cur.Description = book.ISBN, book.PublishedYear, book.Description
	cur.UpdatedAt = repo.s.now()
	book.UpdatedAt = cur.UpdatedAt
	repo.s.journalBook(ctx, book.ID)
	repo.s.books[book.ID] = cur
	return nil
}

func (repo *BookRepo) Delete(ctx context.Context, id int64) error {
	repo.s.mu.Lock()
	defer repo.s.mu.Unlock()
	if _, ok := repo.s.books[id]; !ok {
		return fmt.Errorf("Delete: %w", entity.ErrNotFound)
	}
	repo.s.journalBook(ctx, id)
	delete(repo.s.books, id)
	return nil
}

func (repo *BookRepo) Genres(_ context.Context) ([]string, error) {
	repo.s.mu.RLock()
	defer repo.s.mu.RUnlock()

	seen := make(map[string]bool)
	genres := make([]string, 0, 32)
	for _, b := range repo.s.books {
		if !seen[b.Genre] {
			seen[b.Genre] = true
			genres = append(genres, b.Genre)
		}
	}
	slices.Sort(genres)
	return genres, nil
}

func (repo *BookRepo) UpdateRating(ctx context.Context, id int64, average float64, status entity.RatingStatus) error {
	repo.s.mu.Lock()
	defer repo.s.mu.Unlock()

	b, ok := repo.s.books[id]
	if !ok {
		return fmt.Errorf("UpdateRating: %w", entity.ErrNotFound)
	}
	b.AverageRating = &average
	b.RatingStatus = status
	b.UpdatedAt = repo.s.now()
	repo.s.journalBook(ctx, id)
	repo.s.books[id] = b
	return nil
}

func (repo *BookRepo) MarkRatingPending(ctx context.Context, id int64) error {
	repo.s.mu.Lock()
	defer repo.s.mu.Unlock()

	if b, ok := repo.s.books[id]; ok {
		b.RatingStatus = entity.RatingPendingRecompute
		repo.s.journalBook(ctx, id)
		repo.s.books[id] = b
	}
	return nil
}

func (repo *BookRepo) ListPendingRating(_ context.Context, limit int) ([]int64, error) {
	repo.s.mu.RLock()
	defer repo.s.mu.RUnlock()

	var ids []int64
	for id, b := range repo.s.books {
		if b.RatingStatus == entity.RatingPendingRecompute {
			ids = append(ids, id)
		}
	}
	slices.SortFunc(ids, cmp.Compare[int64])
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}
