package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"bookshelf/internal/common/pagination"
	"bookshelf/internal/domain/entity"
	"bookshelf/internal/repository"
)

type BookRepo struct {
	db *sql.DB
	qb *QueryBuilder
}

func NewBookRepo(db *sql.DB) repository.BookRepository {
	return &BookRepo{db: db, qb: NewQueryBuilder(bookColumns, "b.search_vector")}
}

const bookSelect = `
SELECT b.id, b.title, b.author, b.genre, b.isbn, b.published_year,
       b.average_rating, b.rating_status, b.description, b.created_by,
       b.created_at, b.updated_at
FROM books b`

type scanner interface {
	Scan(dest ...any) error
}

func scanBook(s scanner) (*entity.Book, error) {
	var book entity.Book
	var avg sql.NullFloat64
	var status string
	if err := s.Scan(
		&book.ID, &book.Title, &book.Author, &book.Genre, &book.ISBN, &book.PublishedYear,
		&avg, &status, &book.Description, &book.CreatedBy,
		&book.CreatedAt, &book.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if avg.Valid {
		book.AverageRating = &avg.Float64
	}
	book.RatingStatus = entity.RatingStatus(status)
	return &book, nil
}

func (repo *BookRepo) Find(ctx context.Context, q pagination.Query) ([]*entity.Book, error) {
	defer observe("books.find", time.Now())
	if len(q.Populate) > 0 {
		return nil, fmt.Errorf("Find: books have no relation %q", q.Populate[0])
	}
	where, args, err := repo.qb.BuildWhereClause(q.Filter, 1)
	if err != nil {
		return nil, fmt.Errorf("Find: %w", err)
	}
	orderBy, err := repo.qb.OrderBy(q.Sort)
	if err != nil {
		return nil, fmt.Errorf("Find: %w", err)
	}

	args = append(args, q.Limit)
	query := strings.Join([]string{bookSelect, where, orderBy, fmt.Sprintf("LIMIT $%d", len(args))}, "\n")

	rows, err := conn(ctx, repo.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("Find: %w", err)
	}
	defer func() { _ = rows.Close() }()

	books := make([]*entity.Book, 0, q.Limit)
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("Find: %w", err)
		}
		books = append(books, book)
	}
	return books, rows.Err()
}

func (repo *BookRepo) Get(ctx context.Context, id int64) (*entity.Book, error) {
	query := bookSelect + `
WHERE b.id = $1
LIMIT 1`
	book, err := scanBook(conn(ctx, repo.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return book, nil
}

func (repo *BookRepo) Create(ctx context.Context, book *entity.Book) error {
	if book.RatingStatus == "" {
		book.RatingStatus = entity.RatingConsistent
	}
	const query = `
INSERT INTO books (title, author, genre, isbn, published_year, rating_status, description, created_by)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, created_at, updated_at`
	err := conn(ctx, repo.db).QueryRowContext(ctx, query,
		book.Title, book.Author, book.Genre, book.ISBN, book.PublishedYear,
		string(book.RatingStatus), book.Description, book.CreatedBy,
	).Scan(&book.ID, &book.CreatedAt, &book.UpdatedAt)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (repo *BookRepo) Update(ctx context.Context, book *entity.Book) error {
	const query = `
UPDATE books SET
       title          = $1,
       author         = $2,
       genre          = $3,
       isbn           = $4,
       published_year = $5,
       description    = $6,
       updated_at     = now()
WHERE id = $7
RETURNING updated_at`
	err := conn(ctx, repo.db).QueryRowContext(ctx, query,
		book.Title, book.Author, book.Genre, book.ISBN, book.PublishedYear,
		book.Description, book.ID,
	).Scan(&book.UpdatedAt)
	if err == sql.ErrNoRows {
		return fmt.Errorf("Update: %w", entity.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("Update: %w", err)
	}
	return nil
}

func (repo *BookRepo) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM books WHERE id = $1`
	res, err := conn(ctx, repo.db).ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("Delete: %w", entity.ErrNotFound)
	}
	return nil
}

func (repo *BookRepo) Genres(ctx context.Context) ([]string, error) {
	defer observe("books.genres", time.Now())
	const query = `SELECT DISTINCT genre FROM books ORDER BY genre ASC`
	rows, err := conn(ctx, repo.db).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("Genres: %w", err)
	}
	defer func() { _ = rows.Close() }()

	genres := make([]string, 0, 32)
	for rows.Next() {
		var g string
		if err := rows.Scan(&g); err != nil {
			return nil, fmt.Errorf("Genres: %w", err)
		}
		genres = append(genres, g)
	}
	return genres, rows.Err()
}

func (repo *BookRepo) UpdateRating(ctx context.Context, id int64, average float64, status entity.RatingStatus) error {
	const query = `
UPDATE books SET
       average_rating = $1,
       rating_status  = $2,
       updated_at     = now()
WHERE id = $3`
	res, err := conn(ctx, repo.db).ExecContext(ctx, query, average, string(status), id)
	if err != nil {
		return fmt.Errorf("UpdateRating: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("UpdateRating: %w", entity.ErrNotFound)
	}
	return nil
}

func (repo *BookRepo) MarkRatingPending(ctx context.Context, id int64) error {
	const query = `UPDATE books SET rating_status = $1 WHERE id = $2`
	if _, err := conn(ctx, repo.db).ExecContext(ctx, query, string(entity.RatingPendingRecompute), id); err != nil {
		return fmt.Errorf("MarkRatingPending: %w", err)
	}
	return nil
}

func (repo *BookRepo) ListPendingRating(ctx context.Context, limit int) ([]int64, error) {
	const query = `
SELECT id FROM books
WHERE rating_status = $1
ORDER BY id ASC
LIMIT $2`
	rows, err := conn(ctx, repo.db).QueryContext(ctx, query, string(entity.RatingPendingRecompute), limit)
	if err != nil {
		return nil, fmt.Errorf("ListPendingRating: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("ListPendingRating: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
