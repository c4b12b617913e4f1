package db

import (
	"database/sql"
)

// MigrateUp creates the catalog schema. Every statement is idempotent.
func MigrateUp(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS users (
    id         BIGSERIAL PRIMARY KEY,
    name       TEXT NOT NULL,
    email      TEXT NOT NULL UNIQUE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`); err != nil {
		return err
	}

	// average_rating stays NULL until the first recompute.
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS books (
    id             BIGSERIAL PRIMARY KEY,
    title          TEXT NOT NULL,
    author         TEXT NOT NULL,
    genre          TEXT NOT NULL,
    isbn           TEXT NOT NULL DEFAULT '',
    published_year INTEGER NOT NULL CHECK (published_year >= 1450),
    average_rating DOUBLE PRECISION CHECK (average_rating BETWEEN 0 AND 5),
    rating_status  VARCHAR(16) NOT NULL DEFAULT 'consistent',
    description    TEXT NOT NULL DEFAULT '',
    created_by     BIGINT NOT NULL,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
    search_vector  tsvector GENERATED ALWAYS AS (
        to_tsvector('simple', coalesce(title, '') || ' ' || coalesce(author, '') || ' ' || coalesce(description, ''))
    ) STORED
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS reviews (
    id         BIGSERIAL PRIMARY KEY,
    book_id    BIGINT NOT NULL REFERENCES books(id) ON DELETE CASCADE,
    user_id    BIGINT NOT NULL,
    rating     SMALLINT NOT NULL CHECK (rating BETWEEN 1 AND 5),
    comment    VARCHAR(500) NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    UNIQUE (book_id, user_id)
)`); err != nil {
		return err
	}

	// Keyset scans need (sort column, id) composite indexes.
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_books_average_rating ON books((COALESCE(average_rating, 0)), id)`,
		`CREATE INDEX IF NOT EXISTS idx_books_published_year ON books(published_year, id)`,
		`CREATE INDEX IF NOT EXISTS idx_books_created_at ON books(created_at, id)`,
		`CREATE INDEX IF NOT EXISTS idx_books_genre ON books(genre)`,
		`CREATE INDEX IF NOT EXISTS idx_books_created_by ON books(created_by)`,
		`CREATE INDEX IF NOT EXISTS idx_books_rating_pending ON books(id) WHERE rating_status = 'pending'`,
		`CREATE INDEX IF NOT EXISTS idx_books_search ON books USING gin(search_vector)`,
		`CREATE INDEX IF NOT EXISTS idx_reviews_book_id ON reviews(book_id, id)`,
		`CREATE INDEX IF NOT EXISTS idx_reviews_book_rating ON reviews(book_id, rating, id)`,
	}
	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			return err
		}
	}

	return nil
}

// MigrateDown drops the catalog schema.
// Use with caution: this will delete all data in the affected tables.
func MigrateDown(db *sql.DB) error {
	dropStatements := []string{
		`DROP TABLE IF EXISTS reviews CASCADE`,
		`DROP TABLE IF EXISTS books CASCADE`,
		`DROP TABLE IF EXISTS users CASCADE`,
	}

	for _, stmt := range dropStatements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}
