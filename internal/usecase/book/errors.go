// Package book provides use cases for the book catalog.
// It implements listing with keyset pagination, CRUD with validation,
// cascade deletion of reviews and the cached genre list.
package book

import "errors"

// Sentinel errors for book use case operations.
var (
	// ErrBookNotFound indicates that the requested book was not found.
	ErrBookNotFound = errors.New("book not found")

	// ErrInvalidBookID indicates that the provided book ID is invalid.
	// Book IDs must be positive integers.
	ErrInvalidBookID = errors.New("invalid book ID")
)
