// Package entity defines the core domain entities and validation logic for the application.
// It contains the catalog objects (Book, Review, User) along with
// their validation rules and domain-specific errors.
package entity

import (
	"strings"
	"time"
)

// MinPublishedYear is the earliest publication year accepted for a book.
const MinPublishedYear = 1450

// RatingStatus tracks whether a book's denormalized average rating reflects its reviews.
type RatingStatus string

const (
	// RatingConsistent means the stored average matches the last successful recompute.
	RatingConsistent RatingStatus = "consistent"
	// RatingPendingRecompute means a recompute failed and the reconciler must repair the value.
	RatingPendingRecompute RatingStatus = "pending"
)

// Book represents a catalog entry.
// AverageRating is nil until the first recompute writes it.
type Book struct {
	ID            int64
	Title         string
	Author        string
	Genre         string
	ISBN          string
	PublishedYear int
	AverageRating *float64
	RatingStatus  RatingStatus
	Description   string
	CreatedBy     int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Validate checks the required catalog fields.
func (b *Book) Validate(now time.Time) error {
	if strings.TrimSpace(b.Title) == "" {
		return &ValidationError{Field: "title", Message: "is required"}
	}
	if strings.TrimSpace(b.Author) == "" {
		return &ValidationError{Field: "author", Message: "is required"}
	}
	if strings.TrimSpace(b.Genre) == "" {
		return &ValidationError{Field: "genre", Message: "is required"}
	}
	return ValidatePublishedYear(b.PublishedYear, now)
}

// ValidatePublishedYear rejects years before printing or in the future.
func ValidatePublishedYear(year int, now time.Time) error {
	if year < MinPublishedYear || year > now.Year() {
		return &ValidationError{Field: "publishedYear", Message: "must be between 1450 and the current year"}
	}
	return nil
}
