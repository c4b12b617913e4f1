package entity

import (
	"time"
	"unicode/utf8"
)

const (
	// MinRating is the lowest star rating a review may carry.
	MinRating = 1
	// MaxRating is the highest star rating a review may carry.
	MaxRating = 5
	// MaxCommentLength bounds review comments in characters.
	MaxCommentLength = 500
)

// Review is a user's rating of a book, optionally with a comment.
// User is only filled when the listing populates the author reference.
type Review struct {
	ID        int64
	BookID    int64
	UserID    int64
	Rating    int
	Comment   string
	User      *User
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidateRating checks the 1..5 star range.
func ValidateRating(rating int) error {
	if rating < MinRating || rating > MaxRating {
		return &ValidationError{Field: "rating", Message: "must be between 1 and 5"}
	}
	return nil
}

// ValidateComment enforces the comment length limit.
func ValidateComment(comment string) error {
	if utf8.RuneCountInString(comment) > MaxCommentLength {
		return &ValidationError{Field: "comment", Message: "too long (max 500 characters)"}
	}
	return nil
}
