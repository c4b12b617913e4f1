// Package review provides use cases for book reviews.
// Review writes keep the book's average rating current through the rating
// aggregator.
package review

import "errors"

// Sentinel errors for review use case operations.
var (
	// ErrReviewNotFound indicates that the requested review was not found.
	ErrReviewNotFound = errors.New("review not found")

	// ErrInvalidReviewID indicates that the provided review ID is invalid.
	ErrInvalidReviewID = errors.New("invalid review ID")

	// ErrAlreadyReviewed indicates that the user already reviewed this book.
	ErrAlreadyReviewed = errors.New("book already reviewed by this user")

	// ErrForbidden indicates that the caller does not own the review.
	ErrForbidden = errors.New("review belongs to another user")

	// ErrRatingPending indicates that the review write succeeded but the
	// book's average rating could not be updated and was left for the
	// reconciler. The review returned alongside it is committed.
	ErrRatingPending = errors.New("average rating update pending")
)
