// Package book provides HTTP handlers for the book catalog endpoints.
package book

import (
	"time"

	"bookshelf/internal/domain/entity"
)

// DTO represents the JSON structure for book data transfer.
type DTO struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	Genre         string    `json:"genre"`
	ISBN          string    `json:"isbn,omitempty"`
	PublishedYear int       `json:"publishedYear"`
	AverageRating *float64  `json:"averageRating"`
	RatingStatus  string    `json:"ratingStatus"`
	Description   string    `json:"description,omitempty"`
	CreatedBy     int64     `json:"createdBy"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// toDTO converts a domain book to its JSON representation.
func toDTO(b *entity.Book) DTO {
	return DTO{
		ID:            b.ID,
		Title:         b.Title,
		Author:        b.Author,
		Genre:         b.Genre,
		ISBN:          b.ISBN,
		PublishedYear: b.PublishedYear,
		AverageRating: b.AverageRating,
		RatingStatus:  string(b.RatingStatus),
		Description:   b.Description,
		CreatedBy:     b.CreatedBy,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
}

func toDTOs(books []*entity.Book) []DTO {
	dtos := make([]DTO, 0, len(books))
	for _, b := range books {
		dtos = append(dtos, toDTO(b))
	}
	return dtos
}

type createRequest struct {
	Title         string `json:"title"`
	Author        string `json:"author"`
	Genre         string `json:"genre"`
	ISBN          string `json:"isbn"`
	PublishedYear int    `json:"publishedYear"`
	Description   string `json:"description"`
}

type updateRequest struct {
	Title         *string `json:"title"`
	Author        *string `json:"author"`
	Genre         *string `json:"genre"`
	ISBN          *string `json:"isbn"`
	PublishedYear *int    `json:"publishedYear"`
	Description   *string `json:"description"`
}

type genresResponse struct {
	Genres []string `json:"genres"`
}
