// Package review provides HTTP handlers for book reviews.
package review

import (
	"time"

	"bookshelf/internal/domain/entity"
)

// UserDTO is the populated review author.
type UserDTO struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// DTO represents the JSON structure for review data transfer.
type DTO struct {
	ID        int64     `json:"id"`
	BookID    int64     `json:"bookId"`
	UserID    int64     `json:"userId"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	User      *UserDTO  `json:"user,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toDTO(r *entity.Review) DTO {
	dto := DTO{
		ID:        r.ID,
		BookID:    r.BookID,
		UserID:    r.UserID,
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.User != nil {
		dto.User = &UserDTO{ID: r.User.ID, Name: r.User.Name, Email: r.User.Email}
	}
	return dto
}

type createRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type updateRequest struct {
	Rating  *int    `json:"rating"`
	Comment *string `json:"comment"`
}
