package book

import (
	"bookshelf/internal/common/filter"
	"bookshelf/internal/common/pagination"
	"bookshelf/internal/domain/entity"
)

// Sortable lists the fields books may be sorted by.
var Sortable = pagination.Sortable{
	filter.FieldID:            pagination.KindInt,
	filter.FieldTitle:         pagination.KindString,
	filter.FieldAuthor:        pagination.KindString,
	filter.FieldPublishedYear: pagination.KindInt,
	filter.FieldAverageRating: pagination.KindFloat,
	filter.FieldCreatedAt:     pagination.KindTime,
}

// Key builds the cursor of b for the given sort field. A book without an
// average rating sorts as 0.
func Key(b *entity.Book, field string) pagination.Cursor {
	c := pagination.Cursor{Field: field, ID: b.ID}
	switch field {
	case filter.FieldTitle:
		c.Value = b.Title
	case filter.FieldAuthor:
		c.Value = b.Author
	case filter.FieldPublishedYear:
		c.Value = int64(b.PublishedYear)
	case filter.FieldAverageRating:
		avg := 0.0
		if b.AverageRating != nil {
			avg = *b.AverageRating
		}
		c.Value = avg
	case filter.FieldCreatedAt:
		c.Value = b.CreatedAt
	default:
		c.Field = pagination.IdentityField
		c.Value = b.ID
	}
	return c
}
