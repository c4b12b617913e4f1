package review

import (
	"bookshelf/internal/common/filter"
	"bookshelf/internal/common/pagination"
	"bookshelf/internal/domain/entity"
)

// Sortable lists the fields reviews may be sorted by.
var Sortable = pagination.Sortable{
	filter.FieldID:        pagination.KindInt,
	filter.FieldRating:    pagination.KindInt,
	filter.FieldCreatedAt: pagination.KindTime,
}

// Key builds the cursor of r for the given sort field.
func Key(r *entity.Review, field string) pagination.Cursor {
	c := pagination.Cursor{Field: field, ID: r.ID}
	switch field {
	case filter.FieldRating:
		c.Value = int64(r.Rating)
	case filter.FieldCreatedAt:
		c.Value = r.CreatedAt
	default:
		c.Field = pagination.IdentityField
		c.Value = r.ID
	}
	return c
}
