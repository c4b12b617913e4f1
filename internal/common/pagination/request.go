package pagination

import "bookshelf/internal/domain/entity"

// Request is a decoded page request. After and Before are mutually exclusive;
// neither set means the first page.
type Request struct {
	Sort   SortKey
	After  *Cursor
	Before *Cursor
	Limit  int
}

// Forward reports whether the request walks in the sort direction.
// The first page is a forward traversal with no lower bound.
func (r Request) Forward() bool {
	return r.After != nil || r.Before == nil
}

// Validate checks the request invariants.
func (r Request) Validate() error {
	if r.After != nil && r.Before != nil {
		return &entity.ValidationError{Field: "cursor", Message: "after and before are mutually exclusive"}
	}
	if r.Limit < 1 {
		return &entity.ValidationError{Field: "limit", Message: "must be a positive integer"}
	}
	if r.Sort.Field == "" {
		return &entity.ValidationError{Field: "sort", Message: "is required"}
	}
	return nil
}

// WithDefaults fills the sort and limit from config and clamps the limit.
func (r Request) WithDefaults(config Config) Request {
	config = config.Normalize()
	if r.Sort.Field == "" {
		r.Sort = DefaultSort
	}
	if r.Limit <= 0 {
		r.Limit = config.DefaultLimit
	}
	if r.Limit > config.MaxLimit {
		r.Limit = config.MaxLimit
	}
	return r
}
