package pagination

import (
	"net/http"
	"strconv"

	"bookshelf/internal/domain/entity"
)

// ParseQueryParams parses pagination parameters from the HTTP request query string.
//
// Query parameters:
//   - sort: field name, "-" prefixed for descending (default "-id")
//   - after / before: cursor tokens issued by a previous page, mutually exclusive
//   - limit: items per page, positive integer, clamped to config.MaxLimit
//
// Returns a validation error for malformed values.
func ParseQueryParams(r *http.Request, config Config, allowed Sortable, codec *CursorCodec) (Request, error) {
	config = config.Normalize()
	q := r.URL.Query()

	sort, err := ParseSortKey(q.Get("sort"), allowed)
	if err != nil {
		return Request{}, err
	}
	req := Request{Sort: sort, Limit: config.DefaultLimit}

	if limitStr := q.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			return Request{}, &entity.ValidationError{Field: "limit", Message: "must be a positive integer"}
		}
		req.Limit = min(limit, config.MaxLimit)
	}

	after, before := q.Get("after"), q.Get("before")
	if after != "" && before != "" {
		return Request{}, &entity.ValidationError{Field: "cursor", Message: "after and before are mutually exclusive"}
	}

	kind := allowed.Kind(sort.Field)
	if after != "" {
		c, err := codec.Decode(after, sort.Field, kind)
		if err != nil {
			return Request{}, &entity.ValidationError{Field: "after", Message: err.Error()}
		}
		req.After = c
	}
	if before != "" {
		c, err := codec.Decode(before, sort.Field, kind)
		if err != nil {
			return Request{}, &entity.ValidationError{Field: "before", Message: err.Error()}
		}
		req.Before = c
	}

	return req, nil
}
