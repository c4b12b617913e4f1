// Package pathutil parses path parameters and JSON bodies and normalizes
// request paths for metric labels.
package pathutil

import (
	"errors"
	"net/http"
	"strconv"
)

// ErrInvalidID is returned when the ID in the URL path is invalid.
var ErrInvalidID = errors.New("invalid id")

// ParseID reads the named ServeMux wildcard (for example "id" in
// "/books/{id}") as a positive int64.
//
// Example:
//
//	// route "GET /books/{id}", request "/books/123"
//	id, err := ParseID(r, "id")
//	// Returns: 123, nil
func ParseID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidID
	}
	return id, nil
}
