package pagination

import (
	"strings"

	"bookshelf/internal/domain/entity"
)

// Direction is the sort direction: +1 ascending, -1 descending.
type Direction int

const (
	Ascending  Direction = 1
	Descending Direction = -1
)

// Reverse returns the opposite direction.
func (d Direction) Reverse() Direction {
	return -d
}

func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// ValueKind describes how a sort field's cursor value is typed.
type ValueKind int

const (
	KindInt ValueKind = iota
	KindFloat
	KindString
	KindTime
)

// Sortable lists the fields a listing may be sorted by and their value kinds.
// The identity field is always sortable.
type Sortable map[string]ValueKind

// IdentityField is the unique tie-breaker appended to every sort.
const IdentityField = "id"

// SortKey is a single field plus direction.
type SortKey struct {
	Field     string
	Direction Direction
}

// DefaultSort is newest-first by identity.
var DefaultSort = SortKey{Field: IdentityField, Direction: Descending}

func (s SortKey) String() string {
	if s.Direction == Descending {
		return "-" + s.Field
	}
	return s.Field
}

// ParseSortKey parses "field" or "-field". An empty string yields DefaultSort.
func ParseSortKey(raw string, allowed Sortable) (SortKey, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultSort, nil
	}

	key := SortKey{Field: raw, Direction: Ascending}
	if strings.HasPrefix(raw, "-") {
		key = SortKey{Field: raw[1:], Direction: Descending}
	}

	if key.Field == IdentityField {
		return key, nil
	}
	if _, ok := allowed[key.Field]; !ok {
		return SortKey{}, &entity.ValidationError{Field: "sort", Message: "unsupported sort field " + key.Field}
	}
	return key, nil
}

// Kind returns the value kind of the sort field.
func (s Sortable) Kind(field string) ValueKind {
	if field == IdentityField {
		return KindInt
	}
	return s[field]
}
