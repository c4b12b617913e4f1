// Package filter translates listing query parameters into a storage-neutral
// predicate tree. Storage adapters compile the tree into their own query
// language (SQL WHERE clauses, in-memory matchers).
package filter

// Logical field names understood by every storage adapter.
const (
	FieldID            = "id"
	FieldTitle         = "title"
	FieldAuthor        = "author"
	FieldGenre         = "genre"
	FieldPublishedYear = "publishedYear"
	FieldAverageRating = "averageRating"
	FieldCreatedBy     = "createdBy"
	FieldCreatedAt     = "createdAt"
	FieldBook          = "book"
	FieldUser          = "user"
	FieldRating        = "rating"
)

// Expr is a node of the predicate tree.
type Expr interface {
	isExpr()
}

// And matches when every child matches. An empty And matches everything.
type And []Expr

// Eq is an exact match on a field.
type Eq struct {
	Field string
	Value any
}

// In matches when the field equals any of Values.
type In struct {
	Field  string
	Values []string
}

// Range is a numeric range; a nil bound is open.
type Range struct {
	Field string
	Gte   *float64
	Lte   *float64
}

// Prefix is an anchored, case-insensitive prefix match.
type Prefix struct {
	Field string
	Value string
}

// Text is a full-text search over the collection's text index.
type Text struct {
	Query string
}

// Comparison is the operator of a keyset bound.
type Comparison string

const (
	// GreaterThan selects rows after the cursor in ascending order.
	GreaterThan Comparison = ">"
	// LessThan selects rows before the cursor in ascending order.
	LessThan Comparison = "<"
)

// Keyset bounds a scan relative to a cursor: (Field, id) Op (Value, ID).
// The identity tie-break keeps windows deterministic when sort values repeat.
type Keyset struct {
	Field string
	Op    Comparison
	Value any
	ID    int64
}

func (And) isExpr()    {}
func (Eq) isExpr()     {}
func (In) isExpr()     {}
func (Range) isExpr()  {}
func (Prefix) isExpr() {}
func (Text) isExpr()   {}
func (Keyset) isExpr() {}

// Merge flattens the given expressions into a single And, skipping nils.
// Nested Ands are inlined so adapters see one conjunction.
func Merge(exprs ...Expr) And {
	out := And{}
	for _, e := range exprs {
		switch v := e.(type) {
		case nil:
		case And:
			out = append(out, Merge(v...)...)
		default:
			out = append(out, v)
		}
	}
	return out
}

// IsEmpty reports whether e matches everything.
func IsEmpty(e Expr) bool {
	if e == nil {
		return true
	}
	a, ok := e.(And)
	return ok && len(Merge(a...)) == 0
}
