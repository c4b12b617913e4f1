// Package postgres provides PostgreSQL implementations of repository interfaces.
package postgres

import (
	"fmt"
	"strings"

	"github.com/lib/pq"

	"bookshelf/internal/common/filter"
	"bookshelf/internal/common/pagination"
)

// QueryBuilder compiles filter expressions into WHERE clauses for one table.
// It is shared between COUNT and SELECT queries and uses numbered placeholders.
type QueryBuilder struct {
	columns    map[string]string
	textColumn string
}

// NewQueryBuilder creates a builder mapping logical field names to SQL
// expressions. textColumn is the tsvector column used by full-text search,
// empty when the table has none.
func NewQueryBuilder(columns map[string]string, textColumn string) *QueryBuilder {
	return &QueryBuilder{columns: columns, textColumn: textColumn}
}

// bookColumns maps book fields; a missing average sorts and filters as 0.
var bookColumns = map[string]string{
	filter.FieldID:            "b.id",
	filter.FieldTitle:         "b.title",
	filter.FieldAuthor:        "b.author",
	filter.FieldGenre:         "b.genre",
	filter.FieldPublishedYear: "b.published_year",
	filter.FieldAverageRating: "COALESCE(b.average_rating, 0)",
	filter.FieldCreatedBy:     "b.created_by",
	filter.FieldCreatedAt:     "b.created_at",
}

var reviewColumns = map[string]string{
	filter.FieldID:        "r.id",
	filter.FieldBook:      "r.book_id",
	filter.FieldUser:      "r.user_id",
	filter.FieldRating:    "r.rating",
	filter.FieldCreatedAt: "r.created_at",
}

// BuildWhereClause returns "WHERE ..." and its arguments, numbering
// placeholders from startIndex. Returns an empty clause for an empty filter.
func (qb *QueryBuilder) BuildWhereClause(expr filter.Expr, startIndex int) (clause string, args []interface{}, err error) {
	conditions, args, err := qb.compile(filter.Merge(expr), startIndex)
	if err != nil {
		return "", nil, err
	}
	if len(conditions) == 0 {
		return "", args, nil
	}
	return "WHERE " + strings.Join(conditions, " AND "), args, nil
}

func (qb *QueryBuilder) compile(exprs filter.And, paramIndex int) ([]string, []interface{}, error) {
	var conditions []string
	var args []interface{}

	next := func(v interface{}) string {
		args = append(args, v)
		p := fmt.Sprintf("$%d", paramIndex)
		paramIndex++
		return p
	}

	for _, e := range exprs {
		switch v := e.(type) {
		case filter.Eq:
			col, err := qb.column(v.Field)
			if err != nil {
				return nil, nil, err
			}
			conditions = append(conditions, fmt.Sprintf("%s = %s", col, next(v.Value)))

		case filter.In:
			col, err := qb.column(v.Field)
			if err != nil {
				return nil, nil, err
			}
			conditions = append(conditions, fmt.Sprintf("%s = ANY(%s)", col, next(pq.Array(v.Values))))

		case filter.Range:
			col, err := qb.column(v.Field)
			if err != nil {
				return nil, nil, err
			}
			if v.Gte != nil {
				conditions = append(conditions, fmt.Sprintf("%s >= %s", col, next(*v.Gte)))
			}
			if v.Lte != nil {
				conditions = append(conditions, fmt.Sprintf("%s <= %s", col, next(*v.Lte)))
			}

		case filter.Prefix:
			col, err := qb.column(v.Field)
			if err != nil {
				return nil, nil, err
			}
			conditions = append(conditions, fmt.Sprintf("%s ILIKE %s", col, next(EscapeILIKE(v.Value)+"%")))

		case filter.Text:
			if qb.textColumn == "" {
				return nil, nil, fmt.Errorf("full-text search is not supported on this table")
			}
			conditions = append(conditions, fmt.Sprintf("%s @@ plainto_tsquery('simple', %s)", qb.textColumn, next(v.Query)))

		case filter.Keyset:
			col, err := qb.column(v.Field)
			if err != nil {
				return nil, nil, err
			}
			idCol := qb.columns[filter.FieldID]
			if v.Field == filter.FieldID {
				conditions = append(conditions, fmt.Sprintf("%s %s %s", idCol, v.Op, next(v.ID)))
				continue
			}
			valueParam := next(v.Value)
			conditions = append(conditions, fmt.Sprintf("(%s, %s) %s (%s, %s)", col, idCol, v.Op, valueParam, next(v.ID)))

		default:
			return nil, nil, fmt.Errorf("unsupported filter expression %T", e)
		}
	}
	return conditions, args, nil
}

// OrderBy returns the ORDER BY clause with the identity tie-break.
func (qb *QueryBuilder) OrderBy(sort pagination.SortKey) (string, error) {
	col, err := qb.column(sort.Field)
	if err != nil {
		return "", err
	}
	dir := "ASC"
	if sort.Direction == pagination.Descending {
		dir = "DESC"
	}
	idCol := qb.columns[filter.FieldID]
	if sort.Field == filter.FieldID {
		return fmt.Sprintf("ORDER BY %s %s", idCol, dir), nil
	}
	return fmt.Sprintf("ORDER BY %s %s, %s %s", col, dir, idCol, dir), nil
}

func (qb *QueryBuilder) column(field string) (string, error) {
	col, ok := qb.columns[field]
	if !ok {
		return "", fmt.Errorf("unknown field %q", field)
	}
	return col, nil
}

// EscapeILIKE escapes the ILIKE wildcards % and _ and the escape character itself.
func EscapeILIKE(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
