package filter

import (
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"bookshelf/internal/domain/entity"
)

// rangeParamPattern captures `name[suffix]` query keys.
var rangeParamPattern = regexp.MustCompile(`^(\w+)\[([^\]]+)\]$`)

// RangeParam maps a public range parameter onto an internal field.
type RangeParam struct {
	QueryParam string
	Field      string
}

// BookRangeParams are the range parameters accepted by the catalog listing.
var BookRangeParams = []RangeParam{
	{QueryParam: "rating", Field: FieldAverageRating},
	{QueryParam: "publishedYear", Field: FieldPublishedYear},
}

// ReviewRangeParams are the range parameters accepted by the review listing.
var ReviewRangeParams = []RangeParam{
	{QueryParam: "rating", Field: FieldRating},
}

// BuildBookFilters builds the catalog filter from query parameters.
// Absent parameters contribute nothing. Malformed numbers are rejected.
func BuildBookFilters(q url.Values) (Expr, error) {
	out := And{}

	ranges, err := BuildRanges(q, BookRangeParams)
	if err != nil {
		return nil, err
	}
	out = append(out, ranges...)

	if genres := splitList(q["genre"]); len(genres) > 0 {
		out = append(out, In{Field: FieldGenre, Values: genres})
	}

	if author := strings.TrimSpace(q.Get("author")); author != "" {
		out = append(out, Prefix{Field: FieldAuthor, Value: author})
	}

	if createdBy := strings.TrimSpace(q.Get("createdBy")); createdBy != "" {
		id, err := strconv.ParseInt(createdBy, 10, 64)
		if err != nil || id <= 0 {
			return nil, &entity.ValidationError{Field: "createdBy", Message: "must be a positive integer"}
		}
		out = append(out, Eq{Field: FieldCreatedBy, Value: id})
	}

	if text := strings.TrimSpace(q.Get("q")); text != "" {
		out = append(out, Text{Query: text})
	}

	return out, nil
}

// BuildReviewFilters builds the review listing filter from query parameters.
func BuildReviewFilters(q url.Values) (Expr, error) {
	ranges, err := BuildRanges(q, ReviewRangeParams)
	if err != nil {
		return nil, err
	}
	return And(ranges), nil
}

// BuildRanges parses `field[gte]` / `field[lte]` parameters into Range nodes.
// Both bounds of one parameter merge into a single closed range.
// Unknown suffixes such as `rating[gt]` are ignored.
func BuildRanges(q url.Values, params []RangeParam) ([]Expr, error) {
	byParam := make(map[string]*Range, len(params))
	var order []string

	for key, values := range q {
		m := rangeParamPattern.FindStringSubmatch(key)
		if m == nil || len(values) == 0 {
			continue
		}
		field, ok := lookupRangeField(params, m[1])
		if !ok {
			continue
		}
		suffix := m[2]
		if suffix != "gte" && suffix != "lte" {
			continue
		}

		n, err := strconv.ParseFloat(strings.TrimSpace(values[0]), 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return nil, &entity.ValidationError{Field: key, Message: "must be a number"}
		}

		r, seen := byParam[m[1]]
		if !seen {
			r = &Range{Field: field}
			byParam[m[1]] = r
			order = append(order, m[1])
		}
		if suffix == "gte" {
			r.Gte = &n
		} else {
			r.Lte = &n
		}
	}

	out := make([]Expr, 0, len(order))
	for _, p := range params {
		if r, ok := byParam[p.QueryParam]; ok {
			if r.Gte != nil && r.Lte != nil && *r.Gte > *r.Lte {
				return nil, &entity.ValidationError{Field: p.QueryParam, Message: "invalid range: gte must not exceed lte"}
			}
			out = append(out, *r)
		}
	}
	return out, nil
}

func lookupRangeField(params []RangeParam, queryParam string) (string, bool) {
	for _, p := range params {
		if p.QueryParam == queryParam {
			return p.Field, true
		}
	}
	return "", false
}

// splitList accepts both `genre=a,b` and repeated `genre=a&genre=b`.
func splitList(values []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" || seen[part] {
				continue
			}
			seen[part] = true
			out = append(out, part)
		}
	}
	return out
}
