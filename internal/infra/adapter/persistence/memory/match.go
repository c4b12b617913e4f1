package memory

import (
	"cmp"
	"fmt"
	"strings"
	"time"

	"bookshelf/internal/common/filter"
)

// record exposes an entity's logical fields to the matcher.
type record interface {
	field(name string) (any, bool)
	text() string
	identity() int64
}

func match(r record, e filter.Expr) (bool, error) {
	switch v := e.(type) {
	case nil:
		return true, nil

	case filter.And:
		for _, child := range v {
			ok, err := match(r, child)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil

	case filter.Eq:
		got, err := lookup(r, v.Field)
		if err != nil {
			return false, err
		}
		c, err := compareValues(got, v.Value)
		return c == 0, err

	case filter.In:
		got, err := lookup(r, v.Field)
		if err != nil {
			return false, err
		}
		for _, want := range v.Values {
			if c, err := compareValues(got, want); err == nil && c == 0 {
				return true, nil
			}
		}
		return false, nil

	case filter.Range:
		got, err := lookup(r, v.Field)
		if err != nil {
			return false, err
		}
		n, ok := toFloat(got)
		if !ok {
			return false, fmt.Errorf("field %q is not numeric", v.Field)
		}
		if v.Gte != nil && n < *v.Gte {
			return false, nil
		}
		if v.Lte != nil && n > *v.Lte {
			return false, nil
		}
		return true, nil

	case filter.Prefix:
		got, err := lookup(r, v.Field)
		if err != nil {
			return false, err
		}
		s, ok := got.(string)
		if !ok {
			return false, fmt.Errorf("field %q is not text", v.Field)
		}
		return strings.HasPrefix(strings.ToLower(s), strings.ToLower(v.Value)), nil

	case filter.Text:
		doc := strings.Fields(strings.ToLower(r.text()))
		if len(doc) == 0 {
			return false, fmt.Errorf("full-text search is not supported on this collection")
		}
		for _, term := range strings.Fields(strings.ToLower(v.Query)) {
			found := false
			for _, word := range doc {
				if word == term {
					found = true
					break
				}
			}
			if !found {
				return false, nil
			}
		}
		return true, nil

	case filter.Keyset:
		got, err := lookup(r, v.Field)
		if err != nil {
			return false, err
		}
		c, err := compareValues(got, v.Value)
		if err != nil {
			return false, err
		}
		c = cmp.Or(c, cmp.Compare(r.identity(), v.ID))
		if v.Op == filter.GreaterThan {
			return c > 0, nil
		}
		return c < 0, nil

	default:
		return false, fmt.Errorf("unsupported filter expression %T", e)
	}
}

func lookup(r record, field string) (any, error) {
	v, ok := r.field(field)
	if !ok {
		return nil, fmt.Errorf("unknown field %q", field)
	}
	return v, nil
}

// compareValues orders two field values. Numbers of any width compare
// numerically.
func compareValues(a, b any) (int, error) {
	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			return cmp.Compare(af, bf), nil
		}
	}
	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			return cmp.Compare(av, bv), nil
		}
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Compare(bv), nil
		}
	}
	return 0, fmt.Errorf("cannot compare %T with %T", a, b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
