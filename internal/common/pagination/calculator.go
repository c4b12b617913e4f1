package pagination

// PageCount returns ceil(total / limit).
//
// Examples:
//   - Total 0, Limit 10 -> 0 pages
//   - Total 10, Limit 10 -> 1 page
//   - Total 21, Limit 10 -> 3 pages
func PageCount(total int64, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	// Ceiling division: (total + limit - 1) / limit
	return int((total + int64(limit) - 1) / int64(limit))
}
