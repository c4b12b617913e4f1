package pathutil

import (
	"regexp"
	"strings"
)

// PathPattern represents a regex pattern and its corresponding normalized template.
type PathPattern struct {
	Pattern  *regexp.Regexp
	Template string
}

// pathPatterns defines the dynamic routes, most specific first.
var pathPatterns = []*PathPattern{
	{Pattern: regexp.MustCompile(`^/books/\d+/reviews$`), Template: "/books/:id/reviews"},
	{Pattern: regexp.MustCompile(`^/books/\d+$`), Template: "/books/:id"},
	{Pattern: regexp.MustCompile(`^/reviews/\d+$`), Template: "/reviews/:id"},
	{Pattern: regexp.MustCompile(`^/users/\d+/books$`), Template: "/users/:id/books"},
}

// NormalizePath converts paths with IDs to templates so metric labels stay
// bounded. Static paths are returned unchanged.
//
// Examples:
//
//	NormalizePath("/books/123")          // "/books/:id"
//	NormalizePath("/books/123/reviews")  // "/books/:id/reviews"
//	NormalizePath("/reviews/9/")         // "/reviews/:id"
//	NormalizePath("/books/genres")       // "/books/genres" (unchanged)
//	NormalizePath("/health")             // "/health" (unchanged)
func NormalizePath(path string) string {
	if idx := strings.IndexByte(path, '?'); idx != -1 {
		path = path[:idx]
	}
	if len(path) > 1 && path[len(path)-1] == '/' {
		path = path[:len(path)-1]
	}

	for _, p := range pathPatterns {
		if p.Pattern.MatchString(path) {
			return p.Template
		}
	}
	return path
}
