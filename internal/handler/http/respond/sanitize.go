package respond

import (
	"regexp"
)

var (
	// Password inside a DSN or Redis URL
	dsnPasswordPattern = regexp.MustCompile(`://([^:/@]+):([^@]+)@`)

	// Redis URL with password only (redis://:secret@host)
	redisPasswordPattern = regexp.MustCompile(`://:([^@]+)@`)

	// Bearer tokens and bare JWTs
	bearerPattern = regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9\-_.]+`)
	jwtPattern    = regexp.MustCompile(`eyJ[A-Za-z0-9\-_]+\.[A-Za-z0-9\-_]+\.[A-Za-z0-9\-_]+`)
)

// SanitizeError returns the error message with credentials masked.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	msg = redisPasswordPattern.ReplaceAllString(msg, "://:****@")
	msg = dsnPasswordPattern.ReplaceAllString(msg, "://$1:****@")
	msg = bearerPattern.ReplaceAllString(msg, "Bearer ****")
	msg = jwtPattern.ReplaceAllString(msg, "****")
	return msg
}
