// Package respond provides utilities for sending HTTP responses in JSON format.
// It includes error handling with sanitization to prevent leaking sensitive information.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"bookshelf/internal/domain/entity"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// JSON writes a JSON response with the given status code and data.
func JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			// Log the error but cannot send error response as headers already sent
			slog.Default().Error("failed to encode JSON response",
				slog.Int("status_code", code),
				slog.Any("error", err))
		}
	}
}

// SafeError writes err with the given status code. Messages of 5xx errors
// are replaced by "internal server error" and the sanitized original is
// logged. Validation errors also carry the offending field.
func SafeError(w http.ResponseWriter, code int, err error) {
	if err == nil {
		return
	}

	if code >= http.StatusInternalServerError {
		slog.Default().Error("internal server error",
			slog.String("status", http.StatusText(code)),
			slog.Int("code", code),
			slog.String("error", SanitizeError(err)))
		JSON(w, code, ErrorBody{Error: "internal server error"})
		return
	}

	body := ErrorBody{Error: err.Error()}
	var ve *entity.ValidationError
	if errors.As(err, &ve) {
		body.Field = ve.Field
	}
	JSON(w, code, body)
}

// Err maps err to its HTTP status with StatusOf and writes it.
func Err(w http.ResponseWriter, err error) {
	SafeError(w, StatusOf(err), err)
}
