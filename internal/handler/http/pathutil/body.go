package pathutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"bookshelf/internal/domain/entity"
)

// DecodeJSON decodes the request body into v. Unknown fields, trailing data
// and malformed JSON are reported as a ValidationError on "body"; an
// oversized body keeps its *http.MaxBytesError.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return fmt.Errorf("decode body: %w", err)
		}
		if errors.Is(err, io.EOF) {
			return &entity.ValidationError{Field: "body", Message: "is required"}
		}
		return &entity.ValidationError{Field: "body", Message: err.Error()}
	}
	if dec.More() {
		return &entity.ValidationError{Field: "body", Message: "must contain a single JSON object"}
	}
	return nil
}
