package pagination

import (
	"bytes"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Cursor marks a position in a sorted listing: the sort field's value of an
// item plus its identity for tie-breaking.
type Cursor struct {
	Field string
	Value any
	ID    int64
}

// ErrInvalidCursor is returned for malformed, tampered or mismatched cursor tokens.
var ErrInvalidCursor = errors.New("invalid cursor")

// cursorPayload is the wire form of a Cursor.
type cursorPayload struct {
	Field string          `json:"f"`
	Value json.RawMessage `json:"v"`
	ID    int64           `json:"id"`
}

// CursorCodec turns cursors into opaque signed tokens and back.
// Tokens are base64url(JSON) "." base64url(HMAC-SHA256(JSON)).
type CursorCodec struct {
	secret []byte
}

// NewCursorCodec creates a codec signing with secret. An empty secret gets a
// random per-process key, so tokens do not survive a restart.
func NewCursorCodec(secret []byte) *CursorCodec {
	if len(secret) == 0 {
		secret = make([]byte, 32)
		_, _ = rand.Read(secret)
	}
	return &CursorCodec{secret: secret}
}

// Encode returns the token for c.
func (cc *CursorCodec) Encode(c Cursor) (string, error) {
	value := c.Value
	if t, ok := value.(time.Time); ok {
		value = t.UTC().Format(time.RFC3339Nano)
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("encode cursor value: %w", err)
	}
	body, err := json.Marshal(cursorPayload{Field: c.Field, Value: raw, ID: c.ID})
	if err != nil {
		return "", fmt.Errorf("encode cursor: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(body) + "." +
		base64.RawURLEncoding.EncodeToString(cc.sign(body)), nil
}

// Decode verifies token and returns the cursor it carries. The cursor must
// belong to sort field and its value must parse as kind.
func (cc *CursorCodec) Decode(token, field string, kind ValueKind) (*Cursor, error) {
	bodyPart, sigPart, ok := strings.Cut(token, ".")
	if !ok {
		return nil, fmt.Errorf("%w: missing signature", ErrInvalidCursor)
	}
	body, err := base64.RawURLEncoding.DecodeString(bodyPart)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64 encoding", ErrInvalidCursor)
	}
	sig, err := base64.RawURLEncoding.DecodeString(sigPart)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64 encoding", ErrInvalidCursor)
	}
	if !hmac.Equal(sig, cc.sign(body)) {
		return nil, fmt.Errorf("%w: signature mismatch", ErrInvalidCursor)
	}

	var p cursorPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("%w: invalid cursor JSON", ErrInvalidCursor)
	}
	if p.Field != field {
		return nil, fmt.Errorf("%w: cursor was issued for sort field %q", ErrInvalidCursor, p.Field)
	}

	value, err := decodeValue(p.Value, kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	return &Cursor{Field: p.Field, Value: value, ID: p.ID}, nil
}

func (cc *CursorCodec) sign(body []byte) []byte {
	mac := hmac.New(sha256.New, cc.secret)
	mac.Write(body)
	return mac.Sum(nil)
}

func decodeValue(raw json.RawMessage, kind ValueKind) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}

	switch kind {
	case KindInt:
		n, ok := v.(json.Number)
		if !ok {
			return nil, errors.New("expected integer value")
		}
		return n.Int64()
	case KindFloat:
		n, ok := v.(json.Number)
		if !ok {
			return nil, errors.New("expected numeric value")
		}
		return n.Float64()
	case KindString:
		s, ok := v.(string)
		if !ok {
			return nil, errors.New("expected string value")
		}
		return s, nil
	case KindTime:
		s, ok := v.(string)
		if !ok {
			return nil, errors.New("expected timestamp value")
		}
		return time.Parse(time.RFC3339Nano, s)
	default:
		return nil, fmt.Errorf("unknown value kind %d", kind)
	}
}
