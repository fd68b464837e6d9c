package pagination

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	svcErr "github.com/culturematch/backend/internal/errors"
)

// Cursor is the opaque pagination state we encode/decode.
// CreatedUnix (in millis) + LastID establish a stable cursor; pages resume
// strictly after the last-seen message.
type Cursor struct {
	CreatedUnix int64  `json:"created_unix,omitempty"`
	LastID      string `json:"last_id,omitempty"`
}

// Encode converts a Cursor into a Base64 string.
func Encode(c Cursor) (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal cursor: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// Decode parses a Base64 string into a Cursor.
// Empty token → empty cursor (first page). A malformed token is the
// caller's input, so it surfaces as a ValidationError.
func Decode(token string) (Cursor, error) {
	if token == "" {
		return Cursor{}, nil
	}

	b, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, svcErr.Validation("invalid pagination token")
	}

	var c Cursor
	if err := json.Unmarshal(b, &c); err != nil {
		return Cursor{}, svcErr.Validation("invalid pagination token")
	}
	return c, nil
}
