// Package pagination implements opaque keyset cursors for item listings.
// A cursor pins the (updated_at, id) tuple of the last row served, so pages
// stay stable while new items arrive.
package pagination

import (
	"encoding/base64"
	"errors"
	"strings"
	"time"
)

var ErrInvalidCursor = errors.New("invalid cursor format")

// Cursor is the decoded keyset position.
type Cursor struct {
	LastID    string
	Timestamp time.Time
}

// EncodeCursor packs the last row's id and updated_at into an opaque token.
// An empty id yields an empty token, meaning no further pages.
func EncodeCursor(lastID string, ts time.Time) string {
	if lastID == "" {
		return ""
	}
	return base64.StdEncoding.EncodeToString(
		[]byte(lastID + "|" + ts.UTC().Format(time.RFC3339Nano)),
	)
}

// DecodeCursor reverses EncodeCursor. An empty token decodes to nil without
// error; anything malformed is ErrInvalidCursor, never a partial cursor.
func DecodeCursor(token string) (*Cursor, error) {
	if token == "" {
		return nil, nil
	}

	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, ErrInvalidCursor
	}

	id, tsPart, ok := strings.Cut(string(raw), "|")
	if !ok || id == "" {
		return nil, ErrInvalidCursor
	}
	ts, err := time.Parse(time.RFC3339Nano, tsPart)
	if err != nil {
		return nil, ErrInvalidCursor
	}

	return &Cursor{LastID: id, Timestamp: ts}, nil
}
