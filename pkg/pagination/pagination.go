// Package pagination implements keyset paging over (created_at, id). Listing
// queries order by that pair descending and resume from an opaque base64
// cursor, so pages stay stable while new rows are inserted at the head.
package pagination

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultLimit applies when the client sends no limit.
	DefaultLimit = 25
	// MaxLimit is the hard ceiling on any single page.
	MaxLimit = 100

	cursorSeparator = "|"
)

// Params carries the paging inputs as they arrive from the query string.
type Params struct {
	Limit  int
	Cursor string
}

// Cursor is the decoded resume point: the sort key of the last row on the
// previous page.
type Cursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// NormalizeLimit clamps the requested limit into [1, MaxLimit], substituting
// DefaultLimit for zero or negative values.
func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// LimitWithBuffer adds one row on top of the normalized limit; the extra row
// tells the repository whether another page exists.
func LimitWithBuffer(limit int) int {
	return NormalizeLimit(limit) + 1
}

// EncodeCursor serializes the resume point as base64 over
// "RFC3339Nano|uuid". The timestamp is normalized to UTC first so cursors
// compare the same regardless of the server's zone.
func EncodeCursor(cursor Cursor) string {
	raw := cursor.CreatedAt.UTC().Format(time.RFC3339Nano) + cursorSeparator + cursor.ID.String()
	return base64.StdEncoding.EncodeToString([]byte(raw))
}

// ParseCursor reverses EncodeCursor. A blank value means "first page" and
// returns (nil, nil); anything else that fails to decode is a client error.
func ParseCursor(value string) (*Cursor, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}

	raw, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("cursor is not valid base64: %w", err)
	}

	parts := strings.SplitN(string(raw), cursorSeparator, 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("cursor is missing its separator")
	}

	createdAt, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return nil, fmt.Errorf("cursor timestamp: %w", err)
	}
	id, err := uuid.Parse(parts[1])
	if err != nil {
		return nil, fmt.Errorf("cursor id: %w", err)
	}

	return &Cursor{CreatedAt: createdAt, ID: id}, nil
}
