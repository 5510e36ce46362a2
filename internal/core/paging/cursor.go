package paging

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidCursor is returned for cursors that were not produced by EncodeCursor.
var ErrInvalidCursor = errors.New("invalid cursor")

const cursorSeparator = "::"

// Cursor identifies the position after an item: its sort key and id.
type Cursor struct {
	ID      string
	SortKey int64
}

// EncodeCursor builds an opaque cursor from an item's paging key.
func EncodeCursor(sortKey int64, id string) string {
	payload := strconv.FormatInt(sortKey, 10) + cursorSeparator + id
	return base64.RawURLEncoding.EncodeToString([]byte(payload))
}

// DecodeCursor parses a cursor. The empty cursor means "from the start".
func DecodeCursor(s string) (Cursor, error) {
	if s == "" {
		return Cursor{SortKey: Start}, nil
	}

	decoded, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: encoding", ErrInvalidCursor)
	}

	keyPart, id, ok := strings.Cut(string(decoded), cursorSeparator)
	if !ok || id == "" {
		return Cursor{}, fmt.Errorf("%w: format", ErrInvalidCursor)
	}
	sortKey, err := strconv.ParseInt(keyPart, 10, 64)
	if err != nil || sortKey < 0 {
		return Cursor{}, fmt.Errorf("%w: sort key", ErrInvalidCursor)
	}
	return Cursor{SortKey: sortKey, ID: id}, nil
}

// IsStart reports whether the cursor points before the first row.
func (c Cursor) IsStart() bool {
	return c.SortKey == Start
}
