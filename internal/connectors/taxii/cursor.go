package taxii

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/custodia-labs/iocsync/internal/core/domain"
)

// CursorVersion is the current cursor schema version.
const CursorVersion = 1

// Cursor tracks paging state for one collection.
type Cursor struct {
	// Version is the schema version for future migrations.
	Version int `json:"v"`

	// Next is the server's continuation token for an unfinished listing.
	Next string `json:"next,omitempty"`

	// AddedAfter is the added_after filter for the next fresh listing.
	AddedAfter string `json:"added_after,omitempty"`
}

// IsZero reports whether the cursor carries no position.
func (c *Cursor) IsZero() bool {
	return c == nil || (c.Next == "" && c.AddedAfter == "")
}

// Encode serializes the cursor to a base64-encoded JSON string.
func (c *Cursor) Encode() string {
	if c.IsZero() {
		return ""
	}
	c.Version = CursorVersion
	data, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(data)
}

// DecodeCursor deserializes a cursor from a base64-encoded JSON string.
// Returns an empty cursor if the input is empty.
func DecodeCursor(s string) (*Cursor, error) {
	if s == "" {
		return &Cursor{Version: CursorVersion}, nil
	}

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("taxii cursor: %w", domain.ErrInvalidCursor)
	}

	var cursor Cursor
	if err := json.Unmarshal(data, &cursor); err != nil {
		return nil, fmt.Errorf("taxii cursor: %w", domain.ErrInvalidCursor)
	}
	if cursor.Version > CursorVersion {
		return nil, fmt.Errorf("taxii cursor version %d: %w", cursor.Version, domain.ErrInvalidCursor)
	}
	return &cursor, nil
}
