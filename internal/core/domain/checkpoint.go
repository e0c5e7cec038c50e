package domain

import "time"

// SourceWide is the collection name used for a source-level checkpoint.
const SourceWide = ""

// Checkpoint records fetch progress for an incremental source.
// Per-collection checkpoints take precedence over the source-wide one.
type Checkpoint struct {
	// Source is the configured feed source name.
	Source string

	// Collection is the collection key reported by the adapter, or SourceWide.
	Collection string

	// Cursor is an opaque, adapter-defined resume token.
	Cursor string

	// UpdatedAt is when the cursor was last advanced.
	UpdatedAt time.Time
}
