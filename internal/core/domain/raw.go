package domain

// RawRecord is a flattened provider record as emitted by a feed adapter.
// It is the adapter's output before normalisation: every field still
// carries the provider's vocabulary and formatting.
type RawRecord struct {
	// Type is the provider's type name (e.g. "FileHash-MD5", "ipv4-addr").
	Type string

	// Value is the observable as reported by the provider.
	Value string

	// Labels are provider tags, unfiltered.
	Labels []string

	// Confidence is the provider's confidence as text, empty if absent.
	Confidence string

	// FirstSeen is the provider's first-observed timestamp text.
	FirstSeen string

	// LastSeen is the provider's last-observed timestamp text.
	LastSeen string

	// Origin identifies where the record came from (file name, pulse ID,
	// object ID) for skip reporting.
	Origin string
}

// Skip records one item that was excluded from a batch and why.
type Skip struct {
	// Origin identifies the skipped file, object or record.
	Origin string

	// Reason is a human-readable explanation.
	Reason string
}

// NewSkip builds a Skip from an error.
func NewSkip(origin string, err error) Skip {
	return Skip{Origin: origin, Reason: err.Error()}
}
