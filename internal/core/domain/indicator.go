package domain

import (
	"slices"
	"time"
)

// Indicator is the canonical IOC representation.
// A freshly normalised indicator has no ID; a persisted one is uniquely
// keyed by (Type, Value) and carries ID and bookkeeping timestamps.
type Indicator struct {
	// ID is the unique identifier assigned when the indicator is first stored.
	ID string

	// Type is the canonical indicator type.
	Type IndicatorType

	// Value is the canonicalised observable.
	Value string

	// Confidence is 0-100, nil when no source reported one.
	Confidence *int

	// Labels is an ordered set of lowercase tags.
	Labels []string

	// Sources is an ordered set of feed names that reported the indicator.
	Sources []string

	// FirstSeen is the earliest observation time, nil when unknown.
	FirstSeen *time.Time

	// LastSeen is the latest observation time, nil when unknown.
	LastSeen *time.Time

	// CreatedAt is when the indicator was first stored.
	CreatedAt time.Time

	// UpdatedAt is when the indicator was last modified.
	UpdatedAt time.Time
}

// Key returns the indicator's uniqueness key.
func (i *Indicator) Key() IndicatorKey {
	return IndicatorKey{Type: i.Type, Value: i.Value}
}

// Storable reports whether the indicator can be persisted: it needs a
// type and a value, except for the unknown placeholder whose value is empty.
func (i *Indicator) Storable() bool {
	if i == nil || i.Type == "" {
		return false
	}
	return i.Value != "" || i.Type == TypeUnknown
}

// Clone returns a deep copy of the indicator.
func (i *Indicator) Clone() Indicator {
	out := *i
	out.Labels = slices.Clone(i.Labels)
	out.Sources = slices.Clone(i.Sources)
	if i.Confidence != nil {
		c := *i.Confidence
		out.Confidence = &c
	}
	if i.FirstSeen != nil {
		t := *i.FirstSeen
		out.FirstSeen = &t
	}
	if i.LastSeen != nil {
		t := *i.LastSeen
		out.LastSeen = &t
	}
	return out
}

// String returns "type:value".
func (i *Indicator) String() string {
	return string(i.Type) + ":" + i.Value
}

// IndicatorKey identifies an indicator by type and value.
type IndicatorKey struct {
	Type  IndicatorType
	Value string
}

// IndicatorFilter narrows indicator listings.
type IndicatorFilter struct {
	// Type restricts results to one canonical type when non-empty.
	Type IndicatorType

	// Source restricts results to indicators reported by a feed when non-empty.
	Source string

	// Limit caps the number of results. Zero means no limit.
	Limit int
}
