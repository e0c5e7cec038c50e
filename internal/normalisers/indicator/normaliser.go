package indicator

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/iocsync/internal/core/domain"
	"github.com/custodia-labs/iocsync/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser converts raw records into canonical indicators.
type Normaliser struct {
	caseSensitive map[domain.IndicatorType]bool
}

// Option configures a Normaliser.
type Option func(*Normaliser)

// WithCaseSensitiveTypes replaces the set of types whose values keep
// their original casing.
func WithCaseSensitiveTypes(types []string) Option {
	return func(n *Normaliser) {
		set := make(map[domain.IndicatorType]bool, len(types))
		for _, t := range types {
			t = strings.ToLower(strings.TrimSpace(t))
			if t != "" {
				set[domain.IndicatorType(t)] = true
			}
		}
		n.caseSensitive = set
	}
}

// New creates a normaliser. By default url and filepath values keep
// their casing.
func New(opts ...Option) *Normaliser {
	n := &Normaliser{caseSensitive: domain.DefaultCaseSensitiveTypes()}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// IsCaseSensitive reports whether values of t keep their casing.
func (n *Normaliser) IsCaseSensitive(t domain.IndicatorType) bool {
	return n.caseSensitive[t]
}

// Normalise converts one raw record into an indicator reported by source.
func (n *Normaliser) Normalise(raw *domain.RawRecord, source string, types domain.TypeMap) (*domain.Indicator, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	indicatorType := types.Resolve(raw.Type)
	value := n.CanonicalValue(indicatorType, raw.Value)

	// The unknown placeholder keeps its empty value.
	if value == "" && indicatorType != domain.TypeUnknown {
		return nil, fmt.Errorf("%w: empty %s value", domain.ErrMalformedRecord, indicatorType)
	}

	ind := &domain.Indicator{
		Type:       indicatorType,
		Value:      value,
		Confidence: ParseConfidence(raw.Confidence),
		Labels:     CleanLabels(raw.Labels, indicatorType),
		FirstSeen:  ParseTimestamp(raw.FirstSeen),
		LastSeen:   ParseTimestamp(raw.LastSeen),
	}
	if source != "" {
		ind.Sources = []string{source}
	}
	return ind, nil
}

// CanonicalValue trims a value and lowercases it unless t is case-sensitive.
func (n *Normaliser) CanonicalValue(t domain.IndicatorType, value string) string {
	value = strings.TrimSpace(value)
	if n.caseSensitive[t] {
		return value
	}
	return strings.ToLower(value)
}
