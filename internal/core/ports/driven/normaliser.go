package driven

import "github.com/custodia-labs/iocsync/internal/core/domain"

// Normaliser converts raw feed records into canonical indicators.
// Implementations are pure: no I/O, no shared state.
type Normaliser interface {
	// Normalise converts one raw record reported by source, resolving its
	// type through types. Returns an error wrapping domain.ErrMalformedRecord
	// when the record cannot become an indicator.
	Normalise(raw *domain.RawRecord, source string, types domain.TypeMap) (*domain.Indicator, error)
}
