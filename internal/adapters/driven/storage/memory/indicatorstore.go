package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/iocsync/internal/core/domain"
	"github.com/custodia-labs/iocsync/internal/core/ports/driven"
)

// Ensure IndicatorStore implements the interface.
var _ driven.IndicatorStore = (*IndicatorStore)(nil)

// IndicatorStore is an in-memory implementation of driven.IndicatorStore.
// Callers always receive copies.
type IndicatorStore struct {
	mu         sync.RWMutex
	indicators map[domain.IndicatorKey]domain.Indicator
	now        func() time.Time
}

// NewIndicatorStore creates a new in-memory indicator store.
func NewIndicatorStore() *IndicatorStore {
	return &IndicatorStore{
		indicators: make(map[domain.IndicatorKey]domain.Indicator),
		now:        time.Now,
	}
}

// Find retrieves the indicator with the exact type and value.
func (s *IndicatorStore) Find(
	_ context.Context,
	indicatorType domain.IndicatorType,
	value string,
) (*domain.Indicator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ind, ok := s.indicators[domain.IndicatorKey{Type: indicatorType, Value: value}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := ind.Clone()
	return &out, nil
}

// Create inserts a new indicator and assigns its ID and timestamps.
func (s *IndicatorStore) Create(_ context.Context, indicator *domain.Indicator) error {
	if !indicator.Storable() {
		return domain.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := indicator.Key()
	if _, exists := s.indicators[key]; exists {
		return domain.ErrAlreadyExists
	}

	now := s.now()
	indicator.ID = uuid.NewString()
	indicator.CreatedAt = now
	indicator.UpdatedAt = now
	s.indicators[key] = indicator.Clone()
	return nil
}

// Save updates an existing indicator.
func (s *IndicatorStore) Save(_ context.Context, indicator *domain.Indicator) error {
	if indicator == nil {
		return domain.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := indicator.Key()
	stored, ok := s.indicators[key]
	if !ok {
		return domain.ErrNotFound
	}

	indicator.ID = stored.ID
	indicator.CreatedAt = stored.CreatedAt
	indicator.UpdatedAt = s.now()
	s.indicators[key] = indicator.Clone()
	return nil
}

// List returns indicators matching the filter, most recently seen first.
func (s *IndicatorStore) List(_ context.Context, filter domain.IndicatorFilter) ([]domain.Indicator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Indicator, 0, len(s.indicators))
	for _, ind := range s.indicators {
		if filter.Type != "" && ind.Type != filter.Type {
			continue
		}
		if filter.Source != "" && !slices.Contains(ind.Sources, filter.Source) {
			continue
		}
		out = append(out, ind.Clone())
	}

	slices.SortFunc(out, compareRecency)
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// Count returns the number of stored indicators per type.
func (s *IndicatorStore) Count(_ context.Context) (map[domain.IndicatorType]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[domain.IndicatorType]int)
	for key := range s.indicators {
		counts[key.Type]++
	}
	return counts, nil
}

// compareRecency orders by LastSeen descending with unknown times last,
// then by type and value.
func compareRecency(a, b domain.Indicator) int {
	switch {
	case a.LastSeen != nil && b.LastSeen == nil:
		return -1
	case a.LastSeen == nil && b.LastSeen != nil:
		return 1
	case a.LastSeen != nil && !a.LastSeen.Equal(*b.LastSeen):
		return b.LastSeen.Compare(*a.LastSeen)
	}
	return cmp.Or(cmp.Compare(a.Type, b.Type), cmp.Compare(a.Value, b.Value))
}
