package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/iocsync/internal/core/domain"
	"github.com/custodia-labs/iocsync/internal/core/ports/driven"
	"github.com/custodia-labs/iocsync/internal/core/ports/driving"
)

// Ensure IndicatorService implements the interface.
var _ driving.IndicatorService = (*IndicatorService)(nil)

// IndicatorService provides read access to stored indicators.
type IndicatorService struct {
	store      driven.IndicatorStore
	normaliser driven.Normaliser
}

// NewIndicatorService creates an indicator service. The normaliser is
// used to canonicalise lookup values.
func NewIndicatorService(store driven.IndicatorStore, normaliser driven.Normaliser) *IndicatorService {
	return &IndicatorService{store: store, normaliser: normaliser}
}

// List returns indicators matching the filter.
func (s *IndicatorService) List(ctx context.Context, filter domain.IndicatorFilter) ([]domain.Indicator, error) {
	if filter.Limit < 0 {
		return nil, fmt.Errorf("limit %d: %w", filter.Limit, domain.ErrInvalidInput)
	}
	return s.store.List(ctx, filter)
}

// Get returns one indicator, canonicalising value first.
func (s *IndicatorService) Get(ctx context.Context, indicatorType domain.IndicatorType, value string) (*domain.Indicator, error) {
	canonical, err := s.normaliser.Normalise(&domain.RawRecord{Type: string(indicatorType), Value: value}, "", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	return s.store.Find(ctx, canonical.Type, canonical.Value)
}

// Count returns the number of stored indicators per type.
func (s *IndicatorService) Count(ctx context.Context) (map[domain.IndicatorType]int, error) {
	return s.store.Count(ctx)
}
