package driven

import (
	"context"

	"github.com/custodia-labs/iocsync/internal/core/domain"
)

// IndicatorStore persists indicators uniquely keyed by (type, value).
// Only the merge engine writes through this interface.
type IndicatorStore interface {
	// Find retrieves the indicator with the exact type and value.
	// Returns domain.ErrNotFound when absent.
	Find(ctx context.Context, indicatorType domain.IndicatorType, value string) (*domain.Indicator, error)

	// Create inserts a new indicator, assigning ID and timestamps.
	// Returns domain.ErrAlreadyExists if the key is taken.
	Create(ctx context.Context, indicator *domain.Indicator) error

	// Save updates an existing indicator.
	Save(ctx context.Context, indicator *domain.Indicator) error

	// List returns indicators matching the filter, most recently seen first.
	List(ctx context.Context, filter domain.IndicatorFilter) ([]domain.Indicator, error)

	// Count returns the number of stored indicators per type.
	Count(ctx context.Context) (map[domain.IndicatorType]int, error)
}
