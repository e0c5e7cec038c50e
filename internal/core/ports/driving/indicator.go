package driving

import (
	"context"

	"github.com/custodia-labs/iocsync/internal/core/domain"
)

// IndicatorService provides read access to stored indicators.
type IndicatorService interface {
	// List returns indicators matching the filter.
	List(ctx context.Context, filter domain.IndicatorFilter) ([]domain.Indicator, error)

	// Get returns one indicator by type and raw value. The value is
	// canonicalised the same way ingestion does before lookup.
	Get(ctx context.Context, indicatorType domain.IndicatorType, value string) (*domain.Indicator, error)

	// Count returns the number of stored indicators per type.
	Count(ctx context.Context) (map[domain.IndicatorType]int, error)
}

// CheckpointService manages incremental feed checkpoints.
type CheckpointService interface {
	// List returns checkpoints for a source, or all when source is empty.
	List(ctx context.Context, source string) ([]domain.Checkpoint, error)

	// Reset deletes the checkpoint for (source, collection) so the next
	// run starts from the configured initial cursor. An empty collection
	// resets every checkpoint of the source.
	Reset(ctx context.Context, source, collection string) error
}
