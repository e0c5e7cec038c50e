package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/iocsync/internal/core/domain"
	"github.com/custodia-labs/iocsync/internal/core/ports/driven"
	"github.com/custodia-labs/iocsync/internal/core/ports/driving"
)

// Ensure CheckpointService implements the interface.
var _ driving.CheckpointService = (*CheckpointService)(nil)

// CheckpointService lists and resets incremental checkpoints.
type CheckpointService struct {
	store driven.CheckpointStore
}

// NewCheckpointService creates a checkpoint service.
func NewCheckpointService(store driven.CheckpointStore) *CheckpointService {
	return &CheckpointService{store: store}
}

// List returns checkpoints for a source, or every checkpoint when source is empty.
func (s *CheckpointService) List(ctx context.Context, source string) ([]domain.Checkpoint, error) {
	return s.store.List(ctx, strings.TrimSpace(source))
}

// Reset deletes the checkpoint for (source, collection). An empty
// collection deletes every checkpoint of the source, per-collection and
// source-wide alike, so its next run starts from the configured cursor.
// Returns domain.ErrNotFound when there is nothing to reset.
func (s *CheckpointService) Reset(ctx context.Context, source, collection string) error {
	source = strings.TrimSpace(source)
	if source == "" {
		return fmt.Errorf("source is required: %w", domain.ErrInvalidInput)
	}
	if collection != "" {
		if _, err := s.store.Get(ctx, source, collection); err != nil {
			return fmt.Errorf("checkpoint %s/%q: %w", source, collection, err)
		}
		return s.store.Delete(ctx, source, collection)
	}

	checkpoints, err := s.store.List(ctx, source)
	if err != nil {
		return fmt.Errorf("list checkpoints %s: %w", source, err)
	}
	if len(checkpoints) == 0 {
		return fmt.Errorf("checkpoints for %s: %w", source, domain.ErrNotFound)
	}
	for _, cp := range checkpoints {
		if err := s.store.Delete(ctx, cp.Source, cp.Collection); err != nil {
			return fmt.Errorf("delete checkpoint %s/%q: %w", cp.Source, cp.Collection, err)
		}
	}
	return nil
}
