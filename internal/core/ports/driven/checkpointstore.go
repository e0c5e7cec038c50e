package driven

import (
	"context"

	"github.com/custodia-labs/iocsync/internal/core/domain"
)

// CheckpointStore persists incremental fetch progress.
type CheckpointStore interface {
	// Save stores or overwrites the checkpoint for (source, collection).
	Save(ctx context.Context, checkpoint domain.Checkpoint) error

	// Get retrieves the checkpoint for (source, collection).
	// Returns domain.ErrNotFound when absent.
	Get(ctx context.Context, source, collection string) (*domain.Checkpoint, error)

	// List returns all checkpoints for a source, or every checkpoint
	// when source is empty.
	List(ctx context.Context, source string) ([]domain.Checkpoint, error)

	// Delete removes the checkpoint for (source, collection).
	Delete(ctx context.Context, source, collection string) error
}
