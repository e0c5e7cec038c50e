package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/custodia-labs/iocsync/internal/core/domain"
	"github.com/custodia-labs/iocsync/internal/core/ports/driven"
)

// Ensure CheckpointStore implements the interface.
var _ driven.CheckpointStore = (*CheckpointStore)(nil)

type checkpointKey struct {
	source     string
	collection string
}

// CheckpointStore is an in-memory implementation of driven.CheckpointStore.
type CheckpointStore struct {
	mu          sync.RWMutex
	checkpoints map[checkpointKey]domain.Checkpoint
}

// NewCheckpointStore creates a new in-memory checkpoint store.
func NewCheckpointStore() *CheckpointStore {
	return &CheckpointStore{
		checkpoints: make(map[checkpointKey]domain.Checkpoint),
	}
}

// Save stores or overwrites the checkpoint for its (source, collection).
func (s *CheckpointStore) Save(_ context.Context, checkpoint domain.Checkpoint) error {
	if checkpoint.Source == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkpoints[checkpointKey{checkpoint.Source, checkpoint.Collection}] = checkpoint
	return nil
}

// Get retrieves the checkpoint for (source, collection).
func (s *CheckpointStore) Get(_ context.Context, source, collection string) (*domain.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp, ok := s.checkpoints[checkpointKey{source, collection}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &cp, nil
}

// List returns checkpoints ordered by source then collection.
// An empty source lists every checkpoint.
func (s *CheckpointStore) List(_ context.Context, source string) ([]domain.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Checkpoint, 0, len(s.checkpoints))
	for key, cp := range s.checkpoints {
		if source != "" && key.source != source {
			continue
		}
		out = append(out, cp)
	}
	slices.SortFunc(out, func(a, b domain.Checkpoint) int {
		return cmp.Or(cmp.Compare(a.Source, b.Source), cmp.Compare(a.Collection, b.Collection))
	})
	return out, nil
}

// Delete removes the checkpoint for (source, collection).
// Deleting a missing checkpoint is not an error.
func (s *CheckpointStore) Delete(_ context.Context, source, collection string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.checkpoints, checkpointKey{source, collection})
	return nil
}
