package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/iocsync/internal/core/domain"
	"github.com/custodia-labs/iocsync/internal/core/ports/driven"
	"github.com/custodia-labs/iocsync/internal/logger"
)

// CheckpointTracker holds the cursor state of one incremental source run.
// It is the only writer of checkpoints.
type CheckpointTracker struct {
	store  driven.CheckpointStore
	source string
	now    func() time.Time

	// pending holds advances whose save did not complete, by collection.
	pending  map[string]string
	advanced int
}

// NewCheckpointTracker creates a tracker for source.
func NewCheckpointTracker(store driven.CheckpointStore, source string) *CheckpointTracker {
	return &CheckpointTracker{
		store:   store,
		source:  source,
		now:     time.Now,
		pending: make(map[string]string),
	}
}

// Lookup returns the cursor a collection resumes from: its own stored
// checkpoint, else the source-wide one, else "". Its signature matches
// driven.CursorLookup.
func (t *CheckpointTracker) Lookup(ctx context.Context, collection string) (string, error) {
	if cursor, ok := t.pending[collection]; ok {
		return cursor, nil
	}

	cp, err := t.store.Get(ctx, t.source, collection)
	switch {
	case err == nil:
		return cp.Cursor, nil
	case !errors.Is(err, domain.ErrNotFound):
		return "", fmt.Errorf("get checkpoint %s/%s: %w", t.source, collection, err)
	case collection == domain.SourceWide:
		return "", nil
	}

	return t.Lookup(ctx, domain.SourceWide)
}

// Advance records that everything up to cursor for collection has been
// merged and persists it immediately. An empty cursor is ignored. When
// the save fails the advance stays pending until Flush.
func (t *CheckpointTracker) Advance(ctx context.Context, collection, cursor string) error {
	if cursor == "" {
		return nil
	}
	t.pending[collection] = cursor
	if err := t.save(ctx, collection, cursor); err != nil {
		return err
	}
	delete(t.pending, collection)
	t.advanced++
	return nil
}

// Flush persists any pending advance. It uses a context that is never
// cancelled, so progress survives an interrupted run.
func (t *CheckpointTracker) Flush(ctx context.Context) error {
	ctx = context.WithoutCancel(ctx)
	var errs []error
	for collection, cursor := range t.pending {
		if err := t.save(ctx, collection, cursor); err != nil {
			errs = append(errs, err)
			continue
		}
		logger.Debug("%s: flushed checkpoint for %q", t.source, collection)
		delete(t.pending, collection)
		t.advanced++
	}
	return errors.Join(errs...)
}

// Advanced returns the number of cursors persisted.
func (t *CheckpointTracker) Advanced() int {
	return t.advanced
}

// Pending returns the number of advances not yet persisted.
func (t *CheckpointTracker) Pending() int {
	return len(t.pending)
}

func (t *CheckpointTracker) save(ctx context.Context, collection, cursor string) error {
	err := t.store.Save(ctx, domain.Checkpoint{
		Source:     t.source,
		Collection: collection,
		Cursor:     cursor,
		UpdatedAt:  t.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("save checkpoint %s/%s: %w", t.source, collection, err)
	}
	return nil
}
