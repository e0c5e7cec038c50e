package services

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/custodia-labs/iocsync/internal/core/domain"
	"github.com/custodia-labs/iocsync/internal/core/ports/driven"
	"github.com/custodia-labs/iocsync/internal/logger"
)

// MergeResult counts the outcome of merging one batch.
type MergeResult struct {
	Created   int
	Updated   int
	Unchanged int

	// Failed lists records whose upsert was aborted by a store error.
	Failed []domain.Skip
}

// Merger upserts normalised indicators into the store.
// It is the only writer of indicator state.
type Merger struct {
	store driven.IndicatorStore
}

// NewMerger creates a merger over store.
func NewMerger(store driven.IndicatorStore) *Merger {
	return &Merger{store: store}
}

// Merge upserts each indicator of batch as reported by source. A store
// error aborts only that record; all such errors are joined in the
// returned error and listed in MergeResult.Failed.
func (m *Merger) Merge(ctx context.Context, batch []domain.Indicator, source string) (MergeResult, error) {
	var res MergeResult
	var errs []error

	for i := range batch {
		created, changed, err := m.upsert(ctx, &batch[i], source)
		switch {
		case err != nil:
			err = fmt.Errorf("upsert %s: %w", batch[i].String(), err)
			errs = append(errs, err)
			res.Failed = append(res.Failed, domain.NewSkip(batch[i].String(), err))
			logger.Warn("%s: %v", source, err)
		case created:
			res.Created++
		case changed:
			res.Updated++
		default:
			res.Unchanged++
		}
	}
	return res, errors.Join(errs...)
}

func (m *Merger) upsert(ctx context.Context, incoming *domain.Indicator, source string) (created, changed bool, err error) {
	existing, err := m.store.Find(ctx, incoming.Type, incoming.Value)
	if errors.Is(err, domain.ErrNotFound) {
		fresh := incoming.Clone()
		if source != "" {
			fresh.Sources = []string{source}
		}
		err = m.store.Create(ctx, &fresh)
		if !errors.Is(err, domain.ErrAlreadyExists) {
			return err == nil, false, err
		}
		// Created concurrently between Find and Create: merge instead.
		existing, err = m.store.Find(ctx, incoming.Type, incoming.Value)
	}
	if err != nil {
		return false, false, err
	}

	if !MergeInto(existing, incoming, source) {
		return false, false, nil
	}
	if err := m.store.Save(ctx, existing); err != nil {
		return false, false, err
	}
	return false, true, nil
}

// MergeInto applies incoming to existing and reports whether any field
// changed:
//   - FirstSeen becomes the earlier of the two, LastSeen the later
//   - Sources gains source, Labels gain incoming's labels, order kept
//   - Confidence becomes the higher of the two and never decreases
func MergeInto(existing, incoming *domain.Indicator, source string) bool {
	changed := false

	if first := earliest(existing.FirstSeen, incoming.FirstSeen); !sameTime(first, existing.FirstSeen) {
		existing.FirstSeen = cloneTime(first)
		changed = true
	}
	if last := latest(existing.LastSeen, incoming.LastSeen); !sameTime(last, existing.LastSeen) {
		existing.LastSeen = cloneTime(last)
		changed = true
	}

	sources := incoming.Sources
	if source != "" {
		sources = []string{source}
	}
	if merged, grew := union(existing.Sources, sources); grew {
		existing.Sources = merged
		changed = true
	}
	if merged, grew := union(existing.Labels, incoming.Labels); grew {
		existing.Labels = merged
		changed = true
	}

	if incoming.Confidence != nil && (existing.Confidence == nil || *incoming.Confidence > *existing.Confidence) {
		c := *incoming.Confidence
		existing.Confidence = &c
		changed = true
	}
	return changed
}

// union appends the items of add missing from base, keeping order.
func union(base, add []string) ([]string, bool) {
	out := base
	grew := false
	for _, s := range add {
		if s == "" || slices.Contains(out, s) {
			continue
		}
		if !grew {
			out = slices.Clone(base)
			grew = true
		}
		out = append(out, s)
	}
	return out, grew
}
