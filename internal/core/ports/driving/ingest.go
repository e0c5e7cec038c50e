package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/iocsync/internal/core/domain"
	"github.com/custodia-labs/iocsync/internal/core/ports/driven"
)

// IngestService runs ingestion cycles: fetch, normalise, deduplicate, merge.
type IngestService interface {
	// RunAll runs every registered adapter in name order. A failure in one
	// source is recorded in its report and never stops the others.
	RunAll(ctx context.Context) (*RunReport, error)

	// RunRegistered runs one registered adapter by name.
	RunRegistered(ctx context.Context, name string) (*SourceReport, error)

	// RunAdapter runs an adapter constructed by the caller, such as a
	// folder- or URL-parameterised one.
	RunAdapter(ctx context.Context, adapter driven.FeedAdapter) (*SourceReport, error)

	// RunIncremental pages an incremental source, persisting its
	// checkpoint after every merged page.
	RunIncremental(ctx context.Context, adapter driven.IncrementalAdapter) (*SourceReport, error)

	// RunSource runs one configured incremental source by name.
	RunSource(ctx context.Context, name string) (*SourceReport, error)

	// RunAllIncremental runs every configured incremental source in name order.
	RunAllIncremental(ctx context.Context) (*RunReport, error)
}

// SourceStatus is the outcome of one source run.
type SourceStatus string

const (
	// StatusOK means the source was fetched and merged completely.
	StatusOK SourceStatus = "ok"

	// StatusPartial means the fetch failed part-way; collected records were merged.
	StatusPartial SourceStatus = "partial"

	// StatusSkipped means the source could not be constructed (e.g. missing key).
	StatusSkipped SourceStatus = "skipped"

	// StatusFailed means the fetch failed and nothing was merged.
	StatusFailed SourceStatus = "failed"

	// StatusEmpty means the source returned no records.
	StatusEmpty SourceStatus = "empty"
)

// SourceReport summarises one source run.
type SourceReport struct {
	// Source is the adapter or feed source name.
	Source string

	// Status is the run outcome.
	Status SourceStatus

	// Reason explains a skipped, failed, partial or empty outcome.
	Reason string

	// Fetched is the number of raw records returned by the adapter.
	Fetched int

	// Normalised is the number of records that survived normalisation.
	Normalised int

	// Deduplicated is the batch size after deduplication.
	Deduplicated int

	// Created is the number of new indicators stored.
	Created int

	// Updated is the number of existing indicators that changed.
	Updated int

	// Unchanged is the number of existing indicators left as they were.
	Unchanged int

	// Skipped lists items excluded from the batch.
	Skipped []domain.Skip

	// Pages is the number of pages merged (incremental sources only).
	Pages int

	// Duration is how long the run took.
	Duration time.Duration
}

// RunReport summarises a multi-source run.
type RunReport struct {
	// RunID identifies the run in logs.
	RunID string

	// Sources holds one report per source, in run order.
	Sources []SourceReport

	// StartedAt is when the run began.
	StartedAt time.Time

	// FinishedAt is when the run ended.
	FinishedAt time.Time
}

// Report returns the report for a source, or nil.
func (r *RunReport) Report(source string) *SourceReport {
	for i := range r.Sources {
		if r.Sources[i].Source == source {
			return &r.Sources[i]
		}
	}
	return nil
}

// TotalCreated returns the number of new indicators across all sources.
func (r *RunReport) TotalCreated() int {
	total := 0
	for i := range r.Sources {
		total += r.Sources[i].Created
	}
	return total
}
