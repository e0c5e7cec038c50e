package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/custodia-labs/iocsync/internal/core/domain"
	"github.com/custodia-labs/iocsync/internal/core/ports/driven"
	"github.com/custodia-labs/iocsync/internal/core/ports/driving"
	"github.com/custodia-labs/iocsync/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestService runs ingestion cycles: fetch, normalise, deduplicate,
// merge and, for incremental sources, checkpoint. Sources run one at a
// time; concurrent runs against the same store must be serialised by
// the caller.
type IngestService struct {
	factory     driven.AdapterFactory
	normaliser  driven.Normaliser
	merger      *Merger
	checkpoints driven.CheckpointStore
	metrics     driven.Metrics
	newRunID    func() string
	now         func() time.Time
}

// IngestOption configures an IngestService.
type IngestOption func(*IngestService)

// WithMetrics records run outcomes. Nil disables metrics.
func WithMetrics(m driven.Metrics) IngestOption {
	return func(s *IngestService) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithRunIDs sets the run ID generator.
func WithRunIDs(gen func() string) IngestOption {
	return func(s *IngestService) {
		if gen != nil {
			s.newRunID = gen
		}
	}
}

// NewIngestService creates an ingest service.
// The factory may be nil when only RunAdapter and RunIncremental are used.
func NewIngestService(
	factory driven.AdapterFactory,
	normaliser driven.Normaliser,
	indicators driven.IndicatorStore,
	checkpoints driven.CheckpointStore,
	opts ...IngestOption,
) *IngestService {
	s := &IngestService{
		factory:     factory,
		normaliser:  normaliser,
		merger:      NewMerger(indicators),
		checkpoints: checkpoints,
		metrics:     noopMetrics{},
		now:         time.Now,
	}
	s.newRunID = func() string { return "run-" + strconv.FormatInt(s.now().UnixNano(), 36) }
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunAll runs every registered adapter in name order. Source failures are
// recorded in the report; only cancellation is returned as an error.
func (s *IngestService) RunAll(ctx context.Context) (*driving.RunReport, error) {
	if s.factory == nil {
		return nil, fmt.Errorf("run all: adapter factory not configured")
	}
	return s.runEach(ctx, s.factory.Registered(), s.RunRegistered)
}

// RunAllIncremental runs every configured incremental source in name order.
func (s *IngestService) RunAllIncremental(ctx context.Context) (*driving.RunReport, error) {
	if s.factory == nil {
		return nil, fmt.Errorf("run incremental: adapter factory not configured")
	}
	return s.runEach(ctx, s.factory.IncrementalSources(), s.RunSource)
}

func (s *IngestService) runEach(
	ctx context.Context,
	names []string,
	run func(context.Context, string) (*driving.SourceReport, error),
) (*driving.RunReport, error) {
	report := &driving.RunReport{
		RunID:     s.newRunID(),
		StartedAt: s.now(),
	}
	logger.Info("run %s: %d sources", report.RunID, len(names))

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			report.FinishedAt = s.now()
			return report, err
		}
		sr, err := run(ctx, name)
		if err != nil {
			logger.Debug("run %s: %s: %v", report.RunID, name, err)
		}
		if sr != nil {
			report.Sources = append(report.Sources, *sr)
		}
	}

	report.FinishedAt = s.now()
	return report, ctx.Err()
}

// RunRegistered builds a registered adapter and runs it. A missing
// credential yields a skipped report.
func (s *IngestService) RunRegistered(ctx context.Context, name string) (*driving.SourceReport, error) {
	if s.factory == nil {
		return nil, fmt.Errorf("run %s: adapter factory not configured", name)
	}
	adapter, err := s.factory.Create(name)
	if err != nil {
		return s.unavailable(name, err), fmt.Errorf("create adapter %s: %w", name, err)
	}
	return s.RunAdapter(ctx, adapter)
}

// RunSource builds a configured incremental source and runs it.
func (s *IngestService) RunSource(ctx context.Context, name string) (*driving.SourceReport, error) {
	if s.factory == nil {
		return nil, fmt.Errorf("run %s: adapter factory not configured", name)
	}
	adapter, err := s.factory.CreateIncremental(name)
	if err != nil {
		return s.unavailable(name, err), fmt.Errorf("create source %s: %w", name, err)
	}
	return s.RunIncremental(ctx, adapter)
}

// RunAdapter fetches everything from adapter and merges it. When the
// fetch fails part-way, the records collected so far are still merged
// and the report is marked partial.
func (s *IngestService) RunAdapter(ctx context.Context, adapter driven.FeedAdapter) (*driving.SourceReport, error) {
	name := adapter.Name()
	start := s.now()
	report := &driving.SourceReport{Source: name}
	logger.Section("Ingest " + name)

	result, fetchErr := adapter.FetchRaw(ctx)
	if fetchErr != nil && result.Len() == 0 {
		if result != nil {
			report.Skipped = append(report.Skipped, result.Skipped...)
		}
		s.finish(report, start, driving.StatusFailed, fetchErr.Error())
		return report, fmt.Errorf("fetch %s: %w", name, fetchErr)
	}
	if result == nil {
		result = &driven.FetchResult{}
	}

	report.Fetched = result.Len()
	report.Skipped = append(report.Skipped, result.Skipped...)
	s.metrics.ObserveFetch(name, report.Fetched, len(result.Skipped))

	mergeErr := s.process(ctx, adapter, result.Records, report)

	switch {
	case fetchErr != nil:
		s.finish(report, start, driving.StatusPartial, fetchErr.Error())
		return report, errors.Join(fmt.Errorf("fetch %s: %w", name, fetchErr), mergeErr)
	case mergeErr != nil:
		s.finish(report, start, driving.StatusPartial, fmt.Sprintf("%d records failed to merge", s.mergeFailures(report)))
		return report, mergeErr
	case report.Fetched == 0:
		s.finish(report, start, driving.StatusEmpty, "no records returned")
	default:
		s.finish(report, start, driving.StatusOK, "")
	}
	return report, nil
}

// RunIncremental pages adapter, merging each page before persisting the
// cursor that resumes after it. On cancellation the last advance is
// flushed before returning.
func (s *IngestService) RunIncremental(ctx context.Context, adapter driven.IncrementalAdapter) (*driving.SourceReport, error) {
	name := adapter.Name()
	start := s.now()
	report := &driving.SourceReport{Source: name}
	tracker := NewCheckpointTracker(s.checkpoints, name)
	logger.Section("Sync " + name)

	var runErr error
	for page, err := range adapter.Pages(ctx, tracker.Lookup) {
		if err != nil {
			runErr = fmt.Errorf("fetch %s: %w", name, err)
			break
		}

		report.Fetched += page.Result.Len()
		report.Skipped = append(report.Skipped, page.Result.Skipped...)
		s.metrics.ObserveFetch(name, page.Result.Len(), len(page.Result.Skipped))

		if err := s.process(ctx, adapter, page.Result.Records, report); err != nil {
			// The page is not fully merged, so its cursor must not advance.
			runErr = err
			break
		}
		if err := tracker.Advance(ctx, page.Collection, page.Cursor); err != nil {
			runErr = err
			break
		}
		report.Pages++
		s.metrics.ObserveCheckpoint(name, page.Collection)
		logger.Debug("%s: page %d merged, collection %q", name, report.Pages, page.Collection)

		if ctx.Err() != nil {
			runErr = ctx.Err()
			break
		}
	}

	if err := tracker.Flush(ctx); err != nil {
		runErr = errors.Join(runErr, err)
	}

	switch {
	case runErr != nil && report.Pages == 0 && report.Created+report.Updated == 0:
		s.finish(report, start, driving.StatusFailed, runErr.Error())
	case runErr != nil:
		s.finish(report, start, driving.StatusPartial, runErr.Error())
	case report.Fetched == 0:
		s.finish(report, start, driving.StatusEmpty, "no new objects")
	default:
		s.finish(report, start, driving.StatusOK, "")
	}
	return report, runErr
}

// process normalises, deduplicates and merges one batch into report.
func (s *IngestService) process(
	ctx context.Context,
	adapter driven.FeedAdapter,
	records []domain.RawRecord,
	report *driving.SourceReport,
) error {
	name := adapter.Name()

	indicators, skipped := NormaliseBatch(s.normaliser, records, name, adapter.TypeMap())
	for _, sk := range skipped {
		logger.Warn("%s: skipping %s: %s", name, sk.Origin, sk.Reason)
	}
	report.Normalised += len(indicators)
	report.Skipped = append(report.Skipped, skipped...)

	batch := Deduplicate(indicators)
	report.Deduplicated += len(batch)

	res, err := s.merger.Merge(ctx, batch, name)
	report.Created += res.Created
	report.Updated += res.Updated
	report.Unchanged += res.Unchanged
	report.Skipped = append(report.Skipped, res.Failed...)
	s.metrics.ObserveMerge(name, res.Created, res.Updated)
	return err
}

func (s *IngestService) unavailable(name string, err error) *driving.SourceReport {
	status := driving.StatusFailed
	if errors.Is(err, domain.ErrMissingCredential) {
		status = driving.StatusSkipped
	}
	report := &driving.SourceReport{Source: name}
	s.finish(report, s.now(), status, err.Error())
	return report
}

func (s *IngestService) finish(report *driving.SourceReport, start time.Time, status driving.SourceStatus, reason string) {
	report.Status = status
	report.Reason = reason
	report.Duration = s.now().Sub(start)

	switch status {
	case driving.StatusFailed, driving.StatusSkipped, driving.StatusPartial:
		s.metrics.ObserveFailure(report.Source, string(status))
		logger.Warn("%s %s: %s", report.Source, status, reason)
	default:
		logger.Info("%s: %d fetched, %d new, %d updated", report.Source, report.Fetched, report.Created, report.Updated)
	}
	s.metrics.ObserveRun(report.Source, report.Duration)
}

func (s *IngestService) mergeFailures(report *driving.SourceReport) int {
	return report.Deduplicated - report.Created - report.Updated - report.Unchanged
}

// NormaliseBatch normalises records reported by source, returning the
// indicators that survived and one skip per record that did not. Input
// order is preserved.
func NormaliseBatch(
	n driven.Normaliser,
	records []domain.RawRecord,
	source string,
	types domain.TypeMap,
) ([]domain.Indicator, []domain.Skip) {
	out := make([]domain.Indicator, 0, len(records))
	var skipped []domain.Skip
	for i := range records {
		ind, err := n.Normalise(&records[i], source, types)
		if err != nil {
			skipped = append(skipped, domain.NewSkip(recordOrigin(&records[i], i), err))
			continue
		}
		out = append(out, *ind)
	}
	return out, skipped
}

func recordOrigin(raw *domain.RawRecord, index int) string {
	if raw.Origin != "" {
		return raw.Origin
	}
	return fmt.Sprintf("record %d", index)
}

type noopMetrics struct{}

func (noopMetrics) ObserveFetch(string, int, int)    {}
func (noopMetrics) ObserveMerge(string, int, int)    {}
func (noopMetrics) ObserveFailure(string, string)    {}
func (noopMetrics) ObserveCheckpoint(string, string) {}
func (noopMetrics) ObserveRun(string, time.Duration) {}
