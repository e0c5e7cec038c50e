package driven

import "time"

// Metrics records ingestion outcomes per source.
type Metrics interface {
	// ObserveFetch records raw records fetched and items skipped.
	ObserveFetch(source string, fetched, skipped int)

	// ObserveMerge records indicators created and updated.
	ObserveMerge(source string, created, updated int)

	// ObserveFailure records a source that failed or was skipped.
	ObserveFailure(source, reason string)

	// ObserveCheckpoint records a persisted cursor advance.
	ObserveCheckpoint(source, collection string)

	// ObserveRun records the duration of a source run.
	ObserveRun(source string, duration time.Duration)
}
