// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - FeedAdapter: Fetches raw records from one threat feed
//   - IncrementalAdapter: A FeedAdapter that pages with resumable cursors
//   - IndicatorStore: Persisted indicator state, keyed by (type, value)
//   - CheckpointStore: Cursor persistence for incremental feeds
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - Metrics: Run counters. Without it, nothing is recorded.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or normaliser package
package driven
