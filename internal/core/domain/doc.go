// Package domain defines the core business entities for iocsync.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Indicator: A canonical IOC, both as normalised and as persisted
//   - RawRecord: A flattened provider record produced by a feed adapter
//   - Checkpoint: A resumable cursor for incremental feeds
//   - FeedSource: Static configuration for an incremental feed
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
