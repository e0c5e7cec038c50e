// Package memory provides in-memory implementations of the driven store
// ports. They back the service tests and the CLI --dry-run mode.
package memory
