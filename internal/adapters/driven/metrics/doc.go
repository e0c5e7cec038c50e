// Package metrics records ingestion outcomes as Prometheus metrics.
//
// The collectors live on a private registry so a run can be written to a
// node_exporter textfile without pulling in the process-wide default set.
package metrics
