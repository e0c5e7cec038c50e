package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/custodia-labs/iocsync/internal/core/ports/driven"
)

// Namespace prefixes every metric name.
const Namespace = "iocsync"

// Ensure Recorder implements the interface.
var _ driven.Metrics = (*Recorder)(nil)

// Recorder implements driven.Metrics on its own Prometheus registry.
type Recorder struct {
	registry *prometheus.Registry

	fetched     *prometheus.CounterVec
	skipped     *prometheus.CounterVec
	created     *prometheus.CounterVec
	updated     *prometheus.CounterVec
	failures    *prometheus.CounterVec
	checkpoints *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	lastRun     *prometheus.GaugeVec
	now         func() time.Time
}

// New creates a Recorder with a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		fetched: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "records_fetched_total",
			Help:      "Raw records fetched from a source",
		}, []string{"source"}),
		skipped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "records_skipped_total",
			Help:      "Malformed records skipped while fetching",
		}, []string{"source"}),
		created: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "indicators_created_total",
			Help:      "Indicators inserted by the merge engine",
		}, []string{"source"}),
		updated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "indicators_updated_total",
			Help:      "Existing indicators changed by a merge",
		}, []string{"source"}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "source_failures_total",
			Help:      "Source runs that did not complete cleanly",
		}, []string{"source", "reason"}),
		checkpoints: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "checkpoints_advanced_total",
			Help:      "Cursor advances persisted for incremental sources",
		}, []string{"source", "collection"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "source_run_duration_seconds",
			Help:      "Wall time of one source run",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}, []string{"source"}),
		lastRun: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "source_last_run_timestamp_seconds",
			Help:      "Unix time the source last finished a run",
		}, []string{"source"}),
		now: time.Now,
	}
}

// Registry exposes the underlying registry, e.g. for an HTTP handler.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveFetch records raw records fetched and items skipped.
func (r *Recorder) ObserveFetch(source string, fetched, skipped int) {
	r.fetched.WithLabelValues(source).Add(float64(fetched))
	r.skipped.WithLabelValues(source).Add(float64(skipped))
}

// ObserveMerge records indicators created and updated.
func (r *Recorder) ObserveMerge(source string, created, updated int) {
	r.created.WithLabelValues(source).Add(float64(created))
	r.updated.WithLabelValues(source).Add(float64(updated))
}

// ObserveFailure records a source that failed or was skipped.
func (r *Recorder) ObserveFailure(source, reason string) {
	r.failures.WithLabelValues(source, reason).Inc()
}

// ObserveCheckpoint records a persisted cursor advance.
func (r *Recorder) ObserveCheckpoint(source, collection string) {
	r.checkpoints.WithLabelValues(source, collection).Inc()
}

// ObserveRun records the duration of a source run.
func (r *Recorder) ObserveRun(source string, duration time.Duration) {
	r.duration.WithLabelValues(source).Observe(duration.Seconds())
	r.lastRun.WithLabelValues(source).Set(float64(r.now().Unix()))
}

// WriteToTextfile writes the current values in the text exposition format,
// atomically replacing path.
func (r *Recorder) WriteToTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
