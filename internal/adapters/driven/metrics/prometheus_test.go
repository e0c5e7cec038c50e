package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_Counters(t *testing.T) {
	r := New()

	r.ObserveFetch("otx", 10, 2)
	r.ObserveFetch("otx", 5, 0)
	r.ObserveMerge("otx", 7, 3)
	r.ObserveFailure("threatfox", "skipped")
	r.ObserveCheckpoint("mitre", "enterprise")
	r.ObserveCheckpoint("mitre", "enterprise")

	assert.InDelta(t, 15, testutil.ToFloat64(r.fetched.WithLabelValues("otx")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(r.skipped.WithLabelValues("otx")), 0)
	assert.InDelta(t, 7, testutil.ToFloat64(r.created.WithLabelValues("otx")), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(r.updated.WithLabelValues("otx")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(r.failures.WithLabelValues("threatfox", "skipped")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(r.checkpoints.WithLabelValues("mitre", "enterprise")), 0)
}

func TestRecorder_ObserveRun(t *testing.T) {
	r := New()
	r.now = func() time.Time { return time.Unix(1700000000, 0) }

	r.ObserveRun("stix", 3*time.Second)

	assert.InDelta(t, 1700000000, testutil.ToFloat64(r.lastRun.WithLabelValues("stix")), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(r.duration, "iocsync_source_run_duration_seconds"))
}

func TestRecorder_CollectAndCompare(t *testing.T) {
	r := New()
	r.ObserveMerge("otx", 4, 1)

	expected := `
# HELP iocsync_indicators_created_total Indicators inserted by the merge engine
# TYPE iocsync_indicators_created_total counter
iocsync_indicators_created_total{source="otx"} 4
`
	err := testutil.GatherAndCompare(r.Registry(), strings.NewReader(expected), "iocsync_indicators_created_total")
	assert.NoError(t, err)
}

func TestRecorder_WriteToTextfile(t *testing.T) {
	r := New()
	r.ObserveFetch("threatfox", 12, 0)

	path := filepath.Join(t.TempDir(), "iocsync.prom")
	require.NoError(t, r.WriteToTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `iocsync_records_fetched_total{source="threatfox"} 12`)
}
