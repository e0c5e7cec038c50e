package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"

	"github.com/custodia-labs/iocsync/internal/core/domain"
	"github.com/custodia-labs/iocsync/internal/core/ports/driving"
)

func newGoldie(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestWriteRunReport_MixedOutcomes(t *testing.T) {
	report := &driving.RunReport{
		RunID: "run-1",
		Sources: []driving.SourceReport{
			{Source: "otx", Status: driving.StatusOK, Fetched: 120, Created: 97, Updated: 20, Unchanged: 3, Duration: time.Second},
			{Source: "threatfox", Status: driving.StatusSkipped, Reason: "threatfox: api key is not set: missing credential"},
			{
				Source:  "stix",
				Status:  driving.StatusPartial,
				Reason:  "2 records failed to merge",
				Created: 5,
				Skipped: []domain.Skip{{Origin: "a.json#3", Reason: "malformed record"}},
			},
			{Source: "taxii", Status: driving.StatusFailed, Reason: "fetch taxii: unauthorized"},
			{Source: "empty", Status: driving.StatusEmpty, Reason: "no records returned"},
		},
	}

	var buf bytes.Buffer
	writeRunReport(&buf, report)

	newGoldie(t).Assert(t, "run_report_mixed", buf.Bytes())
}

func TestWriteRunReport_NoSources(t *testing.T) {
	var buf bytes.Buffer
	writeRunReport(&buf, &driving.RunReport{RunID: "run-2"})

	newGoldie(t).Assert(t, "run_report_empty", buf.Bytes())
}

func TestWriteSourceReport_Incremental(t *testing.T) {
	var buf bytes.Buffer
	writeSourceReport(&buf, &driving.SourceReport{
		Source:    "mitre",
		Status:    driving.StatusOK,
		Created:   12,
		Updated:   4,
		Unchanged: 30,
		Pages:     3,
	})

	newGoldie(t).Assert(t, "source_report_incremental", buf.Bytes())
}
