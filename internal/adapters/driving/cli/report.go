package cli

import (
	"fmt"
	"io"

	"github.com/custodia-labs/iocsync/internal/core/ports/driving"
)

// writeSourceReport prints the operator summary for one source.
func writeSourceReport(w io.Writer, r *driving.SourceReport) {
	switch r.Status {
	case driving.StatusSkipped:
		fmt.Fprintf(w, "  %s skipped: %s\n", r.Source, r.Reason)
	case driving.StatusFailed:
		fmt.Fprintf(w, "  %s failed: %s\n", r.Source, r.Reason)
	case driving.StatusPartial:
		fmt.Fprintf(w, "  %s: %d new indicators (partial: %s)\n", r.Source, r.Created, r.Reason)
	default:
		fmt.Fprintf(w, "  %s: %d new indicators\n", r.Source, r.Created)
	}
	if r.Updated > 0 || len(r.Skipped) > 0 {
		fmt.Fprintf(w, "    %d updated, %d unchanged, %d skipped\n", r.Updated, r.Unchanged, len(r.Skipped))
	}
	if r.Pages > 0 {
		fmt.Fprintf(w, "    %d pages checkpointed\n", r.Pages)
	}
}

// writeRunReport prints every source followed by the run total.
func writeRunReport(w io.Writer, r *driving.RunReport) {
	for i := range r.Sources {
		fmt.Fprintf(w, "Fetching %s...\n", r.Sources[i].Source)
		writeSourceReport(w, &r.Sources[i])
	}
	writeTotal(w, r.TotalCreated())
}

func writeTotal(w io.Writer, total int) {
	fmt.Fprintf(w, "\nDone. %d total new indicators saved.\n", total)
}
