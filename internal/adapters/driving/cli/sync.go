package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync [source]",
	Short: "Incrementally pull configured TAXII sources",
	Long: `Pulls new objects from the TAXII sources configured under
[taxii.sources.<name>], resuming from the stored checkpoints.
If a source name is provided, only that source is pulled.
Otherwise, every configured source is pulled in name order.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}
	out := cmd.OutOrStdout()

	if len(args) > 0 {
		name := args[0]
		fmt.Fprintf(out, "Fetching %s...\n", name)
		report, err := ingestService.RunSource(cmd.Context(), name)
		if report != nil {
			writeSourceReport(out, report)
			writeTotal(out, report.Created)
		}
		if err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}
		return nil
	}

	report, err := ingestService.RunAllIncremental(cmd.Context())
	if report != nil {
		if len(report.Sources) == 0 {
			fmt.Fprintln(out, "No TAXII sources configured.")
			return err
		}
		writeRunReport(out, report)
	}
	return err
}
