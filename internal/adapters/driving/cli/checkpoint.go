package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var resetCollection string

var checkpointCmd = &cobra.Command{
	Use:   "checkpoint",
	Short: "Inspect and reset incremental sync checkpoints",
}

var checkpointListCmd = &cobra.Command{
	Use:   "list [source]",
	Short: "List stored checkpoints",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if checkpointService == nil {
			return errors.New("checkpoint service not configured")
		}
		source := ""
		if len(args) > 0 {
			source = args[0]
		}
		checkpoints, err := checkpointService.List(cmd.Context(), source)
		if err != nil {
			return err
		}
		if len(checkpoints) == 0 {
			cmd.Println("No checkpoints stored.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SOURCE\tCOLLECTION\tUPDATED\tCURSOR")
		for _, cp := range checkpoints {
			collection := cp.Collection
			if collection == "" {
				collection = "(all)"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", cp.Source, collection, cp.UpdatedAt.UTC().Format(time.RFC3339), cp.Cursor)
		}
		return w.Flush()
	},
}

var checkpointResetCmd = &cobra.Command{
	Use:   "reset <source>",
	Short: "Delete a checkpoint so the next sync starts over",
	Long: `Deletes the checkpoints of a source so its next sync starts from the
configured added_after. Without --collection every checkpoint of the
source is deleted; with it only that collection is reset.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if checkpointService == nil {
			return errors.New("checkpoint service not configured")
		}
		if err := checkpointService.Reset(cmd.Context(), args[0], resetCollection); err != nil {
			return err
		}
		if resetCollection == "" {
			cmd.Printf("Checkpoint for %s reset.\n", args[0])
		} else {
			cmd.Printf("Checkpoint for %s/%s reset.\n", args[0], resetCollection)
		}
		return nil
	},
}

func init() {
	checkpointResetCmd.Flags().StringVar(&resetCollection, "collection", "", "Collection key to reset, as shown by checkpoint list")
	checkpointCmd.AddCommand(checkpointListCmd, checkpointResetCmd)
	rootCmd.AddCommand(checkpointCmd)
}
