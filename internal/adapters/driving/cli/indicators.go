package cli

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/iocsync/internal/core/domain"
)

// Indicator list flags.
var (
	listType   string
	listSource string
	listLimit  int
)

var indicatorsCmd = &cobra.Command{
	Use:     "indicators",
	Aliases: []string{"ioc"},
	Short:   "Query stored indicators",
}

var indicatorsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List indicators, most recently seen first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if indicatorService == nil {
			return errors.New("indicator service not configured")
		}
		found, err := indicatorService.List(cmd.Context(), domain.IndicatorFilter{
			Type:   domain.IndicatorType(strings.ToLower(strings.TrimSpace(listType))),
			Source: listSource,
			Limit:  listLimit,
		})
		if err != nil {
			return err
		}
		if len(found) == 0 {
			cmd.Println("No indicators found.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TYPE\tVALUE\tCONFIDENCE\tLAST SEEN\tSOURCES\tLABELS")
		for i := range found {
			ind := &found[i]
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				ind.Type, ind.Value, confidence(ind.Confidence), lastSeen(ind.LastSeen),
				strings.Join(ind.Sources, ","), strings.Join(ind.Labels, ","))
		}
		return w.Flush()
	},
}

var indicatorsCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Count stored indicators per type",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if indicatorService == nil {
			return errors.New("indicator service not configured")
		}
		counts, err := indicatorService.Count(cmd.Context())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		total := 0
		for _, t := range slices.Sorted(maps.Keys(counts)) {
			fmt.Fprintf(w, "%s\t%d\n", t, counts[t])
			total += counts[t]
		}
		fmt.Fprintf(w, "total\t%d\n", total)
		return w.Flush()
	},
}

func init() {
	indicatorsListCmd.Flags().StringVarP(&listType, "type", "t", "", "Only list this canonical type (e.g. ip, hash:sha256)")
	indicatorsListCmd.Flags().StringVarP(&listSource, "source", "s", "", "Only list indicators reported by this feed")
	indicatorsListCmd.Flags().IntVarP(&listLimit, "limit", "n", 50, "Maximum number of indicators (0 for all)")
	indicatorsCmd.AddCommand(indicatorsListCmd, indicatorsCountCmd)
	rootCmd.AddCommand(indicatorsCmd)
}

func confidence(c *int) string {
	if c == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *c)
}

func lastSeen(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}
