package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/iocsync/internal/connectors"
	"github.com/custodia-labs/iocsync/internal/connectors/stix"
	"github.com/custodia-labs/iocsync/internal/connectors/taxii"
)

// adapterRegistry lists the adapters "ingest all" runs.
var adapterRegistry = connectors.Default

var adaptersCmd = &cobra.Command{
	Use:         "adapters",
	Short:       "List available feed adapters",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{noWiring: "true"},
	Run: func(cmd *cobra.Command, _ []string) {
		for _, name := range adapterRegistry().Names() {
			cmd.Printf("%s\t(registered)\n", name)
		}
		cmd.Printf("%s\t(ingest stix <folder>)\n", stix.Name)
		cmd.Printf("%s\t(ingest taxii <url>, sync)\n", taxii.Name)
	},
}

func init() {
	rootCmd.AddCommand(adaptersCmd)
}
