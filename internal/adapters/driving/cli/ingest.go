package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/iocsync/internal/connectors/otx"
	"github.com/custodia-labs/iocsync/internal/connectors/stix"
	"github.com/custodia-labs/iocsync/internal/connectors/taxii"
	"github.com/custodia-labs/iocsync/internal/connectors/threatfox"
	"github.com/custodia-labs/iocsync/internal/core/domain"
	"github.com/custodia-labs/iocsync/internal/core/ports/driven"
	"github.com/custodia-labs/iocsync/internal/core/ports/driving"
)

// Ingest flags.
var (
	otxPages           int
	threatfoxDays      int
	taxiiUsername      string
	taxiiPassword      string
	taxiiPasswordStdin bool
	taxiiAddedAfter    string
)

// passwordReader reads the TAXII password for --password-stdin.
var passwordReader = readPassword

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Fetch indicators from a feed and merge them",
	Long: `Fetches indicators from one feed, or every registered feed, and merges
them into the store. Existing indicators gain the new labels and sources
and keep the widest seen window.`,
}

var ingestAllCmd = &cobra.Command{
	Use:   "all",
	Short: "Ingest from every registered feed",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if ingestService == nil {
			return errors.New("ingest service not configured")
		}
		report, err := ingestService.RunAll(cmd.Context())
		if report != nil {
			writeRunReport(cmd.OutOrStdout(), report)
		}
		return err
	},
}

var ingestOTXCmd = &cobra.Command{
	Use:   "otx",
	Short: "Ingest pulses from AlienVault OTX",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := feedConfig(otx.Name)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("pages") {
			cfg.MaxPages = otxPages
		}
		return ingestRegistered(cmd, otx.Name, cfg)
	},
}

var ingestThreatFoxCmd = &cobra.Command{
	Use:   "threatfox",
	Short: "Ingest recent IOCs from abuse.ch ThreatFox",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := feedConfig(threatfox.Name)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("days") {
			cfg.Days = threatfoxDays
		}
		return ingestRegistered(cmd, threatfox.Name, cfg)
	},
}

var ingestSTIXCmd = &cobra.Command{
	Use:   "stix <folder>",
	Short: "Ingest STIX 2.x bundles from a folder",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := feedConfig(stix.Name)
		if err != nil {
			return err
		}
		adapter, err := stix.New(args[0], cfg.TypeMap)
		if err != nil {
			return err
		}
		return ingestAdapter(cmd, adapter)
	},
}

var ingestTAXIICmd = &cobra.Command{
	Use:   "taxii <url>",
	Short: "Ingest every collection of a TAXII 2.1 server",
	Long: `Fetches every collection reachable from a TAXII 2.1 discovery URL or
API root URL. This is a one-off pull: no checkpoint is stored. Use
"iocsync sync" for configured sources that resume where they stopped.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngestTAXII,
}

func init() {
	ingestOTXCmd.Flags().IntVar(&otxPages, "pages", 0, "Maximum pages per OTX feed (0 for all)")
	ingestThreatFoxCmd.Flags().IntVar(&threatfoxDays, "days", 1, "Lookback window in days (1-7)")
	ingestTAXIICmd.Flags().StringVar(&taxiiUsername, "username", "", "Basic-auth username or API key")
	ingestTAXIICmd.Flags().StringVar(&taxiiPassword, "password", "", "Basic-auth password")
	ingestTAXIICmd.Flags().BoolVar(&taxiiPasswordStdin, "password-stdin", false, "Read the password from stdin")
	ingestTAXIICmd.Flags().StringVar(&taxiiAddedAfter, "added-after", "", "Only fetch objects added after this timestamp")

	ingestCmd.AddCommand(ingestAllCmd, ingestOTXCmd, ingestThreatFoxCmd, ingestSTIXCmd, ingestTAXIICmd)
	rootCmd.AddCommand(ingestCmd)
}

func runIngestTAXII(cmd *cobra.Command, args []string) error {
	cfg, err := feedConfig(taxii.Name)
	if err != nil {
		return err
	}
	password := taxiiPassword
	if taxiiPasswordStdin {
		cmd.Print("Password: ")
		password = passwordReader()
		cmd.Println()
	}
	adapter, err := taxii.New(args[0],
		taxii.WithClient(adapterFactory.Client()),
		taxii.WithCredentials(taxiiUsername, password),
		taxii.WithAddedAfter(taxiiAddedAfter),
		taxii.WithTypeOverrides(cfg.TypeMap),
	)
	if err != nil {
		return err
	}
	return ingestAdapter(cmd, adapter)
}

// feedConfig returns the configured settings for a feed.
func feedConfig(name string) (domain.FeedConfig, error) {
	if ingestService == nil || adapterFactory == nil {
		return domain.FeedConfig{}, errors.New("ingest service not configured")
	}
	return adapterFactory.Settings().Feed(name), nil
}

// ingestRegistered builds a registered adapter from cfg and runs it. A
// build failure, such as a missing API key, is reported as a skip.
func ingestRegistered(cmd *cobra.Command, name string, cfg domain.FeedConfig) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Fetching %s...\n", name)

	adapter, err := adapterFactory.CreateWith(name, cfg)
	if err != nil {
		writeSourceReport(out, &driving.SourceReport{
			Source: name,
			Status: driving.StatusSkipped,
			Reason: err.Error(),
		})
		writeTotal(out, 0)
		if errors.Is(err, domain.ErrMissingCredential) {
			return nil
		}
		return err
	}
	return runAdapter(cmd, adapter)
}

func ingestAdapter(cmd *cobra.Command, adapter driven.FeedAdapter) error {
	fmt.Fprintf(cmd.OutOrStdout(), "Fetching %s...\n", adapter.Name())
	return runAdapter(cmd, adapter)
}

func runAdapter(cmd *cobra.Command, adapter driven.FeedAdapter) error {
	out := cmd.OutOrStdout()
	report, err := ingestService.RunAdapter(cmd.Context(), adapter)
	if report != nil {
		writeSourceReport(out, report)
		writeTotal(out, report.Created)
	}
	return err
}

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword() string {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}
