package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/iocsync/internal/adapters/driven/config/file"
	"github.com/custodia-labs/iocsync/internal/adapters/driven/metrics"
	"github.com/custodia-labs/iocsync/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/iocsync/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/iocsync/internal/connectors"
	"github.com/custodia-labs/iocsync/internal/connectors/stix"
	"github.com/custodia-labs/iocsync/internal/connectors/taxii"
	"github.com/custodia-labs/iocsync/internal/core/ports/driven"
	"github.com/custodia-labs/iocsync/internal/core/ports/driving"
	"github.com/custodia-labs/iocsync/internal/core/services"
	"github.com/custodia-labs/iocsync/internal/logger"
	"github.com/custodia-labs/iocsync/internal/normalisers/indicator"
)

// version is set at build time with -ldflags "-X ...cli.version=v1.2.3".
var version = "dev"

// Global flags.
var (
	verbose     bool
	configDir   string
	dataDir     string
	metricsFile string
	dryRun      bool
)

// Services used by the commands. They are wired in PersistentPreRunE
// unless already set, which lets tests substitute their own.
var (
	ingestService     driving.IngestService
	indicatorService  driving.IndicatorService
	checkpointService driving.CheckpointService
	adapterFactory    *connectors.Factory
	recorder          *metrics.Recorder
	closeApp          func() error
)

// noWiring marks commands that never touch configuration or storage.
const noWiring = "no-wiring"

var rootCmd = &cobra.Command{
	Use:   "iocsync",
	Short: "Pull threat-intelligence indicators into a local store",
	Long: `iocsync fetches indicators of compromise from threat-intelligence
feeds (OTX, ThreatFox, STIX bundles and TAXII 2.1 servers), normalises
them into one canonical form and merges them into a local SQLite store.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Configuration directory (default ~/.iocsync)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Data directory (default ~/.iocsync/data)")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "",
		"Write run metrics to this file in Prometheus text format")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false,
		"Run the pipeline against an in-memory store; nothing is persisted")
}

// Execute runs the root command with ctx, then writes the metrics file
// and releases the stores.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if metricsFile != "" && recorder != nil {
		if werr := recorder.WriteToTextfile(metricsFile); werr != nil {
			logger.Error("writing metrics file: %v", werr)
		}
	}
	if closeApp != nil {
		err = errors.Join(err, closeApp())
		closeApp = nil
	}
	return err
}

func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	if cmd.Annotations[noWiring] == "true" || ingestService != nil {
		return nil
	}
	return wire()
}

// wire builds the application from configuration.
func wire() error {
	cfg, err := file.NewConfigStore(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	feeds := append(connectors.Default().Names(), stix.Name, taxii.Name)
	settings := file.LoadFeedSettings(cfg, feeds)

	var (
		indicators  driven.IndicatorStore
		checkpoints driven.CheckpointStore
	)
	if dryRun {
		logger.Info("dry run: using in-memory store")
		indicators = memory.NewIndicatorStore()
		checkpoints = memory.NewCheckpointStore()
		closeApp = func() error { return nil }
	} else {
		store, err := sqlite.NewStore(dataDir)
		if err != nil {
			return err
		}
		logger.Debug("using database %s", store.Path())
		indicators = store.IndicatorStore()
		checkpoints = store.CheckpointStore()
		closeApp = store.Close
	}

	var opts []indicator.Option
	if settings.CaseSensitiveTypes != nil {
		opts = append(opts, indicator.WithCaseSensitiveTypes(settings.CaseSensitiveTypes))
	}
	normaliser := indicator.New(opts...)

	recorder = metrics.New()
	adapterFactory = connectors.NewFactory(nil, settings)
	ingestService = services.NewIngestService(adapterFactory, normaliser, indicators, checkpoints,
		services.WithMetrics(recorder),
		services.WithRunIDs(uuid.NewString),
	)
	indicatorService = services.NewIndicatorService(indicators, normaliser)
	checkpointService = services.NewCheckpointService(checkpoints)
	return nil
}
