package connectors

import (
	"fmt"
	"slices"

	"github.com/custodia-labs/iocsync/internal/connectors/feedhttp"
	"github.com/custodia-labs/iocsync/internal/connectors/taxii"
	"github.com/custodia-labs/iocsync/internal/core/domain"
	"github.com/custodia-labs/iocsync/internal/core/ports/driven"
)

// Verify interface compliance.
var _ driven.AdapterFactory = (*Factory)(nil)

// Factory builds adapters from a registry and the process feed settings.
type Factory struct {
	registry *Registry
	settings domain.FeedSettings
	client   *feedhttp.Client
}

// NewFactory creates a factory. A nil registry uses the process-wide one.
// The HTTP client is shared by every adapter the factory builds.
func NewFactory(registry *Registry, settings domain.FeedSettings) *Factory {
	if registry == nil {
		registry = Default()
	}
	return &Factory{
		registry: registry,
		settings: settings,
		client: feedhttp.New(
			feedhttp.WithTimeout(settings.HTTPTimeout),
			feedhttp.WithRateLimit(settings.RequestsPerSecond),
		),
	}
}

// Client returns the shared HTTP client, for adapters built ad hoc.
func (f *Factory) Client() *feedhttp.Client {
	return f.client
}

// Registered returns the registered adapter names, sorted.
func (f *Factory) Registered() []string {
	return f.registry.Names()
}

// Create builds a registered adapter with its configured settings.
func (f *Factory) Create(name string) (driven.FeedAdapter, error) {
	return f.registry.Build(name, f.settings.Feed(name), f.client)
}

// CreateWith builds a registered adapter from cfg instead of the
// configured settings, e.g. to apply command-line overrides.
func (f *Factory) CreateWith(name string, cfg domain.FeedConfig) (driven.FeedAdapter, error) {
	return f.registry.Build(name, cfg, f.client)
}

// Settings returns the feed settings the factory was built with.
func (f *Factory) Settings() domain.FeedSettings {
	return f.settings
}

// IncrementalSources returns the configured TAXII source names, sorted.
func (f *Factory) IncrementalSources() []string {
	names := make([]string, 0, len(f.settings.Sources))
	for _, src := range f.settings.Sources {
		names = append(names, src.Name)
	}
	slices.Sort(names)
	return names
}

// CreateIncremental builds the TAXII adapter for a configured source.
func (f *Factory) CreateIncremental(name string) (driven.IncrementalAdapter, error) {
	src, ok := f.settings.Source(name)
	if !ok {
		return nil, fmt.Errorf("incremental source %q: %w", name, domain.ErrNotFound)
	}
	return taxii.FromSource(src,
		taxii.WithClient(f.client),
		taxii.WithTypeOverrides(f.settings.Feed(taxii.Name).TypeMap),
	)
}
