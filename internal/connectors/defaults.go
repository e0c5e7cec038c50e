package connectors

import (
	"github.com/custodia-labs/iocsync/internal/connectors/feedhttp"
	"github.com/custodia-labs/iocsync/internal/connectors/otx"
	"github.com/custodia-labs/iocsync/internal/connectors/threatfox"
	"github.com/custodia-labs/iocsync/internal/core/domain"
	"github.com/custodia-labs/iocsync/internal/core/ports/driven"
)

// RegisterDefaults registers the built-in pull adapters with the registry.
// Call this during application initialisation.
func RegisterDefaults(r *Registry) {
	r.Register(otx.Name, buildOTX)
	r.Register(threatfox.Name, buildThreatFox)
}

// buildOTX creates the OTX adapter. Supported settings:
//   - api_key (required)
//   - max_pages: pages per feed, 0 for all
//   - type_map: overrides for the OTX type table
func buildOTX(cfg domain.FeedConfig, client *feedhttp.Client) (driven.FeedAdapter, error) {
	return otx.New(cfg.APIKey,
		otx.WithClient(client),
		otx.WithMaxPages(cfg.MaxPages),
		otx.WithTypeOverrides(cfg.TypeMap),
	)
}

// buildThreatFox creates the ThreatFox adapter. Supported settings:
//   - api_key (required)
//   - days: lookback window, clamped to 1..7
//   - type_map: overrides for the ThreatFox type table
func buildThreatFox(cfg domain.FeedConfig, client *feedhttp.Client) (driven.FeedAdapter, error) {
	return threatfox.New(cfg.APIKey,
		threatfox.WithClient(client),
		threatfox.WithDays(cfg.Days),
		threatfox.WithTypeOverrides(cfg.TypeMap),
	)
}
