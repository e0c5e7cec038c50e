package domain

import (
	"strings"
	"time"
)

// FeedSource is the static configuration of an incremental feed.
// It is supplied externally and never mutated by the core.
type FeedSource struct {
	// Name is the unique source name used for checkpoints and reporting.
	Name string

	// DiscoveryURL is the discovery endpoint or an API root URL.
	DiscoveryURL string

	// Username is the basic-auth user. Some providers accept an API key here.
	Username string

	// Password is the basic-auth password. May be blank.
	Password string

	// AddedAfter is the initial cursor used when no checkpoint exists.
	AddedAfter string
}

// HasCredentials reports whether requests should be authenticated.
// A username alone is enough: some providers use the key as the username.
func (s *FeedSource) HasCredentials() bool {
	return strings.TrimSpace(s.Username) != ""
}

// FeedConfig is the static configuration of one registered feed.
// Fields a feed does not use are ignored.
type FeedConfig struct {
	// APIKey authenticates against the feed.
	APIKey string

	// MaxPages caps paginated pulls. Zero means all pages.
	MaxPages int

	// Days is the lookback window for window-based feeds.
	Days int

	// TypeMap extends or overrides the feed's built-in type table.
	TypeMap map[string]string
}

// FeedSettings is the full feed configuration of the process.
type FeedSettings struct {
	// Feeds holds per-feed configuration keyed by adapter name.
	Feeds map[string]FeedConfig

	// Sources are the configured incremental sources.
	Sources []FeedSource

	// CaseSensitiveTypes lists the canonical types whose values keep their casing.
	CaseSensitiveTypes []string

	// HTTPTimeout bounds every feed request.
	HTTPTimeout time.Duration

	// RequestsPerSecond throttles feed requests. Zero disables throttling.
	RequestsPerSecond float64
}

// Feed returns the configuration for a named feed, or the zero value.
func (s FeedSettings) Feed(name string) FeedConfig {
	return s.Feeds[name]
}

// Source returns the incremental source with the given name.
func (s FeedSettings) Source(name string) (FeedSource, bool) {
	for _, src := range s.Sources {
		if src.Name == name {
			return src, true
		}
	}
	return FeedSource{}, false
}
