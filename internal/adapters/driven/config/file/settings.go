package file

import (
	"os"
	"slices"
	"strings"
	"time"

	"github.com/custodia-labs/iocsync/internal/core/domain"
	"github.com/custodia-labs/iocsync/internal/core/ports/driven"
	"github.com/custodia-labs/iocsync/internal/logger"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "IOCSYNC_"

// Configuration keys.
const (
	keyFeeds              = "feeds"
	keyTAXIISources       = "taxii.sources"
	keyCaseSensitiveTypes = "normaliser.case_sensitive_types"
	keyHTTPTimeout        = "http.timeout_seconds"
	keyRequestsPerSecond  = "http.requests_per_second"
)

// LoadFeedSettings reads the typed feed configuration for the named feeds.
//
// API keys may be overridden with IOCSYNC_<FEED>_API_KEY and TAXII
// passwords with IOCSYNC_TAXII_<SOURCE>_PASSWORD. A TAXII source without
// a discovery_url is skipped with a warning.
func LoadFeedSettings(store driven.ConfigStore, feeds []string) domain.FeedSettings {
	settings := domain.FeedSettings{
		Feeds:              make(map[string]domain.FeedConfig, len(feeds)),
		CaseSensitiveTypes: store.GetStringSlice(keyCaseSensitiveTypes),
		HTTPTimeout:        time.Duration(store.GetInt(keyHTTPTimeout)) * time.Second,
		RequestsPerSecond:  getFloat(store, keyRequestsPerSecond),
	}

	for _, name := range feeds {
		settings.Feeds[name] = loadFeed(store, name)
	}
	settings.Sources = loadSources(store)
	return settings
}

func loadFeed(store driven.ConfigStore, name string) domain.FeedConfig {
	prefix := keyFeeds + "." + name + "."
	cfg := domain.FeedConfig{
		APIKey:   strings.TrimSpace(store.GetString(prefix + "api_key")),
		MaxPages: store.GetInt(prefix + "max_pages"),
		Days:     store.GetInt(prefix + "days"),
	}
	if key := strings.TrimSpace(os.Getenv(EnvName(name, "API_KEY"))); key != "" {
		cfg.APIKey = key
	}
	if types := store.GetStringMap(prefix + "type_map"); len(types) > 0 {
		cfg.TypeMap = types
	}
	return cfg
}

func loadSources(store driven.ConfigStore) []domain.FeedSource {
	byName := make(map[string]*domain.FeedSource)
	for key, val := range store.GetStringMap(keyTAXIISources) {
		name, field, ok := strings.Cut(key, ".")
		if !ok || name == "" {
			continue
		}
		src := byName[name]
		if src == nil {
			src = &domain.FeedSource{Name: name}
			byName[name] = src
		}
		switch field {
		case "discovery_url":
			src.DiscoveryURL = strings.TrimSpace(val)
		case "username":
			src.Username = val
		case "password":
			src.Password = val
		case "added_after":
			src.AddedAfter = strings.TrimSpace(val)
		}
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	slices.Sort(names)

	var sources []domain.FeedSource
	for _, name := range names {
		src := byName[name]
		if src.DiscoveryURL == "" {
			logger.Warn("taxii source %s has no discovery_url, ignoring", name)
			continue
		}
		if pw := os.Getenv(EnvName("taxii_"+name, "PASSWORD")); pw != "" {
			src.Password = pw
		}
		sources = append(sources, *src)
	}
	return sources
}

// EnvName builds the override variable for a setting, e.g.
// EnvName("otx", "API_KEY") is IOCSYNC_OTX_API_KEY.
func EnvName(scope, setting string) string {
	scope = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - 'a' + 'A'
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		}
		return '_'
	}, scope)
	return EnvPrefix + scope + "_" + setting
}

func getFloat(store driven.ConfigStore, key string) float64 {
	val, _ := store.Get(key)
	switch v := val.(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	}
	return 0
}
