package threatfox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/custodia-labs/iocsync/internal/connectors/feedhttp"
	"github.com/custodia-labs/iocsync/internal/core/domain"
	"github.com/custodia-labs/iocsync/internal/core/ports/driven"
	"github.com/custodia-labs/iocsync/internal/logger"
)

const (
	// Name is the source name of the ThreatFox adapter.
	Name = "threatfox"

	// APIURL is the ThreatFox query endpoint.
	APIURL = "https://threatfox-api.abuse.ch/api/v1/"

	// HeaderAPIKey carries the ThreatFox API key.
	HeaderAPIKey = "Auth-Key"

	// MinDays and MaxDays bound the lookback window.
	MinDays = 1
	MaxDays = 7
)

// DefaultTypeMap maps ThreatFox ioc_type values to canonical types.
var DefaultTypeMap = domain.TypeMap{
	"ip:port":       domain.TypeIPPort,
	"domain":        domain.TypeDomain,
	"url":           domain.TypeURL,
	"md5_hash":      domain.TypeMD5,
	"sha1_hash":     domain.TypeSHA1,
	"sha256_hash":   domain.TypeSHA256,
	"sha3_384_hash": domain.TypeHash,
}

// Verify interface compliance.
var _ driven.FeedAdapter = (*Adapter)(nil)

// Adapter pulls the recent-IOC window from ThreatFox.
type Adapter struct {
	apiKey string
	url    string
	days   int
	client *feedhttp.Client
	types  domain.TypeMap
	log    logger.Prefixed
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithClient sets the HTTP client. Nil keeps the default.
func WithClient(c *feedhttp.Client) Option {
	return func(a *Adapter) {
		if c != nil {
			a.client = c
		}
	}
}

// WithDays sets the lookback window, clamped to [MinDays, MaxDays].
// Zero keeps the default of one day.
func WithDays(days int) Option {
	return func(a *Adapter) {
		if days != 0 {
			a.days = ClampDays(days)
		}
	}
}

// WithURL overrides APIURL.
func WithURL(u string) Option {
	return func(a *Adapter) {
		a.url = u
	}
}

// WithTypeOverrides extends or overrides DefaultTypeMap.
func WithTypeOverrides(overrides map[string]string) Option {
	return func(a *Adapter) {
		a.types = a.types.Merge(overrides)
	}
}

// New creates a ThreatFox adapter. Returns domain.ErrMissingCredential
// when apiKey is empty.
func New(apiKey string, opts ...Option) (*Adapter, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("threatfox: api key is not set: %w", domain.ErrMissingCredential)
	}
	a := &Adapter{
		apiKey: apiKey,
		url:    APIURL,
		days:   MinDays,
		client: feedhttp.New(),
		types:  DefaultTypeMap,
		log:    logger.Source(Name),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// ClampDays bounds a lookback window to what the API accepts.
func ClampDays(days int) int {
	return min(max(days, MinDays), MaxDays)
}

// Name returns "threatfox".
func (a *Adapter) Name() string { return Name }

// TypeMap returns the ThreatFox type table.
func (a *Adapter) TypeMap() domain.TypeMap { return a.types }

// Days returns the effective lookback window.
func (a *Adapter) Days() int { return a.days }

type query struct {
	Query string `json:"query"`
	Days  int    `json:"days"`
}

type response struct {
	QueryStatus string `json:"query_status"`
	// Data is a list of IOCs on success and a message string otherwise.
	Data json.RawMessage `json:"data"`
}

type ioc struct {
	ID              json.RawMessage `json:"id"`
	IOC             string          `json:"ioc"`
	IOCType         string          `json:"ioc_type"`
	ThreatType      string          `json:"threat_type"`
	Malware         string          `json:"malware"`
	ConfidenceLevel json.RawMessage `json:"confidence_level"`
	FirstSeen       string          `json:"first_seen"`
	LastSeen        string          `json:"last_seen"`
}

// FetchRaw requests the lookback window. A query_status other than "ok"
// yields an empty result, not an error.
func (a *Adapter) FetchRaw(ctx context.Context) (*driven.FetchResult, error) {
	var resp response
	header := http.Header{HeaderAPIKey: {a.apiKey}}
	if _, err := a.client.PostJSON(ctx, a.url, header, query{Query: "get_iocs", Days: a.days}, &resp); err != nil {
		return nil, fmt.Errorf("threatfox get_iocs: %w", err)
	}

	result := &driven.FetchResult{}
	if resp.QueryStatus != "ok" {
		a.log.Info("query_status %q, nothing to ingest", resp.QueryStatus)
		return result, nil
	}

	data := bytes.TrimSpace(resp.Data)
	if len(data) == 0 || data[0] != '[' {
		return result, nil
	}
	var iocs []json.RawMessage
	if err := json.Unmarshal(data, &iocs); err != nil {
		return nil, fmt.Errorf("threatfox: decode data: %w", err)
	}

	for i, raw := range iocs {
		var item ioc
		if err := json.Unmarshal(raw, &item); err != nil {
			skip := domain.Skip{
				Origin: fmt.Sprintf("ioc %d", i),
				Reason: fmt.Sprintf("%s: %v", domain.ErrMalformedRecord, err),
			}
			a.log.Warn("skipping %s: %s", skip.Origin, skip.Reason)
			result.Skipped = append(result.Skipped, skip)
			continue
		}
		result.Records = append(result.Records, item.record(i))
	}
	a.log.Debug("%d iocs for the last %d day(s)", len(result.Records), a.days)
	return result, nil
}

func (item *ioc) record(index int) domain.RawRecord {
	lastSeen := item.LastSeen
	if lastSeen == "" {
		lastSeen = item.FirstSeen
	}
	origin := scalarText(item.ID)
	if origin == "" {
		origin = fmt.Sprintf("%d", index)
	}
	return domain.RawRecord{
		Type:       item.IOCType,
		Value:      item.IOC,
		Labels:     labels(item.ThreatType, item.Malware),
		Confidence: scalarText(item.ConfidenceLevel),
		FirstSeen:  item.FirstSeen,
		LastSeen:   lastSeen,
		Origin:     "ioc " + origin,
	}
}

// labels derives labels from the threat type and malware family,
// leaving out placeholder values such as "unknown" or "unknown_malware".
func labels(values ...string) []string {
	var out []string
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" || strings.Contains(v, "unknown") {
			continue
		}
		if !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}

// scalarText renders a JSON number or string as plain text.
func scalarText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}
