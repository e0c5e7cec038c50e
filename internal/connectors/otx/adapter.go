package otx

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/custodia-labs/iocsync/internal/connectors/feedhttp"
	"github.com/custodia-labs/iocsync/internal/core/domain"
	"github.com/custodia-labs/iocsync/internal/core/ports/driven"
	"github.com/custodia-labs/iocsync/internal/logger"
)

const (
	// Name is the source name of the OTX adapter.
	Name = "otx"

	// BaseURL is the OTX API base.
	BaseURL = "https://otx.alienvault.com/api/v1"

	// HeaderAPIKey carries the OTX API key.
	HeaderAPIKey = "X-OTX-API-KEY"
)

// Feeds are the pulse feeds pulled on every fetch, in order.
var Feeds = []string{"pulses/activity", "pulses/subscribed"}

// Verify interface compliance.
var _ driven.FeedAdapter = (*Adapter)(nil)

// Adapter pulls indicators from OTX pulse feeds.
type Adapter struct {
	apiKey   string
	baseURL  string
	feeds    []string
	maxPages int
	client   *feedhttp.Client
	types    domain.TypeMap
	log      logger.Prefixed
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

// WithMaxPages caps the pages fetched per feed. Zero means all pages.
func WithMaxPages(n int) Option {
	return func(a *Adapter) {
		if n >= 0 {
			a.maxPages = n
		}
	}
}

// WithBaseURL overrides BaseURL.
func WithBaseURL(u string) Option {
	return func(a *Adapter) {
		a.baseURL = strings.TrimRight(u, "/")
	}
}

// WithFeeds overrides the pulse feeds pulled.
func WithFeeds(feeds ...string) Option {
	return func(a *Adapter) {
		a.feeds = feeds
	}
}

// WithTypeOverrides extends or overrides DefaultTypeMap.
func WithTypeOverrides(overrides map[string]string) Option {
	return func(a *Adapter) {
		a.types = a.types.Merge(overrides)
	}
}

// New creates an OTX adapter. Returns domain.ErrMissingCredential when
// apiKey is empty.
func New(apiKey string, opts ...Option) (*Adapter, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("otx: api key is not set: %w", domain.ErrMissingCredential)
	}
	a := &Adapter{
		apiKey:  apiKey,
		baseURL: BaseURL,
		feeds:   Feeds,
		client:  feedhttp.New(),
		types:   DefaultTypeMap,
		log:     logger.Source(Name),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Name returns "otx".
func (a *Adapter) Name() string { return Name }

// TypeMap returns the OTX type table.
func (a *Adapter) TypeMap() domain.TypeMap { return a.types }

// FetchRaw pulls every configured feed. A failed request stops the fetch;
// records collected before the failure are returned with the error.
func (a *Adapter) FetchRaw(ctx context.Context) (*driven.FetchResult, error) {
	result := &driven.FetchResult{}
	for _, feed := range a.feeds {
		if err := a.fetchFeed(ctx, feed, result); err != nil {
			a.log.Warn("%s failed after %d records: %v", feed, result.Len(), err)
			return result, fmt.Errorf("otx %s: %w", feed, err)
		}
	}
	return result, nil
}

// fetchFeed pages through one feed, appending to result as it goes.
func (a *Adapter) fetchFeed(ctx context.Context, feed string, result *driven.FetchResult) error {
	header := http.Header{HeaderAPIKey: {a.apiKey}}
	next := a.baseURL + "/" + feed
	pages := 0

	for next != "" {
		if a.maxPages > 0 && pages >= a.maxPages {
			a.log.Debug("%s: page budget of %d reached", feed, a.maxPages)
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		var page pulsePage
		if _, err := a.client.GetJSON(ctx, next, header, &page); err != nil {
			return err
		}
		pages++

		before := result.Len()
		for i := range page.Results {
			result.Records = append(result.Records, flatten(&page.Results[i])...)
		}
		a.log.Debug("%s page %d: %d pulses, %d indicators", feed, pages, len(page.Results), result.Len()-before)

		next = resolveNext(next, page.Next)
	}
	return nil
}

// flatten converts a pulse's indicators into raw records.
func flatten(p *pulse) []domain.RawRecord {
	records := make([]domain.RawRecord, 0, len(p.Indicators))
	for _, ind := range p.Indicators {
		firstSeen := ind.Created
		if firstSeen == "" {
			firstSeen = p.Created
		}
		lastSeen := ind.Modified
		if lastSeen == "" {
			lastSeen = p.Modified
		}
		records = append(records, domain.RawRecord{
			Type:      ind.Type,
			Value:     ind.Indicator,
			Labels:    p.Tags,
			FirstSeen: firstSeen,
			LastSeen:  lastSeen,
			Origin:    "pulse " + p.ID,
		})
	}
	return records
}

// resolveNext resolves the server's next link against the current URL.
func resolveNext(current, next string) string {
	if next == "" {
		return ""
	}
	base, err := url.Parse(current)
	if err != nil {
		return next
	}
	ref, err := url.Parse(next)
	if err != nil {
		return next
	}
	return base.ResolveReference(ref).String()
}
