package taxii

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/iocsync/internal/connectors/feedhttp"
	"github.com/custodia-labs/iocsync/internal/core/domain"
	"github.com/custodia-labs/iocsync/internal/core/ports/driven"
	"github.com/custodia-labs/iocsync/internal/logger"
	"github.com/custodia-labs/iocsync/internal/pattern"
)

// Name is the source name of an ad hoc TAXII adapter. Adapters built
// from a configured source use the source name instead.
const Name = "taxii"

// timeLayout formats wall-clock fallback cursors the way TAXII servers do.
const timeLayout = "2006-01-02T15:04:05.000Z"

// Verify interface compliance.
var _ driven.IncrementalAdapter = (*Adapter)(nil)

// Adapter pulls indicators from a TAXII 2.1 server.
type Adapter struct {
	name       string
	url        string
	auth       *feedhttp.BasicAuth
	addedAfter string
	pageSize   int
	client     *feedhttp.Client
	types      domain.TypeMap
	now        func() time.Time
	log        logger.Prefixed
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithName sets the source name used for checkpoints and reporting.
func WithName(name string) Option {
	return func(a *Adapter) {
		if name = strings.TrimSpace(name); name != "" {
			a.name = name
		}
	}
}

// WithCredentials enables basic auth when username is non-empty.
// A blank password is sent as is.
func WithCredentials(username, password string) Option {
	return func(a *Adapter) {
		if strings.TrimSpace(username) == "" {
			a.auth = nil
			return
		}
		a.auth = &feedhttp.BasicAuth{Username: username, Password: password}
	}
}

// WithAddedAfter sets the initial added_after used when no checkpoint exists.
func WithAddedAfter(ts string) Option {
	return func(a *Adapter) {
		a.addedAfter = strings.TrimSpace(ts)
	}
}

// WithPageSize sets the limit parameter. Zero lets the server decide.
func WithPageSize(n int) Option {
	return func(a *Adapter) {
		if n >= 0 {
			a.pageSize = n
		}
	}
}

// WithClient sets the HTTP client. Nil keeps the default.
func WithClient(c *feedhttp.Client) Option {
	return func(a *Adapter) {
		if c != nil {
			a.client = c
		}
	}
}

// WithTypeOverrides extends or overrides the STIX type table.
func WithTypeOverrides(overrides map[string]string) Option {
	return func(a *Adapter) {
		a.types = a.types.Merge(overrides)
	}
}

// WithClock replaces the wall clock used for fallback cursors.
func WithClock(now func() time.Time) Option {
	return func(a *Adapter) {
		if now != nil {
			a.now = now
		}
	}
}

// New creates an adapter for a discovery URL or API root URL.
func New(discoveryURL string, opts ...Option) (*Adapter, error) {
	discoveryURL = strings.TrimSpace(discoveryURL)
	if discoveryURL == "" {
		return nil, fmt.Errorf("taxii: discovery url is required: %w", domain.ErrInvalidInput)
	}
	if _, err := url.ParseRequestURI(discoveryURL); err != nil {
		return nil, fmt.Errorf("taxii: invalid url %q: %w", discoveryURL, domain.ErrInvalidInput)
	}
	a := &Adapter{
		name:   Name,
		url:    discoveryURL,
		client: feedhttp.New(),
		types:  pattern.TypeMap,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.log = logger.Source(a.name)
	return a, nil
}

// FromSource creates an adapter for a configured feed source.
func FromSource(src domain.FeedSource, opts ...Option) (*Adapter, error) {
	base := []Option{
		WithName(src.Name),
		WithCredentials(src.Username, src.Password),
		WithAddedAfter(src.AddedAfter),
	}
	return New(src.DiscoveryURL, append(base, opts...)...)
}

// Name returns the source name.
func (a *Adapter) Name() string { return a.name }

// TypeMap returns the STIX observable type table.
func (a *Adapter) TypeMap() domain.TypeMap { return a.types }

// IsAPIRoot reports whether u already points at a TAXII 2.1 API root.
func IsAPIRoot(u string) bool {
	return strings.Contains(strings.TrimRight(u, "/")+"/", apiRootMarker)
}

// FetchRaw fetches every page of every collection from the configured
// added_after onwards, ignoring stored checkpoints.
func (a *Adapter) FetchRaw(ctx context.Context) (*driven.FetchResult, error) {
	result := &driven.FetchResult{}
	noCursor := func(context.Context, string) (string, error) { return "", nil }
	for page, err := range a.Pages(ctx, noCursor) {
		if err != nil {
			return nil, err
		}
		result.Append(&page.Result)
	}
	return result, nil
}

// Pages yields one page per objects request, across all API roots and
// collections. cursors is consulted once per collection before its first
// request. Iteration stops at the first error.
func (a *Adapter) Pages(ctx context.Context, cursors driven.CursorLookup) iter.Seq2[*driven.Page, error] {
	return func(yield func(*driven.Page, error) bool) {
		roots, err := a.apiRoots(ctx)
		if err != nil {
			yield(nil, err)
			return
		}
		for _, root := range roots {
			cols, err := a.collections(ctx, root)
			if err != nil {
				yield(nil, err)
				return
			}
			a.log.Debug("%s: %d collections", root, len(cols))
			for _, col := range cols {
				if !a.collectionPages(ctx, root, col, cursors, yield) {
					return
				}
			}
		}
	}
}

// collectionPages pages through one collection. It returns false when
// iteration must stop.
func (a *Adapter) collectionPages(
	ctx context.Context,
	root string,
	col collection,
	cursors driven.CursorLookup,
	yield func(*driven.Page, error) bool,
) bool {
	key := CheckpointKey(root, col.ID)
	cur, err := a.startCursor(ctx, key, cursors)
	if err != nil {
		yield(nil, err)
		return false
	}

	objectsURL := strings.TrimRight(root, "/") + "/collections/" + url.PathEscape(col.ID) + "/objects/"
	origin := "collection " + col.ID

	for {
		if err := ctx.Err(); err != nil {
			yield(nil, err)
			return false
		}

		query := url.Values{}
		if cur.Next != "" {
			query.Set("next", cur.Next)
		} else if cur.AddedAfter != "" {
			query.Set("added_after", cur.AddedAfter)
		}
		if a.pageSize > 0 {
			query.Set("limit", strconv.Itoa(a.pageSize))
		}

		var env envelope
		header, err := a.get(ctx, objectsURL, query, &env)
		if err != nil {
			yield(nil, fmt.Errorf("taxii %s objects: %w", key, err))
			return false
		}

		records, skipped := pattern.ExtractIndicators(env.Objects, origin)
		for _, s := range skipped {
			a.log.Warn("skipping %s: %s", s.Origin, s.Reason)
		}

		cur = a.advance(cur, &env, header.Get(HeaderDateAddedLast))
		page := &driven.Page{
			Collection: key,
			Result:     driven.FetchResult{Records: records, Skipped: skipped},
			Cursor:     cur.Encode(),
		}
		a.log.Debug("%s: %d objects, %d records, more=%t", key, len(env.Objects), len(records), env.More)
		if !yield(page, nil) {
			return false
		}

		if !env.More || env.Next == "" {
			return true
		}
	}
}

// CheckpointKey names a collection in checkpoints: the collection's path
// under its API root, so equal collection IDs on different roots of one
// server never share a cursor.
func CheckpointKey(root, collectionID string) string {
	base := root
	if u, err := url.Parse(root); err == nil && u.Path != "" {
		base = u.Path
	}
	return strings.TrimRight(base, "/") + "/collections/" + collectionID
}

// startCursor resolves where a collection resumes: the stored cursor
// (collection or source-wide), else the configured added_after.
func (a *Adapter) startCursor(ctx context.Context, key string, cursors driven.CursorLookup) (*Cursor, error) {
	start := &Cursor{Version: CursorVersion, AddedAfter: a.addedAfter}
	if cursors == nil {
		return start, nil
	}

	stored, err := cursors(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("taxii %s checkpoint: %w", key, err)
	}
	if stored == "" {
		return start, nil
	}

	cur, err := DecodeCursor(stored)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCursor) {
			a.log.Warn("%s: ignoring unreadable checkpoint, starting from added_after %q", key, a.addedAfter)
			return start, nil
		}
		return nil, err
	}
	if cur.IsZero() {
		return start, nil
	}
	return cur, nil
}

// advance computes the cursor that resumes after env.
func (a *Adapter) advance(prev *Cursor, env *envelope, dateAddedLast string) *Cursor {
	next := &Cursor{Version: CursorVersion, AddedAfter: prev.AddedAfter}
	if dateAddedLast != "" {
		next.AddedAfter = dateAddedLast
	}
	if env.More && env.Next != "" {
		next.Next = env.Next
		return next
	}
	if dateAddedLast == "" {
		next.AddedAfter = a.now().UTC().Format(timeLayout)
	}
	return next
}

// apiRoots returns the API roots to read, running discovery when needed.
func (a *Adapter) apiRoots(ctx context.Context) ([]string, error) {
	if IsAPIRoot(a.url) {
		return []string{strings.TrimRight(a.url, "/")}, nil
	}

	var d discovery
	if _, err := a.get(ctx, a.url, nil, &d); err != nil {
		return nil, fmt.Errorf("taxii discovery: %w", err)
	}

	base, err := url.Parse(a.url)
	if err != nil {
		return nil, fmt.Errorf("taxii discovery: %w", err)
	}
	roots := make([]string, 0, len(d.APIRoots))
	for _, r := range d.APIRoots {
		ref, err := url.Parse(r)
		if err != nil {
			a.log.Warn("ignoring invalid api root %q", r)
			continue
		}
		roots = append(roots, strings.TrimRight(base.ResolveReference(ref).String(), "/"))
	}
	return roots, nil
}

func (a *Adapter) collections(ctx context.Context, root string) ([]collection, error) {
	var list collectionList
	if _, err := a.get(ctx, strings.TrimRight(root, "/")+"/collections/", nil, &list); err != nil {
		return nil, fmt.Errorf("taxii collections: %w", err)
	}
	return list.Collections, nil
}

func (a *Adapter) get(ctx context.Context, u string, query url.Values, out any) (http.Header, error) {
	return a.client.Do(ctx, feedhttp.Request{
		Method: http.MethodGet,
		URL:    u,
		Query:  query,
		Header: http.Header{"Accept": {MediaType}},
		Auth:   a.auth,
	}, out)
}
