package driven

import (
	"context"
	"iter"

	"github.com/custodia-labs/iocsync/internal/core/domain"
)

// FeedAdapter fetches raw indicator records from one threat feed.
// Each feed (otx, threatfox, stix, taxii) implements this interface.
type FeedAdapter interface {
	// Name returns the stable source name. It is used as the registry key,
	// for configuration lookup, and as the value recorded in Sources.
	Name() string

	// TypeMap returns the feed's provider-to-canonical type table.
	TypeMap() domain.TypeMap

	// FetchRaw retrieves raw records from the feed.
	// A non-nil error together with a non-empty result means the fetch
	// failed part-way and the result holds everything collected before
	// the failure. Work already collected is never discarded.
	FetchRaw(ctx context.Context) (*FetchResult, error)
}

// FetchResult is the outcome of one fetch: the records that were
// extracted and the items that had to be skipped.
type FetchResult struct {
	Records []domain.RawRecord
	Skipped []domain.Skip
}

// Append adds another result's records and skips to r.
func (r *FetchResult) Append(other *FetchResult) {
	if other == nil {
		return
	}
	r.Records = append(r.Records, other.Records...)
	r.Skipped = append(r.Skipped, other.Skipped...)
}

// Len returns the number of records in the result.
func (r *FetchResult) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Records)
}

// CursorLookup returns the stored cursor for a collection, or an empty
// string when none exists.
type CursorLookup func(ctx context.Context, collection string) (string, error)

// IncrementalAdapter is a FeedAdapter that delivers pages one at a time,
// each carrying the cursor that resumes after it.
type IncrementalAdapter interface {
	FeedAdapter

	// Pages yields pages in order. The caller must fully process a page
	// before persisting its Cursor. Iteration stops at the first error.
	Pages(ctx context.Context, cursors CursorLookup) iter.Seq2[*Page, error]
}

// Page is one envelope of records from an incremental feed.
type Page struct {
	// Collection identifies which collection the page belongs to.
	Collection string

	// Result holds the page's records and skips.
	Result FetchResult

	// Cursor resumes fetching after this page. Empty means no advance.
	Cursor string
}
