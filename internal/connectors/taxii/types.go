package taxii

import "encoding/json"

const (
	// MediaType is the TAXII 2.1 content type sent in Accept.
	MediaType = "application/taxii+json; version=2.1"

	// HeaderDateAddedLast reports the date_added of the last object returned.
	HeaderDateAddedLast = "X-TAXII-Date-Added-Last"

	// apiRootMarker identifies a URL that is already an API root.
	apiRootMarker = "/api/v21/"
)

type discovery struct {
	Title    string   `json:"title"`
	Default  string   `json:"default"`
	APIRoots []string `json:"api_roots"`
}

type collectionList struct {
	Collections []collection `json:"collections"`
}

type collection struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// envelope is one page of collection objects.
type envelope struct {
	More    bool              `json:"more"`
	Next    string            `json:"next"`
	Objects []json.RawMessage `json:"objects"`
}
