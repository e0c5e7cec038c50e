package pattern

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/iocsync/internal/core/domain"
)

func rawObjects(t *testing.T, docs ...string) []json.RawMessage {
	t.Helper()
	out := make([]json.RawMessage, 0, len(docs))
	for _, d := range docs {
		require.True(t, json.Valid([]byte(d)), d)
		out = append(out, json.RawMessage(d))
	}
	return out
}

func TestExtractIndicators(t *testing.T) {
	objects := rawObjects(t,
		`{"type":"indicator","id":"indicator--1","pattern":"[ipv4-addr:value = '10.0.0.1']","pattern_type":"stix","labels":["c2"],"confidence":80,"valid_from":"2024-01-01T00:00:00Z","modified":"2024-02-01T00:00:00Z"}`,
		`{"type":"malware","id":"malware--1","name":"x"}`,
		`{"type":"indicator","id":"indicator--2","pattern":"[file:hashes.MD5 = 'aa' AND file:hashes.'SHA-256' = 'bb']","created":"2023-05-05T00:00:00Z"}`,
	)

	records, skipped := ExtractIndicators(objects, "bundle.json")

	assert.Empty(t, skipped)
	require.Len(t, records, 3)

	assert.Equal(t, domain.RawRecord{
		Type:       "ipv4-addr",
		Value:      "10.0.0.1",
		Labels:     []string{"c2"},
		Confidence: "80",
		FirstSeen:  "2024-01-01T00:00:00Z",
		LastSeen:   "2024-02-01T00:00:00Z",
		Origin:     "indicator--1",
	}, records[0])

	assert.Equal(t, "hash:md5", records[1].Type)
	assert.Equal(t, "aa", records[1].Value)
	assert.Equal(t, "2023-05-05T00:00:00Z", records[1].FirstSeen, "created is the fallback for valid_from")
	assert.Equal(t, "hash:sha256", records[2].Type)
	assert.Equal(t, "bb", records[2].Value)
}

func TestExtractIndicators_SkipsMalformed(t *testing.T) {
	objects := rawObjects(t,
		`{"type":"indicator","id":"indicator--bad","pattern":"[url:value = 'http://x"}`,
		`{"type":"indicator","pattern":"[url:value = 'http://x']"}`,
		`{"type":"indicator","id":"indicator--sigma","pattern":"title: x","pattern_type":"sigma"}`,
		`{"type":"indicator","id":"indicator--empty","pattern":"  "}`,
		`{"type":"indicator","id":"indicator--ok","pattern":"[url:value = 'http://ok/']"}`,
	)

	records, skipped := ExtractIndicators(objects, "feed.json")

	require.Len(t, records, 1)
	assert.Equal(t, "http://ok/", records[0].Value)
	require.Len(t, skipped, 4)
	assert.Equal(t, "feed.json: indicator--bad", skipped[0].Origin)
	assert.Contains(t, skipped[0].Reason, "malformed pattern")
	assert.Equal(t, "feed.json: object 1", skipped[1].Origin)
	assert.Contains(t, skipped[2].Reason, "sigma")
	assert.Contains(t, skipped[3].Reason, "no pattern")
}

func TestExtractIndicators_BundleWithMistypedObject(t *testing.T) {
	bundle := `{"type":"bundle","id":"bundle--1","objects":[
		{"type":"indicator","id":"indicator--mistyped","labels":5,"pattern":"[url:value = 'http://a/']"},
		{"type":"indicator","id":"indicator--good","pattern":"[domain-name:value = 'good.example']"}
	]}`
	objects, err := SplitContainer([]byte(bundle))
	require.NoError(t, err)

	records, skipped := ExtractIndicators(objects, "mixed.json")

	require.Len(t, records, 1)
	assert.Equal(t, "good.example", records[0].Value)
	require.Len(t, skipped, 1)
	assert.Equal(t, "mixed.json: indicator--mistyped", skipped[0].Origin)
}

func TestExtractIndicators_PlaceholderKept(t *testing.T) {
	objects := rawObjects(t, `{"type":"indicator","id":"indicator--3","pattern":"[network-traffic:dst_port > 0]"}`)

	records, skipped := ExtractIndicators(objects, "")

	assert.Empty(t, skipped)
	require.Len(t, records, 1)
	assert.Equal(t, "unknown", records[0].Type)
	assert.Empty(t, records[0].Value)
}

func TestExtractIndicators_ConfidenceShapes(t *testing.T) {
	objects := rawObjects(t,
		`{"type":"indicator","id":"a","pattern":"[url:value = 'u1']","confidence":"75"}`,
		`{"type":"indicator","id":"b","pattern":"[url:value = 'u2']","confidence":null}`,
		`{"type":"indicator","id":"c","pattern":"[url:value = 'u3']","confidence":{"x":1}}`,
	)

	records, _ := ExtractIndicators(objects, "")

	require.Len(t, records, 3)
	assert.Equal(t, "75", records[0].Confidence)
	assert.Empty(t, records[1].Confidence)
	assert.Empty(t, records[2].Confidence)
}

func TestSplitContainer(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want int
	}{
		{"bundle", `{"type":"bundle","id":"bundle--1","objects":[{"type":"indicator"},{"type":"malware"}]}`, 2},
		{"empty bundle", `{"type":"bundle","objects":[]}`, 0},
		{"list", `[{"type":"indicator"},{"type":"indicator"},{"type":"identity"}]`, 3},
		{"single object", `  {"type":"indicator","id":"indicator--1"}`, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			objects, err := SplitContainer([]byte(tt.doc))
			require.NoError(t, err)
			assert.Len(t, objects, tt.want)
		})
	}
}

func TestSplitContainer_Invalid(t *testing.T) {
	for _, doc := range []string{"", "   ", "{not json", `[1,`} {
		_, err := SplitContainer([]byte(doc))
		assert.ErrorIs(t, err, domain.ErrMalformedRecord, doc)
	}
}
