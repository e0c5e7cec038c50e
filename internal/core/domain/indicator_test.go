package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndicator_Key(t *testing.T) {
	ind := Indicator{Type: TypeDomain, Value: "evil.com"}

	assert.Equal(t, IndicatorKey{Type: TypeDomain, Value: "evil.com"}, ind.Key())
	assert.Equal(t, "domain:evil.com", ind.String())
}

func TestIndicator_Clone(t *testing.T) {
	conf := 40
	seen := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	orig := Indicator{
		Type:       TypeIPv4,
		Value:      "192.0.2.1",
		Confidence: &conf,
		Labels:     []string{"c2"},
		Sources:    []string{"otx"},
		FirstSeen:  &seen,
		LastSeen:   &seen,
	}

	clone := orig.Clone()
	clone.Labels[0] = "changed"
	clone.Sources = append(clone.Sources, "threatfox")
	*clone.Confidence = 99
	*clone.LastSeen = seen.Add(time.Hour)

	assert.Equal(t, []string{"c2"}, orig.Labels)
	assert.Equal(t, []string{"otx"}, orig.Sources)
	require.NotNil(t, orig.Confidence)
	assert.Equal(t, 40, *orig.Confidence)
	assert.True(t, orig.LastSeen.Equal(seen))
}

func TestIndicator_CloneNilFields(t *testing.T) {
	orig := Indicator{Type: TypeUnknown}

	clone := orig.Clone()

	assert.Nil(t, clone.Confidence)
	assert.Nil(t, clone.FirstSeen)
	assert.Nil(t, clone.LastSeen)
	assert.Nil(t, clone.Labels)
}

func TestIndicator_Storable(t *testing.T) {
	var missing *Indicator
	assert.False(t, missing.Storable())
	assert.False(t, (&Indicator{Value: "x"}).Storable())
	assert.False(t, (&Indicator{Type: TypeIPv4}).Storable())
	assert.True(t, (&Indicator{Type: TypeIPv4, Value: "10.0.0.1"}).Storable())
	assert.True(t, (&Indicator{Type: TypeUnknown}).Storable())
}

func TestFeedSource_HasCredentials(t *testing.T) {
	tests := []struct {
		name   string
		source FeedSource
		want   bool
	}{
		{"username and password", FeedSource{Username: "u", Password: "p"}, true},
		{"key as username with blank password", FeedSource{Username: "api-key"}, true},
		{"no username", FeedSource{Password: "p"}, false},
		{"whitespace username", FeedSource{Username: "  "}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.source.HasCredentials())
		})
	}
}
