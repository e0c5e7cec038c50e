package cli

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/iocsync/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/iocsync/internal/core/domain"
)

func seedIndicators(t *testing.T, store *memory.IndicatorStore) {
	t.Helper()
	ctx := context.Background()
	seen := time.Date(2024, 3, 9, 8, 0, 0, 0, time.UTC)
	conf := 80
	for _, ind := range []domain.Indicator{
		{Type: domain.TypeIPv4, Value: "192.0.2.10", Sources: []string{"otx"}, Labels: []string{"c2"}, Confidence: &conf, LastSeen: &seen},
		{Type: domain.TypeIPv4, Value: "192.0.2.11", Sources: []string{"threatfox"}},
		{Type: domain.TypeDomain, Value: "bad.example", Sources: []string{"otx", "stix"}},
	} {
		require.NoError(t, store.Create(ctx, &ind))
	}
}

func TestIndicatorsList_All(t *testing.T) {
	store, _ := setupCLITest(t, nil, domain.FeedSettings{})
	seedIndicators(t, store)

	out, err := execute("indicators", "list")

	require.NoError(t, err)
	assert.Contains(t, out, "TYPE")
	assert.Contains(t, out, "192.0.2.10")
	assert.Contains(t, out, "2024-03-09T08:00:00Z")
	assert.Contains(t, out, "otx,stix")
	assert.Contains(t, out, "bad.example")
}

func TestIndicatorsList_FilterByType(t *testing.T) {
	store, _ := setupCLITest(t, nil, domain.FeedSettings{})
	seedIndicators(t, store)

	out, err := execute("indicators", "list", "--type", "IP")

	require.NoError(t, err)
	assert.Contains(t, out, "192.0.2.11")
	assert.NotContains(t, out, "bad.example")
}

func TestIndicatorsList_FilterBySourceAndLimit(t *testing.T) {
	store, _ := setupCLITest(t, nil, domain.FeedSettings{})
	seedIndicators(t, store)

	out, err := execute("indicators", "list", "--source", "otx", "--limit", "1")

	require.NoError(t, err)
	assert.Contains(t, out, "192.0.2.10")
	assert.NotContains(t, out, "bad.example")
	assert.NotContains(t, out, "192.0.2.11")
}

func TestIndicatorsList_Empty(t *testing.T) {
	setupCLITest(t, nil, domain.FeedSettings{})

	out, err := execute("indicators", "list")

	require.NoError(t, err)
	assert.Contains(t, out, "No indicators found.")
}

func TestIndicatorsCount(t *testing.T) {
	store, _ := setupCLITest(t, nil, domain.FeedSettings{})
	seedIndicators(t, store)

	out, err := execute("indicators", "count")

	require.NoError(t, err)
	assert.Regexp(t, `domain\s+1`, out)
	assert.Regexp(t, `ip\s+2`, out)
	assert.Regexp(t, `total\s+3`, out)
}

func TestIndicatorsCmd_Alias(t *testing.T) {
	assert.Contains(t, indicatorsCmd.Aliases, "ioc")
}
