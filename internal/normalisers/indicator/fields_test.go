package indicator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/iocsync/internal/core/domain"
)

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2024, 1, 20, 12, 30, 0, 0, time.UTC)

	tests := []struct {
		name  string
		input string
	}{
		{"rfc3339", "2024-01-20T12:30:00Z"},
		{"rfc3339 with offset", "2024-01-20T14:30:00+02:00"},
		{"rfc3339 fractional", "2024-01-20T12:30:00.000Z"},
		{"naive iso", "2024-01-20T12:30:00"},
		{"naive iso fractional", "2024-01-20T12:30:00.000000"},
		{"threatfox", "2024-01-20 12:30:00 UTC"},
		{"space separated", "2024-01-20 12:30:00"},
		{"padded", "  2024-01-20T12:30:00Z "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseTimestamp(tt.input)
			require.NotNil(t, got)
			assert.True(t, got.Equal(want), "got %s", got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestParseTimestamp_DateOnly(t *testing.T) {
	got := ParseTimestamp("2024-01-20")
	require.NotNil(t, got)
	assert.True(t, got.Equal(time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)))
}

func TestParseTimestamp_Absent(t *testing.T) {
	for _, input := range []string{"", "   ", "yesterday", "2024-13-45"} {
		assert.Nil(t, ParseTimestamp(input), "input %q", input)
	}
}

func TestParseConfidence(t *testing.T) {
	tests := []struct {
		input string
		want  *int
	}{
		{"75", intPtr(75)},
		{" 0 ", intPtr(0)},
		{"100", intPtr(100)},
		{"75.0", intPtr(75)},
		{"", nil},
		{"high", nil},
		{"75.5", nil},
		{"101", nil},
		{"-1", nil},
		{"NaN", nil},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseConfidence(tt.input))
		})
	}
}

func TestCleanLabels(t *testing.T) {
	got := CleanLabels([]string{"Cobalt Strike", "\"APT29\"", "", "  ", "cobalt strike", "domain", "C2"}, domain.TypeDomain)

	assert.Equal(t, []string{"cobalt strike", "apt29", "c2"}, got)
}

func TestCleanLabels_Empty(t *testing.T) {
	assert.Nil(t, CleanLabels(nil, domain.TypeIPv4))
	assert.Nil(t, CleanLabels([]string{"", "ip"}, domain.TypeIPv4))
}

func intPtr(v int) *int { return &v }
