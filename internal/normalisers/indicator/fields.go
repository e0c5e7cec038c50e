package indicator

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/iocsync/internal/core/domain"
)

// timestampLayouts are tried in order. Layouts without a zone are UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05 MST",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses a feed timestamp. Returns nil for empty or
// unparseable input.
func ParseTimestamp(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// ParseConfidence converts provider confidence text to an integer in
// [0, 100]. Integral floats such as "75.0" are accepted. Anything else,
// including out-of-range values, yields nil.
func ParseConfidence(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	var v int
	if n, err := strconv.Atoi(s); err == nil {
		v = n
	} else {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || f != math.Trunc(f) {
			return nil
		}
		v = int(f)
	}

	if v < 0 || v > 100 {
		return nil
	}
	return &v
}

// CleanLabels lowercases, trims and strips double quotes from labels,
// dropping empties, duplicates and labels equal to the indicator type.
// First-seen order is preserved.
func CleanLabels(raw []string, indicatorType domain.IndicatorType) []string {
	if len(raw) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))
	for _, lbl := range raw {
		lbl = strings.ToLower(strings.TrimSpace(strings.ReplaceAll(lbl, `"`, "")))
		if lbl == "" || lbl == string(indicatorType) || seen[lbl] {
			continue
		}
		seen[lbl] = true
		out = append(out, lbl)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
