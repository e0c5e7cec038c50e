package services

import "github.com/custodia-labs/iocsync/internal/core/domain"

// Deduplicate returns at most one indicator per (type, value). The one
// with the latest LastSeen is kept; an absent LastSeen sorts earliest and
// ties keep the first encountered. Output follows the order in which each
// key was first encountered.
func Deduplicate(batch []domain.Indicator) []domain.Indicator {
	out := make([]domain.Indicator, 0, len(batch))
	index := make(map[domain.IndicatorKey]int, len(batch))

	for i := range batch {
		key := batch[i].Key()
		pos, seen := index[key]
		if !seen {
			index[key] = len(out)
			out = append(out, batch[i])
			continue
		}
		if seenLater(&batch[i], &out[pos]) {
			out[pos] = batch[i]
		}
	}
	return out
}

// seenLater reports whether a was last seen strictly after b.
func seenLater(a, b *domain.Indicator) bool {
	switch {
	case a.LastSeen == nil:
		return false
	case b.LastSeen == nil:
		return true
	default:
		return a.LastSeen.After(*b.LastSeen)
	}
}
