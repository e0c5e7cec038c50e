// Package indicator normalises raw feed records into canonical indicators.
//
// Normalisation is a pure function of the raw record, the feed's type map
// and the configured set of case-sensitive types:
//
//   - Type: trimmed, lowercased, resolved through the type map; unmapped
//     types pass through unchanged.
//   - Value: trimmed; lowercased unless the resolved type is case-sensitive.
//   - Confidence: integer 0-100, absent on any conversion failure.
//   - Labels: trimmed, lowercased, quotes stripped, deduplicated in
//     first-seen order, never empty and never equal to the type.
//   - Timestamps: parsed from the layouts feeds actually emit; unparseable
//     text is treated as absent rather than replaced.
package indicator
