// Package pattern extracts observables from STIX 2.x indicator patterns.
//
// A pattern such as
//
//	[ipv4-addr:value = '198.51.100.1' AND file:hashes.'SHA-256' = 'aec0...']
//
// yields one Observable per equality comparison: ("ipv4-addr",
// "198.51.100.1") and ("hash:sha256", "aec0..."). File hash comparisons are
// classified from the property path because the algorithm lives there,
// not in the object type. A well-formed pattern with no equality
// comparison yields the single placeholder ("unknown", "").
//
// The package also turns raw STIX objects into domain.RawRecord values,
// skipping non-indicator objects and recording a skip for each indicator
// object that cannot be interpreted.
package pattern
