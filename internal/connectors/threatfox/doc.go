// Package threatfox implements the abuse.ch ThreatFox feed adapter.
//
// ThreatFox serves recent IOCs for a lookback window of whole days. One
// request returns the full window; free accounts are capped at seven days.
package threatfox
