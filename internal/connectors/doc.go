// Package connectors holds the feed adapters and the registry that
// builds them. Each subpackage knows how to obtain raw records from one
// threat feed (otx, threatfox, stix, taxii).
//
// The pull adapters that need only static configuration are registered
// with the process-wide registry by RegisterDefaults at startup. The stix
// and taxii adapters need runtime parameters and are built by callers.
package connectors
