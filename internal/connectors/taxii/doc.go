// Package taxii implements the TAXII 2.1 feed adapter.
//
// The adapter discovers API roots (unless it was given an API root
// directly), lists every collection of each root and pages through the
// collection objects with the server's more/next protocol. Each page is
// a STIX envelope whose indicator patterns are extracted into raw records.
//
// As an incremental adapter it yields one page at a time together with a
// cursor that resumes after that page. The cursor prefers the server's
// next token and X-TAXII-Date-Added-Last header; the local clock is used
// only when the server provides neither.
package taxii
