// Package feedhttp is the HTTP client shared by the feed connectors.
//
// Every request carries the same timeout, passes through a token-bucket
// limiter and decodes a JSON response. Non-2xx responses surface as
// *APIError. There are no automatic retries: a failed request ends that
// source's fetch for the run.
package feedhttp
