package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown adapter or source type.
	ErrUnsupportedType = errors.New("unsupported type")

	// Feed Errors.

	// ErrMissingCredential indicates a feed cannot run because its API key
	// or other credential is not configured. Fatal to that source only.
	ErrMissingCredential = errors.New("missing credential")

	// ErrMalformedRecord indicates a single upstream record, object or file
	// could not be interpreted. It is skipped, never fatal to the batch.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrInvalidCursor indicates a stored checkpoint cursor could not be decoded.
	ErrInvalidCursor = errors.New("invalid cursor")
)
