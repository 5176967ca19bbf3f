package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrMissingInput indicates the source document does not exist.
	// Ingestion treats this as fatal and never retries.
	ErrMissingInput = errors.New("input document not found")

	// ErrIndexUnavailable indicates the vector index has not been built
	// or cannot be opened. Queries degrade to a fixed fallback message.
	ErrIndexUnavailable = errors.New("vector index unavailable")

	// ErrIndexIncompatible indicates the persisted index was built with a
	// different embedding model or dimensionality than the one configured.
	ErrIndexIncompatible = errors.New("vector index incompatible with embedding model")

	// ErrMissingCredentials indicates the watsonx credentials are absent.
	// This is raised at startup, never deferred to first use.
	ErrMissingCredentials = errors.New("missing watsonx credentials")
)
