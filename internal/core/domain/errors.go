package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidChunk indicates a malformed chunk at ingestion.
	// The offending chunk is skipped; ingestion of others proceeds.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrDuplicateID indicates a chunk ID already present in the
	// corpus store. The offending chunk is skipped.
	ErrDuplicateID = errors.New("duplicate chunk id")

	// ErrBatchInsert indicates a vector index batch was rejected.
	// Nothing from the batch is retained.
	ErrBatchInsert = errors.New("batch insert rejected")

	// ErrDimensionMismatch indicates an embedding whose dimension
	// differs from the index dimension. This is a fatal configuration
	// error for the index instance, never silently truncated.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrEmbeddingUnavailable indicates the embedding service failed.
	// Recovered per query by degrading to lexical-only search.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrBackendCapability indicates the preferred vector backend
	// cannot run in this environment. Recovered once at startup by
	// permanent fallback to the flat backend.
	ErrBackendCapability = errors.New("vector backend unavailable")
)
