package driven

import (
	"context"

	"github.com/deskmate-labs/deskmate-cli/internal/core/domain"
)

// CorpusStore holds the authoritative set of ingested chunks.
// It is the single source of truth the search engines query but never
// mutate. Chunks are immutable once stored.
type CorpusStore interface {
	// AddChunks appends chunks to the corpus. The batch is rejected as
	// a whole with domain.ErrInvalidChunk or domain.ErrDuplicateID if
	// any chunk is malformed or its ID is already present; callers
	// wanting skip-and-continue semantics validate per chunk first.
	AddChunks(ctx context.Context, chunks []domain.Chunk) error

	// GetChunk retrieves a chunk by ID.
	// Returns domain.ErrNotFound if absent.
	GetChunk(ctx context.Context, id string) (*domain.Chunk, error)

	// GetByFilename returns all chunks of a file ordered by page,
	// then chunk index.
	GetByFilename(ctx context.Context, filename string) ([]domain.Chunk, error)

	// AllChunks returns every chunk in deterministic insertion order.
	// Used by the lexical engine's full-corpus scan.
	AllChunks(ctx context.Context) ([]domain.Chunk, error)

	// Stats summarises the corpus contents.
	Stats(ctx context.Context) (domain.CorpusStats, error)
}
