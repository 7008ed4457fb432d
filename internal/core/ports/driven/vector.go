package driven

import (
	"context"

	"github.com/deskmate-labs/deskmate-cli/internal/core/domain"
)

// VectorIndex provides similarity search over embeddings.
// Two interchangeable backends satisfy this contract: a persistent
// incremental collection and a flat in-memory index with a disk
// snapshot. The backend is selected once at startup and never
// re-selected mid-session.
//
// Distances are non-negative, smaller means more similar, and both
// backends use the same scale (1 - cosine similarity over
// L2-normalized vectors) so confidence thresholds apply uniformly.
type VectorIndex interface {
	// Add inserts a batch of entries. All embeddings must match the
	// index dimension (domain.ErrDimensionMismatch otherwise). The
	// batch is all-or-nothing: on any failure the index retains
	// nothing from it and reports domain.ErrBatchInsert.
	Add(ctx context.Context, entries []domain.IndexEntry) error

	// Search returns up to k hits ranked by non-decreasing distance.
	// An empty index yields an empty result, not an error.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// IsEmpty reports whether the index holds no entries.
	IsEmpty(ctx context.Context) (bool, error)

	// Stats summarises the index contents and names the backend.
	Stats(ctx context.Context) (domain.IndexStats, error)

	// Reset drops all entries and any on-disk artifacts.
	Reset(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Distance is 1 - cosine similarity; smaller is more similar.
	Distance float64

	// Metadata is the citation metadata stored with the entry.
	Metadata domain.EntryMetadata
}
