package driven

import "github.com/deskmate-labs/deskmate-cli/internal/core/domain"

// Chunker splits an extracted page into retrievable chunks with
// stable, deterministic IDs.
type Chunker interface {
	// Split returns the chunks for one page, in chunk-index order.
	Split(page domain.PageText) []domain.Chunk
}
