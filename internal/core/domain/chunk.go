package domain

import (
	"fmt"
	"strings"
)

// Chunk is the smallest retrievable unit of ingested text.
// Chunks are immutable once created: re-ingestion produces new
// chunks with new IDs rather than mutating existing text.
type Chunk struct {
	// ID is the unique, stable identifier for the chunk.
	ID string

	// Filename is the source document the chunk came from.
	Filename string

	// Page is the 1-based page number within the source document.
	Page int

	// TotalPages is the page count of the source document.
	TotalPages int

	// ChunkIndex is the 0-based order of the chunk within its page.
	ChunkIndex int

	// Text is the chunk content. Never empty for a valid chunk.
	Text string
}

// Validate reports whether the chunk is well formed.
// Malformed chunks are rejected at ingestion with ErrInvalidChunk.
func (c Chunk) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidChunk)
	}
	if strings.TrimSpace(c.Text) == "" {
		return fmt.Errorf("%w: chunk %s has empty text", ErrInvalidChunk, c.ID)
	}
	if c.Page < 1 {
		return fmt.Errorf("%w: chunk %s has page %d (must be >= 1)", ErrInvalidChunk, c.ID, c.Page)
	}
	if c.TotalPages < 1 {
		return fmt.Errorf("%w: chunk %s has total pages %d (must be >= 1)", ErrInvalidChunk, c.ID, c.TotalPages)
	}
	if c.ChunkIndex < 0 {
		return fmt.Errorf("%w: chunk %s has negative chunk index", ErrInvalidChunk, c.ID)
	}
	return nil
}

// IndexEntry pairs a chunk's embedding with the citation metadata
// the vector index keeps alongside it. Keyed by ChunkID.
type IndexEntry struct {
	// ChunkID links back to the corpus store chunk.
	ChunkID string

	// Embedding is the vector representation of the chunk text.
	// Its length must equal the index dimension.
	Embedding []float32

	// Metadata carries the citation fields needed to present a hit
	// without a corpus store round trip.
	Metadata EntryMetadata
}

// EntryMetadata is the citation metadata stored with each index entry.
type EntryMetadata struct {
	Filename   string `json:"filename"`
	Page       int    `json:"page"`
	ChunkIndex int    `json:"chunk_index"`
}

// FileStats summarises one ingested file.
type FileStats struct {
	// Pages is the page count of the file.
	Pages int

	// Chunks is the number of chunks produced from the file.
	Chunks int
}

// CorpusStats summarises the corpus store contents.
type CorpusStats struct {
	// FileCount is the number of distinct files.
	FileCount int

	// ChunkCount is the total number of chunks.
	ChunkCount int

	// PerFile maps filename to its per-file statistics.
	PerFile map[string]FileStats
}

// IndexStats summarises a vector index backend.
type IndexStats struct {
	// TotalChunks is the number of entries in the index.
	TotalChunks int

	// TotalFiles is the number of distinct filenames in the index.
	TotalFiles int

	// Files lists the distinct filenames.
	Files []string

	// Backend identifies the active backend ("collection" or "flat").
	Backend string
}

// PageText is one page of extracted text from a source document,
// as supplied by the document-loading collaborator.
type PageText struct {
	// Filename is the source file the page came from.
	Filename string

	// Page is the 1-based page number.
	Page int

	// TotalPages is the page count of the source file.
	TotalPages int

	// Text is the page content.
	Text string
}
