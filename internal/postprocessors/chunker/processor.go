// Package chunker provides a fixed-size text chunking processor.
package chunker

import (
	"fmt"
	"strings"

	"github.com/deskmate-labs/deskmate-cli/internal/core/domain"
	"github.com/deskmate-labs/deskmate-cli/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.Chunker = (*Processor)(nil)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// Processor splits page text into fixed-size chunks with overlap.
// Chunk IDs are derived from filename, page and position, so the same
// input always produces the same IDs and re-ingestion is detectable.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Split returns the chunks for one page, in chunk-index order.
// Blank pages produce no chunks.
func (p *Processor) Split(page domain.PageText) []domain.Chunk {
	text := strings.TrimSpace(page.Text)
	if text == "" {
		return nil
	}

	textLen := len(text)
	estimatedChunks := (textLen / (p.chunkSize - p.overlap)) + 1
	chunks := make([]domain.Chunk, 0, estimatedChunks)

	index := 0
	start := 0

	for start < textLen {
		end := start + p.chunkSize
		if end > textLen {
			end = textLen
		}

		chunks = append(chunks, domain.Chunk{
			ID:         ChunkID(page.Filename, page.Page, index),
			Filename:   page.Filename,
			Page:       page.Page,
			TotalPages: page.TotalPages,
			ChunkIndex: index,
			Text:       text[start:end],
		})
		index++

		if end == textLen {
			break
		}
		start += p.chunkSize - p.overlap
	}

	return chunks
}

// ChunkID builds the stable identifier for a chunk position.
func ChunkID(filename string, page, index int) string {
	return fmt.Sprintf("%s_page_%d_chunk_%d", filename, page, index)
}
