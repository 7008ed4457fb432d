package driving

import (
	"context"

	"github.com/deskmate-labs/deskmate-cli/internal/core/domain"
)

// IngestReport summarises one ingestion run.
type IngestReport struct {
	// ChunksStored is the number of chunks added to the corpus store.
	ChunksStored int

	// ChunksSkipped is the number of malformed or duplicate chunks
	// that were reported and skipped.
	ChunksSkipped int

	// ChunksIndexed is the number of entries added to the vector
	// index. Zero when embedding was unavailable; those chunks remain
	// retrievable lexically.
	ChunksIndexed int

	// Files is the number of distinct files seen.
	Files int
}

// Ingestor accepts extracted document pages and populates the corpus
// store and vector index.
type Ingestor interface {
	// IngestPages chunks, validates, stores and indexes the given
	// pages. Malformed and duplicate chunks are skipped with a
	// warning; the rest proceed.
	IngestPages(ctx context.Context, pages []domain.PageText) (IngestReport, error)
}

// TicketService files and lists local support tickets.
type TicketService interface {
	// Create validates and files a ticket, returning it with its
	// assigned ID and timestamps.
	Create(ctx context.Context, ticket domain.Ticket) (*domain.Ticket, error)

	// Get retrieves a ticket by ID.
	Get(ctx context.Context, id string) (*domain.Ticket, error)

	// ListRecent returns up to limit tickets, newest first.
	ListRecent(ctx context.Context, limit int) ([]domain.Ticket, error)
}
