package driven

import (
	"context"

	"github.com/deskmate-labs/deskmate-cli/internal/core/domain"
)

// TicketStore persists locally filed support tickets.
type TicketStore interface {
	// Save stores a ticket.
	Save(ctx context.Context, ticket *domain.Ticket) error

	// Get retrieves a ticket by ID.
	// Returns domain.ErrNotFound if absent.
	Get(ctx context.Context, id string) (*domain.Ticket, error)

	// ListRecent returns up to limit tickets, newest first.
	ListRecent(ctx context.Context, limit int) ([]domain.Ticket, error)
}
