package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/deskmate-labs/deskmate-cli/internal/core/domain"
	"github.com/deskmate-labs/deskmate-cli/internal/core/ports/driven"
	"github.com/deskmate-labs/deskmate-cli/internal/core/ports/driving"
	"github.com/deskmate-labs/deskmate-cli/internal/logger"
)

// Ensure TicketDesk implements the interface.
var _ driving.TicketService = (*TicketDesk)(nil)

// TicketDesk files support tickets into local storage. It is the
// demo-mode stand-in for an external issue tracker, which is out of
// scope for the retrieval core.
type TicketDesk struct {
	store driven.TicketStore
	now   func() time.Time
}

// NewTicketDesk creates a ticket service over the given store.
func NewTicketDesk(store driven.TicketStore) *TicketDesk {
	return &TicketDesk{store: store, now: time.Now}
}

// Create validates and files a ticket, assigning its ID, status,
// priority and timestamp.
func (t *TicketDesk) Create(ctx context.Context, ticket domain.Ticket) (*domain.Ticket, error) {
	if err := ticket.Validate(); err != nil {
		return nil, err
	}

	ticket.ID = newTicketID(t.now())
	ticket.Status = domain.TicketStatusOpen
	ticket.Priority = domain.TicketPriorityNormal
	ticket.CreatedAt = t.now().UTC()

	if err := t.store.Save(ctx, &ticket); err != nil {
		return nil, fmt.Errorf("save ticket: %w", err)
	}

	logger.Info("Filed ticket %s: %s", ticket.ID, ticket.Title)
	return &ticket, nil
}

// Get retrieves a ticket by ID.
func (t *TicketDesk) Get(ctx context.Context, id string) (*domain.Ticket, error) {
	return t.store.Get(ctx, id)
}

// ListRecent returns up to limit tickets, newest first.
func (t *TicketDesk) ListRecent(ctx context.Context, limit int) ([]domain.Ticket, error) {
	if limit <= 0 {
		limit = 10
	}
	return t.store.ListRecent(ctx, limit)
}

// newTicketID builds a human-scannable ticket identifier: the filing
// date plus a short random suffix to avoid same-second collisions.
func newTicketID(now time.Time) string {
	return fmt.Sprintf("TICKET-%s-%s", now.Format("20060102"), uuid.New().String()[:8])
}
