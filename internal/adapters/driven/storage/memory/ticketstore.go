package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/deskmate-labs/deskmate-cli/internal/core/domain"
	"github.com/deskmate-labs/deskmate-cli/internal/core/ports/driven"
)

// Ensure TicketStore implements the interface.
var _ driven.TicketStore = (*TicketStore)(nil)

// TicketStore is an in-memory implementation of driven.TicketStore.
type TicketStore struct {
	mu      sync.RWMutex
	tickets map[string]domain.Ticket
}

// NewTicketStore creates a new in-memory ticket store.
func NewTicketStore() *TicketStore {
	return &TicketStore{tickets: make(map[string]domain.Ticket)}
}

// Save stores a ticket.
func (s *TicketStore) Save(_ context.Context, ticket *domain.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickets[ticket.ID] = *ticket
	return nil
}

// Get retrieves a ticket by ID.
func (s *TicketStore) Get(_ context.Context, id string) (*domain.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ticket, ok := s.tickets[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &ticket, nil
}

// ListRecent returns up to limit tickets, newest first.
func (s *TicketStore) ListRecent(_ context.Context, limit int) ([]domain.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Ticket, 0, len(s.tickets))
	for _, t := range s.tickets {
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
