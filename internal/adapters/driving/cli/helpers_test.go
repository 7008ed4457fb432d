package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/deskmate-labs/deskmate-cli/internal/core/domain"
	"github.com/deskmate-labs/deskmate-cli/internal/core/ports/driven"
	"github.com/deskmate-labs/deskmate-cli/internal/core/ports/driving"
)

// setupTestServices swaps the wired services for fakes and returns a
// cleanup that restores the previous state.
func setupTestServices() func() {
	oldInitialized := initialized
	oldConfig := configStore
	oldCorpus := corpus
	oldIndex := vectorIndex
	oldRetriever := retriever
	oldIngestor := ingestor
	oldDesk := ticketDesk

	initialized = true
	configStore = &stubConfigStore{values: map[string]any{}}
	corpus = &stubCorpus{}
	vectorIndex = &stubIndex{}
	retriever = &stubRetriever{}
	ingestor = &stubIngestor{}
	ticketDesk = &stubTicketDesk{}

	return func() {
		initialized = oldInitialized
		configStore = oldConfig
		corpus = oldCorpus
		vectorIndex = oldIndex
		retriever = oldRetriever
		ingestor = oldIngestor
		ticketDesk = oldDesk
	}
}

type stubRetriever struct {
	result domain.RetrievalResult
	err    error
}

func (s *stubRetriever) Retrieve(_ context.Context, _ string, _ int) (domain.RetrievalResult, error) {
	return s.result, s.err
}

type stubIngestor struct {
	report driving.IngestReport
	err    error
	pages  []domain.PageText
}

func (s *stubIngestor) IngestPages(_ context.Context, pages []domain.PageText) (driving.IngestReport, error) {
	s.pages = append(s.pages, pages...)
	return s.report, s.err
}

type stubTicketDesk struct {
	tickets []domain.Ticket
	err     error
}

func (s *stubTicketDesk) Create(_ context.Context, ticket domain.Ticket) (*domain.Ticket, error) {
	if s.err != nil {
		return nil, s.err
	}
	if err := ticket.Validate(); err != nil {
		return nil, err
	}
	ticket.ID = fmt.Sprintf("TICKET-20260831-%08d", len(s.tickets))
	ticket.Status = domain.TicketStatusOpen
	ticket.Priority = domain.TicketPriorityNormal
	ticket.CreatedAt = time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	s.tickets = append(s.tickets, ticket)
	return &ticket, nil
}

func (s *stubTicketDesk) Get(_ context.Context, id string) (*domain.Ticket, error) {
	for _, t := range s.tickets {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *stubTicketDesk) ListRecent(_ context.Context, limit int) ([]domain.Ticket, error) {
	if limit <= 0 || limit > len(s.tickets) {
		limit = len(s.tickets)
	}
	out := make([]domain.Ticket, limit)
	copy(out, s.tickets)
	return out, nil
}

type stubCorpus struct {
	stats domain.CorpusStats
	err   error
}

func (s *stubCorpus) AddChunks(context.Context, []domain.Chunk) error { return nil }
func (s *stubCorpus) GetChunk(context.Context, string) (*domain.Chunk, error) {
	return nil, domain.ErrNotFound
}
func (s *stubCorpus) GetByFilename(context.Context, string) ([]domain.Chunk, error) {
	return nil, nil
}
func (s *stubCorpus) AllChunks(context.Context) ([]domain.Chunk, error) { return nil, nil }
func (s *stubCorpus) Stats(context.Context) (domain.CorpusStats, error) {
	return s.stats, s.err
}

type stubIndex struct {
	stats    domain.IndexStats
	resetErr error
	resets   int
}

func (s *stubIndex) Add(context.Context, []domain.IndexEntry) error { return nil }
func (s *stubIndex) Search(context.Context, []float32, int) ([]driven.VectorHit, error) {
	return nil, nil
}
func (s *stubIndex) IsEmpty(context.Context) (bool, error) { return true, nil }
func (s *stubIndex) Stats(context.Context) (domain.IndexStats, error) {
	return s.stats, nil
}
func (s *stubIndex) Reset(context.Context) error {
	s.resets++
	return s.resetErr
}
func (s *stubIndex) Close() error { return nil }

type stubConfigStore struct {
	values map[string]any
}

func (s *stubConfigStore) Get(key string) (any, bool) {
	v, ok := s.values[key]
	return v, ok
}

func (s *stubConfigStore) GetString(key string) string {
	if v, ok := s.values[key].(string); ok {
		return v
	}
	return ""
}

func (s *stubConfigStore) GetInt(key string) int {
	switch v := s.values[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	}
	return 0
}

func (s *stubConfigStore) GetFloat(key string) float64 {
	if v, ok := s.values[key].(float64); ok {
		return v
	}
	return 0
}

func (s *stubConfigStore) GetBool(key string) bool {
	if v, ok := s.values[key].(bool); ok {
		return v
	}
	return false
}

func (s *stubConfigStore) Set(key string, value any) error {
	s.values[key] = value
	return nil
}

func (s *stubConfigStore) Save() error { return nil }
func (s *stubConfigStore) Load() error { return nil }
