// Package memory provides in-memory implementations of the storage
// ports. The corpus store here is the authoritative chunk store for a
// process lifetime; a persisted mirror is not required by the core.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/deskmate-labs/deskmate-cli/internal/core/domain"
	"github.com/deskmate-labs/deskmate-cli/internal/core/ports/driven"
)

// Ensure CorpusStore implements the interface.
var _ driven.CorpusStore = (*CorpusStore)(nil)

// CorpusStore is an in-memory implementation of driven.CorpusStore.
// Chunks are kept in insertion order for deterministic iteration.
type CorpusStore struct {
	mu     sync.RWMutex
	chunks []domain.Chunk
	byID   map[string]int
}

// NewCorpusStore creates a new in-memory corpus store.
func NewCorpusStore() *CorpusStore {
	return &CorpusStore{byID: make(map[string]int)}
}

// AddChunks appends chunks to the corpus. The batch is rejected whole
// if any chunk is malformed or duplicates an existing ID.
func (s *CorpusStore) AddChunks(_ context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(chunks))
	for i := range chunks {
		if err := chunks[i].Validate(); err != nil {
			return err
		}
		if _, exists := s.byID[chunks[i].ID]; exists || seen[chunks[i].ID] {
			return domain.ErrDuplicateID
		}
		seen[chunks[i].ID] = true
	}

	for i := range chunks {
		s.byID[chunks[i].ID] = len(s.chunks)
		s.chunks = append(s.chunks, chunks[i])
	}
	return nil
}

// GetChunk retrieves a chunk by ID.
func (s *CorpusStore) GetChunk(_ context.Context, id string) (*domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	chunk := s.chunks[idx]
	return &chunk, nil
}

// GetByFilename returns all chunks of a file ordered by page, then
// chunk index.
func (s *CorpusStore) GetByFilename(_ context.Context, filename string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Chunk
	for i := range s.chunks {
		if s.chunks[i].Filename == filename {
			result = append(result, s.chunks[i])
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Page != result[j].Page {
			return result[i].Page < result[j].Page
		}
		return result[i].ChunkIndex < result[j].ChunkIndex
	})
	return result, nil
}

// AllChunks returns every chunk in insertion order.
func (s *CorpusStore) AllChunks(_ context.Context) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Chunk, len(s.chunks))
	copy(out, s.chunks)
	return out, nil
}

// Stats summarises the corpus contents.
func (s *CorpusStore) Stats(_ context.Context) (domain.CorpusStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	perFile := make(map[string]domain.FileStats)
	for i := range s.chunks {
		c := &s.chunks[i]
		fs := perFile[c.Filename]
		fs.Chunks++
		fs.Pages = c.TotalPages
		perFile[c.Filename] = fs
	}

	return domain.CorpusStats{
		FileCount:  len(perFile),
		ChunkCount: len(s.chunks),
		PerFile:    perFile,
	}, nil
}
