package services

import (
	"context"
	"strings"

	"github.com/deskmate-labs/deskmate-cli/internal/core/domain"
	"github.com/deskmate-labs/deskmate-cli/internal/core/ports/driven"
)

// fakeCorpus is a minimal in-memory CorpusStore for service tests.
type fakeCorpus struct {
	chunks []domain.Chunk
	addErr error
}

var _ driven.CorpusStore = (*fakeCorpus)(nil)

func (f *fakeCorpus) AddChunks(_ context.Context, chunks []domain.Chunk) error {
	if f.addErr != nil {
		return f.addErr
	}
	f.chunks = append(f.chunks, chunks...)
	return nil
}

func (f *fakeCorpus) GetChunk(_ context.Context, id string) (*domain.Chunk, error) {
	for i := range f.chunks {
		if f.chunks[i].ID == id {
			chunk := f.chunks[i]
			return &chunk, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeCorpus) GetByFilename(_ context.Context, filename string) ([]domain.Chunk, error) {
	var out []domain.Chunk
	for i := range f.chunks {
		if f.chunks[i].Filename == filename {
			out = append(out, f.chunks[i])
		}
	}
	return out, nil
}

func (f *fakeCorpus) AllChunks(_ context.Context) ([]domain.Chunk, error) {
	return f.chunks, nil
}

func (f *fakeCorpus) Stats(_ context.Context) (domain.CorpusStats, error) {
	perFile := make(map[string]domain.FileStats)
	for i := range f.chunks {
		fs := perFile[f.chunks[i].Filename]
		fs.Chunks++
		fs.Pages = f.chunks[i].TotalPages
		perFile[f.chunks[i].Filename] = fs
	}
	return domain.CorpusStats{FileCount: len(perFile), ChunkCount: len(f.chunks), PerFile: perFile}, nil
}

// fakeIndex is a scripted VectorIndex.
type fakeIndex struct {
	hits      []driven.VectorHit
	searchErr error
	empty     bool
	emptyErr  error
	added     [][]domain.IndexEntry
	addErr    error
}

var _ driven.VectorIndex = (*fakeIndex)(nil)

func (f *fakeIndex) Add(_ context.Context, entries []domain.IndexEntry) error {
	if f.addErr != nil {
		return f.addErr
	}
	f.added = append(f.added, entries)
	f.empty = false
	return nil
}

func (f *fakeIndex) Search(_ context.Context, _ []float32, k int) ([]driven.VectorHit, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if len(f.hits) > k {
		return f.hits[:k], nil
	}
	return f.hits, nil
}

func (f *fakeIndex) IsEmpty(_ context.Context) (bool, error) {
	return f.empty, f.emptyErr
}

func (f *fakeIndex) Stats(_ context.Context) (domain.IndexStats, error) {
	return domain.IndexStats{Backend: "fake"}, nil
}

func (f *fakeIndex) Reset(_ context.Context) error { return nil }
func (f *fakeIndex) Close() error                  { return nil }

// fakeEmbedder returns a fixed vector for every text.
type fakeEmbedder struct {
	vector   []float32
	embedErr error
	calls    int
}

var _ driven.EmbeddingService = (*fakeEmbedder)(nil)

func (f *fakeEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	f.calls++
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	return f.vector, nil
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vector
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int              { return len(f.vector) }
func (f *fakeEmbedder) ModelName() string            { return "fake-model" }
func (f *fakeEmbedder) Ping(_ context.Context) error { return nil }
func (f *fakeEmbedder) Close() error                 { return nil }

// fakeChunker yields one chunk per page.
type fakeChunker struct{}

var _ driven.Chunker = (*fakeChunker)(nil)

func (fakeChunker) Split(page domain.PageText) []domain.Chunk {
	id := strings.TrimSuffix(page.Filename, ".txt")
	return []domain.Chunk{{
		ID:         id + "_p" + string(rune('0'+page.Page)),
		Filename:   page.Filename,
		Page:       page.Page,
		TotalPages: page.TotalPages,
		ChunkIndex: 0,
		Text:       page.Text,
	}}
}

// fakeTicketStore records saved tickets and list limits.
type fakeTicketStore struct {
	saved     []domain.Ticket
	lastLimit int
}

var _ driven.TicketStore = (*fakeTicketStore)(nil)

func (f *fakeTicketStore) Save(_ context.Context, ticket *domain.Ticket) error {
	f.saved = append(f.saved, *ticket)
	return nil
}

func (f *fakeTicketStore) Get(_ context.Context, id string) (*domain.Ticket, error) {
	for i := range f.saved {
		if f.saved[i].ID == id {
			t := f.saved[i]
			return &t, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeTicketStore) ListRecent(_ context.Context, limit int) ([]domain.Ticket, error) {
	f.lastLimit = limit
	return f.saved, nil
}
