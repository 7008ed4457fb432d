package collection

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskmate-labs/deskmate-cli/internal/core/domain"
)

func testEntries() []domain.IndexEntry {
	return []domain.IndexEntry{
		{
			ChunkID:   "guide_page_1_chunk_0",
			Embedding: []float32{1, 0, 0},
			Metadata:  domain.EntryMetadata{Filename: "guide.txt", Page: 1, ChunkIndex: 0},
		},
		{
			ChunkID:   "guide_page_2_chunk_0",
			Embedding: []float32{0, 1, 0},
			Metadata:  domain.EntryMetadata{Filename: "guide.txt", Page: 2, ChunkIndex: 0},
		},
		{
			ChunkID:   "faq_page_1_chunk_0",
			Embedding: []float32{0.9, 0.1, 0},
			Metadata:  domain.EntryMetadata{Filename: "faq.txt", Page: 1, ChunkIndex: 0},
		},
	}
}

func TestIndexAddAndSearch(t *testing.T) {
	idx, err := New(t.TempDir(), 3)
	require.NoError(t, err)
	defer idx.Close()

	ctx := context.Background()
	require.NoError(t, idx.Add(ctx, testEntries()))

	hits, err := idx.Search(ctx, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.Equal(t, "guide_page_1_chunk_0", hits[0].ChunkID)
	assert.InDelta(t, 0.0, hits[0].Distance, 1e-6)
	assert.Equal(t, "faq_page_1_chunk_0", hits[1].ChunkID)
	assert.Equal(t, 1, hits[0].Metadata.Page)
}

func TestIndexDistanceNeverNegative(t *testing.T) {
	idx, err := New(t.TempDir(), 3)
	require.NoError(t, err)
	defer idx.Close()

	ctx := context.Background()
	// Non-unit vector: normalization goes through float32 rounding.
	require.NoError(t, idx.Add(ctx, []domain.IndexEntry{{
		ChunkID:   "c1",
		Embedding: []float32{0.1, 0.2, 0.3},
		Metadata:  domain.EntryMetadata{Filename: "f.txt", Page: 1},
	}}))

	hits, err := idx.Search(ctx, []float32{0.1, 0.2, 0.3}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.GreaterOrEqual(t, hits[0].Distance, 0.0)
	assert.InDelta(t, 0.0, hits[0].Distance, 1e-6)
}

func TestIndexPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	idx, err := New(dir, 3)
	require.NoError(t, err)
	require.NoError(t, idx.Add(ctx, testEntries()))
	require.NoError(t, idx.Close())

	reopened, err := New(dir, 3)
	require.NoError(t, err)
	defer reopened.Close()

	stats, err := reopened.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalChunks)
	assert.Equal(t, 2, stats.TotalFiles)
	assert.Equal(t, []string{"faq.txt", "guide.txt"}, stats.Files)
}

func TestIndexAddIsAllOrNothing(t *testing.T) {
	idx, err := New(t.TempDir(), 3)
	require.NoError(t, err)
	defer idx.Close()

	ctx := context.Background()
	require.NoError(t, idx.Add(ctx, testEntries()[:1]))

	// Second entry collides with the stored one; the batch must leave
	// no trace of its first entry either.
	batch := []domain.IndexEntry{
		{ChunkID: "fresh_chunk", Embedding: []float32{0, 0, 1}},
		{ChunkID: "guide_page_1_chunk_0", Embedding: []float32{0, 1, 0}},
	}
	err = idx.Add(ctx, batch)
	assert.ErrorIs(t, err, domain.ErrBatchInsert)

	stats, err := idx.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalChunks)
}

func TestIndexDimensionMismatch(t *testing.T) {
	idx, err := New(t.TempDir(), 3)
	require.NoError(t, err)
	defer idx.Close()

	ctx := context.Background()

	err = idx.Add(ctx, []domain.IndexEntry{{ChunkID: "c1", Embedding: []float32{1, 0}}})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)

	_, err = idx.Search(ctx, []float32{1, 0}, 5)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestIndexReopenWithDifferentDimension(t *testing.T) {
	dir := t.TempDir()

	idx, err := New(dir, 3)
	require.NoError(t, err)
	require.NoError(t, idx.Close())

	_, err = New(dir, 4)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestIndexReset(t *testing.T) {
	idx, err := New(t.TempDir(), 3)
	require.NoError(t, err)
	defer idx.Close()

	ctx := context.Background()
	require.NoError(t, idx.Add(ctx, testEntries()))
	require.NoError(t, idx.Reset(ctx))

	empty, err := idx.IsEmpty(ctx)
	require.NoError(t, err)
	assert.True(t, empty)

	// The collection stays usable after a reset.
	require.NoError(t, idx.Add(ctx, testEntries()[:1]))
	empty, err = idx.IsEmpty(ctx)
	require.NoError(t, err)
	assert.False(t, empty)
}

func TestIndexSearchEmpty(t *testing.T) {
	idx, err := New(t.TempDir(), 3)
	require.NoError(t, err)
	defer idx.Close()

	hits, err := idx.Search(context.Background(), []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}
