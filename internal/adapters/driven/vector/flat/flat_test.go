package flat

import (
	"context"
	"os"
	"path/filepath"
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
	assert.LessOrEqual(t, hits[0].Distance, hits[1].Distance)
	assert.Equal(t, "guide.txt", hits[0].Metadata.Filename)
}

func TestIndexSearchEmpty(t *testing.T) {
	idx, err := New(t.TempDir(), 3)
	require.NoError(t, err)
	defer idx.Close()

	hits, err := idx.Search(context.Background(), []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
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

	empty, err := idx.IsEmpty(ctx)
	require.NoError(t, err)
	assert.True(t, empty, "rejected batch must leave nothing behind")
}

func TestIndexSnapshotRoundTrip(t *testing.T) {
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
	assert.Equal(t, []string{"faq.txt", "guide.txt"}, stats.Files)

	hits, err := reopened.Search(ctx, []float32{0, 1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "guide_page_2_chunk_0", hits[0].ChunkID)
}

func TestIndexPartialSnapshotIgnored(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	idx, err := New(dir, 3)
	require.NoError(t, err)
	require.NoError(t, idx.Add(ctx, testEntries()))
	require.NoError(t, idx.Close())

	require.NoError(t, os.Remove(filepath.Join(dir, metadataFile)))

	reopened, err := New(dir, 3)
	require.NoError(t, err)
	defer reopened.Close()

	empty, err := reopened.IsEmpty(ctx)
	require.NoError(t, err)
	assert.True(t, empty, "incomplete snapshot must not be loaded")
}

func TestIndexSnapshotDimensionMismatch(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	idx, err := New(dir, 3)
	require.NoError(t, err)
	require.NoError(t, idx.Add(ctx, testEntries()))
	require.NoError(t, idx.Close())

	_, err = New(dir, 4)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestIndexReset(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	idx, err := New(dir, 3)
	require.NoError(t, err)
	defer idx.Close()

	require.NoError(t, idx.Add(ctx, testEntries()))
	require.NoError(t, idx.Reset(ctx))

	empty, err := idx.IsEmpty(ctx)
	require.NoError(t, err)
	assert.True(t, empty)

	for _, name := range []string{indexFile, chunksFile, metadataFile} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.True(t, os.IsNotExist(err), "%s should be removed", name)
	}
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

func TestIndexSnapshotLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	// Stale temp file from an interrupted snapshot must not survive
	// the next persist or confuse reload.
	require.NoError(t, os.WriteFile(filepath.Join(dir, indexFile+".tmp"), []byte("garbage"), 0o600))

	idx, err := New(dir, 3)
	require.NoError(t, err)
	require.NoError(t, idx.Add(ctx, testEntries()))
	require.NoError(t, idx.Close())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp")
	}

	reopened, err := New(dir, 3)
	require.NoError(t, err)
	defer reopened.Close()

	stats, err := reopened.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalChunks)
}

func TestVectorCodecRoundTrip(t *testing.T) {
	vectors := [][]float32{{0.1, -0.2, 0.3}, {1, 0, -1}}

	decoded, dim, err := decodeVectors(encodeVectors(vectors, 3))
	require.NoError(t, err)
	assert.Equal(t, 3, dim)
	assert.Equal(t, vectors, decoded)
}

func TestVectorCodecRejectsTruncatedBlob(t *testing.T) {
	blob := encodeVectors([][]float32{{1, 2, 3}}, 3)

	_, _, err := decodeVectors(blob[:len(blob)-2])
	assert.Error(t, err)
}
