// Package flat provides an in-memory vector index with a disk
// snapshot. Every query is a full-corpus scan, which is exact and
// plenty fast for support-corpus sizes. The snapshot is written after
// every successful add and reloaded transparently on construction.
package flat

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/deskmate-labs/deskmate-cli/internal/core/domain"
	"github.com/deskmate-labs/deskmate-cli/internal/core/ports/driven"
	"github.com/deskmate-labs/deskmate-cli/internal/logger"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// BackendName identifies this backend in stats output.
const BackendName = "flat"

// Snapshot artifacts. All three are required together; a subset on
// disk is treated as no usable snapshot.
const (
	indexFile    = "index.bin"
	chunksFile   = "chunks.json"
	metadataFile = "metadata.json"
)

// Index provides brute-force cosine similarity search over
// L2-normalized vectors, with distance = 1 - cosine similarity.
type Index struct {
	mu        sync.RWMutex
	dir       string
	dimension int

	// Parallel arrays: vectors[i] belongs to chunkIDs[i] / metadata[i].
	vectors  [][]float32
	chunkIDs []string
	metadata []domain.EntryMetadata
}

// New creates or reopens a flat index rooted at dir. A snapshot left
// by a previous instance is reloaded when complete; its dimension must
// match the requested one.
func New(dir string, dimension int) (*Index, error) {
	if dir == "" {
		return nil, errors.New("flat: snapshot directory cannot be empty")
	}
	if dimension <= 0 {
		return nil, errors.New("flat: dimension must be positive")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("flat: creating snapshot directory: %w", err)
	}

	idx := &Index{dir: dir, dimension: dimension}
	if err := idx.reload(); err != nil {
		return nil, err
	}
	return idx, nil
}

// Add inserts a batch of entries, all-or-nothing. The snapshot is
// rewritten before Add returns; a persistence failure rolls the batch
// back and reports domain.ErrBatchInsert.
func (idx *Index) Add(_ context.Context, entries []domain.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}

	normalized := make([][]float32, len(entries))
	for i := range entries {
		if len(entries[i].Embedding) != idx.dimension {
			return fmt.Errorf("%w: entry %s has dimension %d, index wants %d",
				domain.ErrDimensionMismatch, entries[i].ChunkID, len(entries[i].Embedding), idx.dimension)
		}
		normalized[i] = normalize(entries[i].Embedding)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	prior := len(idx.vectors)
	for i := range entries {
		idx.vectors = append(idx.vectors, normalized[i])
		idx.chunkIDs = append(idx.chunkIDs, entries[i].ChunkID)
		idx.metadata = append(idx.metadata, entries[i].Metadata)
	}

	if err := idx.persist(); err != nil {
		idx.vectors = idx.vectors[:prior]
		idx.chunkIDs = idx.chunkIDs[:prior]
		idx.metadata = idx.metadata[:prior]
		return fmt.Errorf("%w: snapshot failed: %v", domain.ErrBatchInsert, err)
	}
	return nil
}

// Search returns up to k hits ranked by non-decreasing distance.
func (idx *Index) Search(_ context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if len(query) != idx.dimension {
		return nil, fmt.Errorf("%w: query has dimension %d, index wants %d",
			domain.ErrDimensionMismatch, len(query), idx.dimension)
	}
	if k <= 0 {
		return nil, nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if len(idx.vectors) == 0 {
		return []driven.VectorHit{}, nil
	}

	q := normalize(query)
	hits := make([]driven.VectorHit, len(idx.vectors))
	for i, v := range idx.vectors {
		hits[i] = driven.VectorHit{
			ChunkID:  idx.chunkIDs[i],
			Distance: distance(v, q),
			Metadata: idx.metadata[i],
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Distance < hits[j].Distance
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// IsEmpty reports whether the index holds no entries.
func (idx *Index) IsEmpty(_ context.Context) (bool, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.vectors) == 0, nil
}

// Stats summarises the index contents.
func (idx *Index) Stats(_ context.Context) (domain.IndexStats, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	fileSet := make(map[string]bool)
	for i := range idx.metadata {
		fileSet[idx.metadata[i].Filename] = true
	}
	files := make([]string, 0, len(fileSet))
	for f := range fileSet {
		files = append(files, f)
	}
	sort.Strings(files)

	return domain.IndexStats{
		TotalChunks: len(idx.vectors),
		TotalFiles:  len(files),
		Files:       files,
		Backend:     BackendName,
	}, nil
}

// Reset drops all entries and removes the snapshot artifacts.
func (idx *Index) Reset(_ context.Context) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.vectors = nil
	idx.chunkIDs = nil
	idx.metadata = nil

	for _, name := range []string{indexFile, chunksFile, metadataFile} {
		if err := os.Remove(filepath.Join(idx.dir, name)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("flat: removing %s: %w", name, err)
		}
	}
	return nil
}

// Close releases resources.
func (idx *Index) Close() error {
	return nil
}

// persist writes the three snapshot artifacts (caller must hold lock).
// Each artifact is written to a temp file and renamed into place so a
// failure mid-snapshot never leaves a complete-looking but mismatched
// artifact set behind.
func (idx *Index) persist() error {
	if err := writeArtifact(filepath.Join(idx.dir, indexFile), encodeVectors(idx.vectors, idx.dimension)); err != nil {
		return err
	}

	chunksJSON, err := json.Marshal(idx.chunkIDs)
	if err != nil {
		return err
	}
	if err := writeArtifact(filepath.Join(idx.dir, chunksFile), chunksJSON); err != nil {
		return err
	}

	metaJSON, err := json.Marshal(idx.metadata)
	if err != nil {
		return err
	}
	return writeArtifact(filepath.Join(idx.dir, metadataFile), metaJSON)
}

// writeArtifact replaces path atomically via a temp file and rename.
func writeArtifact(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// reload restores state from a complete snapshot. A partial or absent
// snapshot leaves the index empty.
func (idx *Index) reload() error {
	indexPath := filepath.Join(idx.dir, indexFile)
	chunksPath := filepath.Join(idx.dir, chunksFile)
	metaPath := filepath.Join(idx.dir, metadataFile)

	for _, p := range []string{indexPath, chunksPath, metaPath} {
		if _, err := os.Stat(p); err != nil {
			logger.Debug("Flat index: no usable snapshot in %s", idx.dir)
			return nil //nolint:nilerr // absent snapshot means a fresh index
		}
	}

	raw, err := os.ReadFile(indexPath)
	if err != nil {
		return fmt.Errorf("flat: reading snapshot: %w", err)
	}
	vectors, dim, err := decodeVectors(raw)
	if err != nil {
		return fmt.Errorf("flat: decoding snapshot: %w", err)
	}
	if len(vectors) > 0 && dim != idx.dimension {
		return fmt.Errorf("%w: snapshot has dimension %d, index wants %d",
			domain.ErrDimensionMismatch, dim, idx.dimension)
	}

	chunksJSON, err := os.ReadFile(chunksPath)
	if err != nil {
		return fmt.Errorf("flat: reading chunk list: %w", err)
	}
	var chunkIDs []string
	if err := json.Unmarshal(chunksJSON, &chunkIDs); err != nil {
		return fmt.Errorf("flat: decoding chunk list: %w", err)
	}

	metaJSON, err := os.ReadFile(metaPath)
	if err != nil {
		return fmt.Errorf("flat: reading metadata list: %w", err)
	}
	var metadata []domain.EntryMetadata
	if err := json.Unmarshal(metaJSON, &metadata); err != nil {
		return fmt.Errorf("flat: decoding metadata list: %w", err)
	}

	if len(vectors) != len(chunkIDs) || len(vectors) != len(metadata) {
		return fmt.Errorf("flat: inconsistent snapshot: %d vectors, %d chunks, %d metadata",
			len(vectors), len(chunkIDs), len(metadata))
	}

	idx.vectors = vectors
	idx.chunkIDs = chunkIDs
	idx.metadata = metadata
	logger.Info("Flat index: reloaded snapshot with %d entries", len(vectors))
	return nil
}

// encodeVectors packs vectors as a little-endian blob:
// uint32 count, uint32 dimension, then count*dimension float32 values.
func encodeVectors(vectors [][]float32, dimension int) []byte {
	buf := make([]byte, 8+len(vectors)*dimension*4)
	binary.LittleEndian.PutUint32(buf[0:], uint32(len(vectors)))
	binary.LittleEndian.PutUint32(buf[4:], uint32(dimension))
	off := 8
	for _, v := range vectors {
		for _, f := range v {
			binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(f))
			off += 4
		}
	}
	return buf
}

// decodeVectors unpacks the blob written by encodeVectors.
func decodeVectors(data []byte) ([][]float32, int, error) {
	if len(data) < 8 {
		return nil, 0, errors.New("blob too short")
	}
	count := int(binary.LittleEndian.Uint32(data[0:]))
	dim := int(binary.LittleEndian.Uint32(data[4:]))
	if len(data) != 8+count*dim*4 {
		return nil, 0, fmt.Errorf("blob length %d does not match %d vectors of dimension %d",
			len(data), count, dim)
	}

	vectors := make([][]float32, count)
	off := 8
	for i := range vectors {
		v := make([]float32, dim)
		for j := range v {
			v[j] = math.Float32frombits(binary.LittleEndian.Uint32(data[off:]))
			off += 4
		}
		vectors[i] = v
	}
	return vectors, dim, nil
}

// normalize returns an L2-normalized copy so inner product equals
// cosine similarity. Zero vectors are returned as-is.
func normalize(v []float32) []float32 {
	var sum float64
	for _, f := range v {
		sum += float64(f) * float64(f)
	}
	norm := math.Sqrt(sum)
	out := make([]float32, len(v))
	if norm == 0 {
		copy(out, v)
		return out
	}
	for i, f := range v {
		out[i] = float32(float64(f) / norm)
	}
	return out
}

// dot computes the inner product of two equal-length vectors.
func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// distance is 1 - cosine similarity over normalized vectors, clamped
// at zero: float32 rounding can push the dot product of identical
// vectors a hair past 1, and distances must stay non-negative.
func distance(a, b []float32) float64 {
	d := 1 - dot(a, b)
	if d < 0 {
		return 0
	}
	return d
}
