// Package collection provides a persistent, incrementally updated
// vector index backed by modernc.org/sqlite. Every add is a single
// transaction, so the collection survives restarts without an explicit
// snapshot step.
package collection

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/deskmate-labs/deskmate-cli/internal/core/domain"
	"github.com/deskmate-labs/deskmate-cli/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// BackendName identifies this backend in stats output.
const BackendName = "collection"

// dbFile is the collection database inside the index directory.
const dbFile = "collection.db"

// Index stores L2-normalized embeddings in a SQLite table and scans
// them with distance = 1 - inner product. Exact like the flat backend,
// but durable per add rather than per snapshot.
type Index struct {
	db        *sql.DB
	dimension int
	path      string
}

// New creates or reopens a collection index rooted at dir. An existing
// collection must have been built with the same dimension.
func New(dir string, dimension int) (*Index, error) {
	if dir == "" {
		return nil, errors.New("collection: index directory cannot be empty")
	}
	if dimension <= 0 {
		return nil, errors.New("collection: dimension must be positive")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("collection: creating index directory: %w", err)
	}

	path := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("collection: opening database: %w", err)
	}

	idx := &Index{db: db, dimension: dimension, path: path}
	if err := idx.init(); err != nil {
		db.Close()
		return nil, err
	}
	return idx, nil
}

// init creates the schema and verifies the stored dimension.
func (idx *Index) init() error {
	_, err := idx.db.Exec(`
		CREATE TABLE IF NOT EXISTS entries (
			chunk_id TEXT PRIMARY KEY,
			embedding BLOB NOT NULL,
			filename TEXT NOT NULL,
			page INTEGER NOT NULL,
			chunk_index INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS collection_meta (
			key TEXT PRIMARY KEY,
			value INTEGER NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("collection: creating schema: %w", err)
	}

	var stored int
	err = idx.db.QueryRow("SELECT value FROM collection_meta WHERE key = 'dimension'").Scan(&stored)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := idx.db.Exec(
			"INSERT INTO collection_meta (key, value) VALUES ('dimension', ?)", idx.dimension); err != nil {
			return fmt.Errorf("collection: recording dimension: %w", err)
		}
	case err != nil:
		return fmt.Errorf("collection: reading dimension: %w", err)
	case stored != idx.dimension:
		return fmt.Errorf("%w: collection has dimension %d, index wants %d",
			domain.ErrDimensionMismatch, stored, idx.dimension)
	}
	return nil
}

// Add inserts a batch of entries in one transaction, all-or-nothing.
func (idx *Index) Add(ctx context.Context, entries []domain.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}

	for i := range entries {
		if len(entries[i].Embedding) != idx.dimension {
			return fmt.Errorf("%w: entry %s has dimension %d, index wants %d",
				domain.ErrDimensionMismatch, entries[i].ChunkID, len(entries[i].Embedding), idx.dimension)
		}
	}

	tx, err := idx.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("collection: beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO entries (chunk_id, embedding, filename, page, chunk_index)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("collection: preparing insert: %w", err)
	}
	defer stmt.Close()

	for i := range entries {
		blob := float32SliceToBytes(normalize(entries[i].Embedding))
		if _, err := stmt.ExecContext(ctx, entries[i].ChunkID, blob,
			entries[i].Metadata.Filename, entries[i].Metadata.Page, entries[i].Metadata.ChunkIndex); err != nil {
			return fmt.Errorf("%w: entry %s: %v", domain.ErrBatchInsert, entries[i].ChunkID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit failed: %v", domain.ErrBatchInsert, err)
	}
	return nil
}

// Search returns up to k hits ranked by non-decreasing distance.
func (idx *Index) Search(ctx context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if len(query) != idx.dimension {
		return nil, fmt.Errorf("%w: query has dimension %d, index wants %d",
			domain.ErrDimensionMismatch, len(query), idx.dimension)
	}
	if k <= 0 {
		return nil, nil
	}

	rows, err := idx.db.QueryContext(ctx, `
		SELECT chunk_id, embedding, filename, page, chunk_index
		FROM entries ORDER BY rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("collection: querying entries: %w", err)
	}
	defer rows.Close()

	q := normalize(query)
	hits := []driven.VectorHit{}
	for rows.Next() {
		var hit driven.VectorHit
		var blob []byte
		if err := rows.Scan(&hit.ChunkID, &blob,
			&hit.Metadata.Filename, &hit.Metadata.Page, &hit.Metadata.ChunkIndex); err != nil {
			return nil, fmt.Errorf("collection: scanning entry: %w", err)
		}
		hit.Distance = distance(bytesToFloat32Slice(blob), q)
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("collection: iterating entries: %w", err)
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
func (idx *Index) IsEmpty(ctx context.Context) (bool, error) {
	var count int
	if err := idx.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM entries").Scan(&count); err != nil {
		return false, fmt.Errorf("collection: counting entries: %w", err)
	}
	return count == 0, nil
}

// Stats summarises the index contents.
func (idx *Index) Stats(ctx context.Context) (domain.IndexStats, error) {
	stats := domain.IndexStats{Backend: BackendName}

	if err := idx.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM entries").Scan(&stats.TotalChunks); err != nil {
		return domain.IndexStats{}, fmt.Errorf("collection: counting entries: %w", err)
	}

	rows, err := idx.db.QueryContext(ctx, "SELECT DISTINCT filename FROM entries ORDER BY filename")
	if err != nil {
		return domain.IndexStats{}, fmt.Errorf("collection: querying filenames: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var filename string
		if err := rows.Scan(&filename); err != nil {
			return domain.IndexStats{}, fmt.Errorf("collection: scanning filename: %w", err)
		}
		stats.Files = append(stats.Files, filename)
	}
	if err := rows.Err(); err != nil {
		return domain.IndexStats{}, fmt.Errorf("collection: iterating filenames: %w", err)
	}

	stats.TotalFiles = len(stats.Files)
	return stats, nil
}

// Reset drops all entries but keeps the collection usable.
func (idx *Index) Reset(ctx context.Context) error {
	if _, err := idx.db.ExecContext(ctx, "DELETE FROM entries"); err != nil {
		return fmt.Errorf("collection: clearing entries: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (idx *Index) Close() error {
	return idx.db.Close()
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
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
