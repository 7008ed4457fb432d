package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/deskmate-labs/deskmate-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/deskmate-labs/deskmate-cli/internal/core/domain"
	"github.com/deskmate-labs/deskmate-cli/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to the
// corpus and ticket store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.deskmate/data/deskmate.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".deskmate", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "deskmate.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// CorpusStore returns a CorpusStore interface backed by this store.
func (s *Store) CorpusStore() driven.CorpusStore {
	return &corpusStore{store: s}
}

// TicketStore returns a TicketStore interface backed by this store.
func (s *Store) TicketStore() driven.TicketStore {
	return &ticketStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Corpus Store ====================

// corpusStore implements driven.CorpusStore.
type corpusStore struct {
	store *Store
}

var _ driven.CorpusStore = (*corpusStore)(nil)

// AddChunks appends chunks to the corpus. The batch is rejected whole
// if any chunk is malformed or duplicates an existing ID.
func (s *corpusStore) AddChunks(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(chunks))
	for i := range chunks {
		if err := chunks[i].Validate(); err != nil {
			return err
		}
		if seen[chunks[i].ID] {
			return domain.ErrDuplicateID
		}
		seen[chunks[i].ID] = true
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	existsStmt, err := tx.PrepareContext(ctx, "SELECT 1 FROM chunks WHERE id = ?")
	if err != nil {
		return fmt.Errorf("preparing lookup: %w", err)
	}
	defer existsStmt.Close()

	insertStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, filename, page, total_pages, chunk_index, content)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer insertStmt.Close()

	for i := range chunks {
		var one int
		err := existsStmt.QueryRowContext(ctx, chunks[i].ID).Scan(&one)
		if err == nil {
			return domain.ErrDuplicateID
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("checking chunk %s: %w", chunks[i].ID, err)
		}

		if _, err := insertStmt.ExecContext(ctx, chunks[i].ID, chunks[i].Filename,
			chunks[i].Page, chunks[i].TotalPages, chunks[i].ChunkIndex, chunks[i].Text); err != nil {
			return fmt.Errorf("saving chunk %s: %w", chunks[i].ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetChunk retrieves a chunk by ID.
func (s *corpusStore) GetChunk(ctx context.Context, id string) (*domain.Chunk, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, filename, page, total_pages, chunk_index, content
		FROM chunks WHERE id = ?
	`, id)

	var chunk domain.Chunk
	if err := row.Scan(&chunk.ID, &chunk.Filename, &chunk.Page,
		&chunk.TotalPages, &chunk.ChunkIndex, &chunk.Text); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}
	return &chunk, nil
}

// GetByFilename returns all chunks of a file ordered by page, then
// chunk index.
func (s *corpusStore) GetByFilename(ctx context.Context, filename string) ([]domain.Chunk, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, filename, page, total_pages, chunk_index, content
		FROM chunks WHERE filename = ?
		ORDER BY page, chunk_index
	`, filename)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	return scanChunks(rows)
}

// AllChunks returns every chunk in insertion order.
func (s *corpusStore) AllChunks(ctx context.Context) ([]domain.Chunk, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, filename, page, total_pages, chunk_index, content
		FROM chunks ORDER BY rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	return scanChunks(rows)
}

// Stats summarises the corpus contents.
func (s *corpusStore) Stats(ctx context.Context) (domain.CorpusStats, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT filename, COUNT(*), MAX(total_pages)
		FROM chunks GROUP BY filename
	`)
	if err != nil {
		return domain.CorpusStats{}, fmt.Errorf("querying corpus stats: %w", err)
	}
	defer rows.Close()

	stats := domain.CorpusStats{PerFile: make(map[string]domain.FileStats)}
	for rows.Next() {
		var filename string
		var fs domain.FileStats
		if err := rows.Scan(&filename, &fs.Chunks, &fs.Pages); err != nil {
			return domain.CorpusStats{}, fmt.Errorf("scanning corpus stats: %w", err)
		}
		stats.PerFile[filename] = fs
		stats.FileCount++
		stats.ChunkCount += fs.Chunks
	}

	if err := rows.Err(); err != nil {
		return domain.CorpusStats{}, fmt.Errorf("iterating corpus stats: %w", err)
	}
	return stats, nil
}

// scanChunks scans multiple chunk rows.
func scanChunks(rows *sql.Rows) ([]domain.Chunk, error) {
	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		var chunk domain.Chunk
		if err := rows.Scan(&chunk.ID, &chunk.Filename, &chunk.Page,
			&chunk.TotalPages, &chunk.ChunkIndex, &chunk.Text); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		chunks = append(chunks, chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return chunks, nil
}

// ==================== Ticket Store ====================

// ticketStore implements driven.TicketStore.
type ticketStore struct {
	store *Store
}

var _ driven.TicketStore = (*ticketStore)(nil)

// Save stores a ticket.
func (s *ticketStore) Save(ctx context.Context, ticket *domain.Ticket) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO tickets (id, name, email, title, description, status, priority, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			title = excluded.title,
			description = excluded.description,
			status = excluded.status,
			priority = excluded.priority
	`, ticket.ID, ticket.Name, ticket.Email, ticket.Title, ticket.Description,
		ticket.Status, ticket.Priority, ticket.CreatedAt)

	if err != nil {
		return fmt.Errorf("saving ticket: %w", err)
	}
	return nil
}

// Get retrieves a ticket by ID.
func (s *ticketStore) Get(ctx context.Context, id string) (*domain.Ticket, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, name, email, title, description, status, priority, created_at
		FROM tickets WHERE id = ?
	`, id)

	var ticket domain.Ticket
	if err := row.Scan(&ticket.ID, &ticket.Name, &ticket.Email, &ticket.Title,
		&ticket.Description, &ticket.Status, &ticket.Priority, &ticket.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning ticket: %w", err)
	}
	return &ticket, nil
}

// ListRecent returns up to limit tickets, newest first.
func (s *ticketStore) ListRecent(ctx context.Context, limit int) ([]domain.Ticket, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, name, email, title, description, status, priority, created_at
		FROM tickets ORDER BY created_at DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying tickets: %w", err)
	}
	defer rows.Close()

	var tickets []domain.Ticket //nolint:prealloc // size unknown from query
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(&ticket.ID, &ticket.Name, &ticket.Email, &ticket.Title,
			&ticket.Description, &ticket.Status, &ticket.Priority, &ticket.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning ticket: %w", err)
		}
		tickets = append(tickets, ticket)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tickets: %w", err)
	}
	return tickets, nil
}
