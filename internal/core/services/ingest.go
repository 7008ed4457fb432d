package services

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/deskmate-labs/deskmate-cli/internal/core/domain"
	"github.com/deskmate-labs/deskmate-cli/internal/core/ports/driven"
	"github.com/deskmate-labs/deskmate-cli/internal/core/ports/driving"
	"github.com/deskmate-labs/deskmate-cli/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.Ingestor = (*IngestService)(nil)

// EmbedBatchSize is how many chunks are embedded and indexed per
// round trip to the embedding service.
const EmbedBatchSize = 100

// EmbedRate is the proactive throttle on embedding batches per second,
// keeping local inference servers responsive during large ingests.
const EmbedRate = 2.0

// IngestService turns extracted pages into stored, indexed chunks.
// Corpus writes happen before index writes; the two are sequenced,
// not atomic, and the orchestrator tolerates the gap.
type IngestService struct {
	corpus   driven.CorpusStore
	index    driven.VectorIndex
	embedder driven.EmbeddingService
	chunker  driven.Chunker
	limiter  *rate.Limiter
}

// NewIngestService creates an ingestor. The index and embedder are
// optional (can be nil); without both, ingested chunks are only
// lexically searchable.
func NewIngestService(
	corpus driven.CorpusStore,
	index driven.VectorIndex,
	embedder driven.EmbeddingService,
	chunker driven.Chunker,
) *IngestService {
	return &IngestService{
		corpus:   corpus,
		index:    index,
		embedder: embedder,
		chunker:  chunker,
		limiter:  rate.NewLimiter(rate.Limit(EmbedRate), 1),
	}
}

// IngestPages chunks, validates, stores and indexes the given pages.
// Malformed and duplicate chunks are reported and skipped; the rest
// proceed. Embedding failure is not fatal: the stored chunks remain
// retrievable through the lexical engine.
func (s *IngestService) IngestPages(ctx context.Context, pages []domain.PageText) (driving.IngestReport, error) {
	logger.Section("Ingestion")
	logger.Debug("Pages: %d", len(pages))

	var report driving.IngestReport
	files := make(map[string]bool, len(pages))
	var accepted []domain.Chunk
	batchIDs := make(map[string]bool)

	for _, page := range pages {
		files[page.Filename] = true
		for _, chunk := range s.chunker.Split(page) {
			if err := chunk.Validate(); err != nil {
				logger.Warn("Skipping chunk: %v", err)
				report.ChunksSkipped++
				continue
			}
			if batchIDs[chunk.ID] {
				logger.Warn("Skipping chunk: %v: %s repeats within batch", domain.ErrDuplicateID, chunk.ID)
				report.ChunksSkipped++
				continue
			}
			if _, err := s.corpus.GetChunk(ctx, chunk.ID); err == nil {
				logger.Warn("Skipping chunk: %v: %s already stored", domain.ErrDuplicateID, chunk.ID)
				report.ChunksSkipped++
				continue
			} else if !errors.Is(err, domain.ErrNotFound) {
				return report, fmt.Errorf("corpus lookup: %w", err)
			}
			batchIDs[chunk.ID] = true
			accepted = append(accepted, chunk)
		}
	}
	report.Files = len(files)

	if len(accepted) == 0 {
		logger.Info("Ingestion: nothing to store (%d skipped)", report.ChunksSkipped)
		return report, nil
	}

	// Corpus store first; the index follows.
	if err := s.corpus.AddChunks(ctx, accepted); err != nil {
		return report, fmt.Errorf("store chunks: %w", err)
	}
	report.ChunksStored = len(accepted)
	logger.Info("Stored %d chunks from %d files (%d skipped)",
		report.ChunksStored, report.Files, report.ChunksSkipped)

	if s.index == nil || s.embedder == nil {
		logger.Debug("No vector path configured, chunks are lexical-only")
		return report, nil
	}

	indexed, err := s.indexChunks(ctx, accepted)
	report.ChunksIndexed = indexed
	if err != nil {
		if errors.Is(err, domain.ErrDimensionMismatch) {
			return report, err
		}
		// Recoverable: chunks stay lexically searchable.
		logger.Warn("Indexing incomplete: %v", err)
	}
	return report, nil
}

// indexChunks embeds and indexes chunks in throttled batches. Each
// batch is all-or-nothing on the index side.
func (s *IngestService) indexChunks(ctx context.Context, chunks []domain.Chunk) (int, error) {
	indexed := 0
	for start := 0; start < len(chunks); start += EmbedBatchSize {
		end := start + EmbedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		if err := s.limiter.Wait(ctx); err != nil {
			return indexed, fmt.Errorf("embed throttle: %w", err)
		}

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}
		embeddings, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return indexed, fmt.Errorf("%w: %v", domain.ErrEmbeddingUnavailable, err)
		}
		if len(embeddings) != len(batch) {
			return indexed, fmt.Errorf("%w: got %d embeddings for %d texts",
				domain.ErrEmbeddingUnavailable, len(embeddings), len(batch))
		}

		entries := make([]domain.IndexEntry, len(batch))
		for i, c := range batch {
			entries[i] = domain.IndexEntry{
				ChunkID:   c.ID,
				Embedding: embeddings[i],
				Metadata: domain.EntryMetadata{
					Filename:   c.Filename,
					Page:       c.Page,
					ChunkIndex: c.ChunkIndex,
				},
			}
		}

		if err := s.index.Add(ctx, entries); err != nil {
			if errors.Is(err, domain.ErrDimensionMismatch) {
				return indexed, err
			}
			// The batch was rejected whole; later batches may still fit.
			logger.Warn("Index batch of %d rejected: %v", len(entries), err)
			continue
		}
		indexed += len(entries)
	}
	logger.Info("Indexed %d of %d chunks", indexed, len(chunks))
	return indexed, nil
}
