package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/deskmate-labs/deskmate-cli/internal/core/domain"
	"github.com/deskmate-labs/deskmate-cli/internal/core/ports/driven"
	"github.com/deskmate-labs/deskmate-cli/internal/core/ports/driving"
	"github.com/deskmate-labs/deskmate-cli/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.Retriever = (*RetrievalService)(nil)

// RetrievalConfig tunes the orchestrator.
type RetrievalConfig struct {
	// Thresholds maps top-hit distances to verdicts on the vector path.
	Thresholds domain.Thresholds

	// MinUsable is the weakest verdict whose results may be used as
	// answer context. Below it callers take their fallback path.
	MinUsable domain.Verdict

	// VectorCap bounds results returned from the vector path.
	VectorCap int

	// DefaultK is the candidate count when the caller passes k <= 0.
	DefaultK int
}

// DefaultRetrievalConfig returns the stock orchestrator tuning.
func DefaultRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{
		Thresholds: domain.DefaultThresholds(),
		MinUsable:  domain.VerdictMediumHigh,
		VectorCap:  3,
		DefaultK:   5,
	}
}

// RetrievalService is the single entry point for answering queries.
// It prefers the vector index and degrades to the lexical engine when
// no index is configured, the index is empty, or embedding fails.
type RetrievalService struct {
	corpus      driven.CorpusStore
	lexical     *LexicalEngine
	vectorIndex driven.VectorIndex
	embedder    driven.EmbeddingService
	cfg         RetrievalConfig
}

// NewRetrievalService creates the orchestrator. The vectorIndex and
// embedder parameters are optional (can be nil); without both, every
// query takes the lexical path.
func NewRetrievalService(
	corpus driven.CorpusStore,
	lexical *LexicalEngine,
	vectorIndex driven.VectorIndex,
	embedder driven.EmbeddingService,
	cfg RetrievalConfig,
) *RetrievalService {
	if cfg.VectorCap <= 0 {
		cfg = DefaultRetrievalConfig()
	}
	return &RetrievalService{
		corpus:      corpus,
		lexical:     lexical,
		vectorIndex: vectorIndex,
		embedder:    embedder,
		cfg:         cfg,
	}
}

// Retrieve answers a query with ranked results and a confidence
// verdict. It returns errors only for programmer/configuration faults;
// recoverable failures degrade and still produce a RetrievalResult.
func (s *RetrievalService) Retrieve(ctx context.Context, query string, k int) (domain.RetrievalResult, error) {
	logger.Section("Retrieval")
	logger.Debug("Query: %q", query)

	query = strings.TrimSpace(query)
	if query == "" {
		logger.Debug("Empty query, returning no results")
		return domain.RetrievalResult{Confidence: domain.VerdictNone}, nil
	}

	if k <= 0 {
		k = s.cfg.DefaultK
	}

	if s.vectorPathAvailable(ctx) {
		result, err := s.vectorRetrieve(ctx, query, k)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, domain.ErrDimensionMismatch) {
			// Configuration fault: never swallowed.
			return domain.RetrievalResult{}, err
		}
		logger.Warn("Vector path failed (%v), degrading to lexical search", err)
	}

	return s.lexicalRetrieve(ctx, query)
}

// vectorPathAvailable reports whether the vector path is configured
// and has anything to search. Probe errors count as unavailable.
func (s *RetrievalService) vectorPathAvailable(ctx context.Context) bool {
	if s.vectorIndex == nil || s.embedder == nil {
		return false
	}
	empty, err := s.vectorIndex.IsEmpty(ctx)
	if err != nil {
		logger.Warn("Vector index probe failed: %v", err)
		return false
	}
	if empty {
		logger.Debug("Vector index is empty, using lexical search")
	}
	return !empty
}

// vectorRetrieve embeds the query, searches the index and hydrates
// hits back into search results.
func (s *RetrievalService) vectorRetrieve(ctx context.Context, query string, k int) (domain.RetrievalResult, error) {
	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return domain.RetrievalResult{}, fmt.Errorf("%w: %v", domain.ErrEmbeddingUnavailable, err)
	}
	logger.Debug("Query embedding: %d dimensions", len(embedding))

	hits, err := s.vectorIndex.Search(ctx, embedding, k)
	if err != nil {
		if errors.Is(err, domain.ErrDimensionMismatch) {
			return domain.RetrievalResult{}, err
		}
		return domain.RetrievalResult{}, fmt.Errorf("vector search: %w", err)
	}
	logger.Debug("Vector search: %d hits", len(hits))

	results := s.hydrateHits(ctx, hits)
	results = dedupeByLocation(results)
	if len(results) > s.cfg.VectorCap {
		results = results[:s.cfg.VectorCap]
	}

	confidence := domain.VerdictNone
	if len(hits) > 0 {
		confidence = s.cfg.Thresholds.VerdictForDistance(hits[0].Distance)
	}
	logger.Info("Vector retrieval: %d results, confidence %s", len(results), confidence)

	return domain.RetrievalResult{
		Results:    results,
		Confidence: confidence,
		Usable:     len(results) > 0 && confidence.AtLeast(s.cfg.MinUsable),
	}, nil
}

// hydrateHits maps index hits back to corpus chunks. Hits whose chunk
// is gone from the corpus store are skipped; a crash between corpus
// and index writes may leave such strays and they are simply
// un-retrievable here.
func (s *RetrievalService) hydrateHits(ctx context.Context, hits []driven.VectorHit) []domain.SearchResult {
	results := make([]domain.SearchResult, 0, len(hits))
	for _, hit := range hits {
		chunk, err := s.corpus.GetChunk(ctx, hit.ChunkID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				logger.Warn("Index hit %s has no corpus chunk, skipping", hit.ChunkID)
				continue
			}
			logger.Warn("Corpus lookup for %s failed: %v", hit.ChunkID, err)
			continue
		}
		results = append(results, domain.SearchResult{
			Content:  strings.TrimSpace(chunk.Text),
			Filename: chunk.Filename,
			Page:     chunk.Page,
			Score:    hit.Distance,
			Source:   domain.SourceVector,
		})
	}
	return results
}

// lexicalRetrieve delegates to the keyword engine and derives the
// verdict purely from match quality.
func (s *RetrievalService) lexicalRetrieve(ctx context.Context, query string) (domain.RetrievalResult, error) {
	results, err := s.lexical.Search(ctx, query)
	if err != nil {
		return domain.RetrievalResult{}, fmt.Errorf("lexical retrieve: %w", err)
	}

	confidence := domain.VerdictNone
	switch {
	case len(results) == 0:
	case results[0].ExactMatch:
		confidence = domain.VerdictHigh
	default:
		confidence = domain.VerdictMedium
	}
	logger.Info("Lexical retrieval: %d results, confidence %s", len(results), confidence)

	return domain.RetrievalResult{
		Results:    results,
		Confidence: confidence,
		Usable:     len(results) > 0 && confidence.AtLeast(s.cfg.MinUsable),
	}, nil
}

// dedupeByLocation keeps only the best-scoring hit per filename+page.
// Input is ranked best-first, so the first occurrence wins.
func dedupeByLocation(results []domain.SearchResult) []domain.SearchResult {
	seen := make(map[string]bool, len(results))
	deduped := results[:0:0]
	for _, r := range results {
		key := fmt.Sprintf("%s#%d", r.Filename, r.Page)
		if seen[key] {
			continue
		}
		seen[key] = true
		deduped = append(deduped, r)
	}
	return deduped
}
