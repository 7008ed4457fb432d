package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/deskmate-labs/deskmate-cli/internal/core/domain"
	"github.com/deskmate-labs/deskmate-cli/internal/core/ports/driven"
	"github.com/deskmate-labs/deskmate-cli/internal/logger"
)

// LexicalConfig tunes the keyword search engine. The defaults come
// from the original support corpus and are empirical, not principled;
// they are configuration precisely so deployments can adjust them.
type LexicalConfig struct {
	// MinTokenLen is the inclusive length cutoff below which query
	// tokens are discarded (stop-word heuristic).
	MinTokenLen int

	// SnippetBefore is how many characters before an exact match the
	// snippet window starts.
	SnippetBefore int

	// SnippetAfter is how many characters after an exact match the
	// snippet window ends.
	SnippetAfter int

	// ParagraphMax caps the length of a word-overlap paragraph snippet.
	ParagraphMax int

	// ExactBonus is added to the match count of exact matches so they
	// always outrank pure word-overlap matches.
	ExactBonus int

	// ExactCap bounds how many exact-match citations are returned.
	ExactCap int

	// TopCap bounds how many word-overlap results are returned.
	TopCap int
}

// DefaultLexicalConfig returns the stock tuning.
func DefaultLexicalConfig() LexicalConfig {
	return LexicalConfig{
		MinTokenLen:   2,
		SnippetBefore: 200,
		SnippetAfter:  400,
		ParagraphMax:  600,
		ExactBonus:    10,
		ExactCap:      5,
		TopCap:        3,
	}
}

// LexicalEngine performs keyword relevance search over the corpus
// store. It needs no embedding infrastructure, which makes it the
// degraded-mode path when the vector index or embedding service is
// missing or failing.
type LexicalEngine struct {
	corpus driven.CorpusStore
	cfg    LexicalConfig
}

// NewLexicalEngine creates a lexical engine over the given corpus.
func NewLexicalEngine(corpus driven.CorpusStore, cfg LexicalConfig) *LexicalEngine {
	if cfg.MinTokenLen <= 0 {
		cfg = DefaultLexicalConfig()
	}
	return &LexicalEngine{corpus: corpus, cfg: cfg}
}

// Search runs the keyword/paragraph algorithm and returns ranked,
// capped results. A query with no usable tokens yields no candidates.
func (e *LexicalEngine) Search(ctx context.Context, query string) ([]domain.SearchResult, error) {
	queryLower := strings.ToLower(strings.TrimSpace(query))
	tokens := e.queryTokens(queryLower)
	if len(tokens) == 0 {
		logger.Debug("Lexical search: no tokens longer than %d in %q", e.cfg.MinTokenLen, query)
		return nil, nil
	}

	chunks, err := e.corpus.AllChunks(ctx)
	if err != nil {
		return nil, fmt.Errorf("lexical scan: %w", err)
	}

	var results []domain.SearchResult
	for i := range chunks {
		if r, ok := e.scoreChunk(&chunks[i], queryLower, tokens); ok {
			results = append(results, r)
		}
	}

	// Exact matches first, then by match count. Stable so corpus
	// order breaks ties deterministically.
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].ExactMatch != results[j].ExactMatch {
			return results[i].ExactMatch
		}
		return results[i].Score > results[j].Score
	})

	// When the best hit is exact, callers want every citation of the
	// term, so return all exact matches up to the citation cap.
	if len(results) > 0 && results[0].ExactMatch {
		exact := results[:0:0]
		for _, r := range results {
			if r.ExactMatch {
				exact = append(exact, r)
			}
		}
		if len(exact) > e.cfg.ExactCap {
			exact = exact[:e.cfg.ExactCap]
		}
		logger.Debug("Lexical search: %d exact matches for %q", len(exact), query)
		return exact, nil
	}

	if len(results) > e.cfg.TopCap {
		results = results[:e.cfg.TopCap]
	}
	logger.Debug("Lexical search: %d word-overlap matches for %q", len(results), query)
	return results, nil
}

// queryTokens splits the lowercased query on whitespace and discards
// short tokens.
func (e *LexicalEngine) queryTokens(queryLower string) []string {
	var tokens []string
	for _, tok := range strings.Fields(queryLower) {
		if len(tok) > e.cfg.MinTokenLen {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// scoreChunk evaluates one chunk against the query. It returns the
// chunk's search result and whether the chunk is a candidate at all.
func (e *LexicalEngine) scoreChunk(chunk *domain.Chunk, queryLower string, tokens []string) (domain.SearchResult, bool) {
	textLower := strings.ToLower(chunk.Text)

	matches := 0
	for _, tok := range tokens {
		if strings.Contains(textLower, tok) {
			matches++
		}
	}
	exact := strings.Contains(textLower, queryLower)
	if matches == 0 && !exact {
		return domain.SearchResult{}, false
	}

	var content string
	if exact {
		content = e.exactSnippet(chunk.Text, textLower, queryLower)
	} else {
		var ok bool
		content, ok = e.bestParagraph(chunk.Text, tokens)
		if !ok {
			return domain.SearchResult{}, false
		}
	}

	score := matches
	if exact {
		score += e.cfg.ExactBonus
	}

	return domain.SearchResult{
		Content:    content,
		Filename:   chunk.Filename,
		Page:       chunk.Page,
		Score:      float64(score),
		ExactMatch: exact,
		Source:     domain.SourceLexical,
	}, true
}

// exactSnippet extracts the window around the first occurrence of the
// query, marking clamped edges with ellipses. Window offsets come from
// the lowercased text, whose byte lengths can drift from the original
// for a few runes, so boundaries are clamped to rune starts.
func (e *LexicalEngine) exactSnippet(text, textLower, queryLower string) string {
	pos := strings.Index(textLower, queryLower)
	if pos > len(text) {
		pos = len(text)
	}
	start := pos - e.cfg.SnippetBefore
	if start < 0 {
		start = 0
	}
	end := pos + e.cfg.SnippetAfter
	if end > len(text) {
		end = len(text)
	}
	start = runeBoundary(text, start)
	end = runeBoundary(text, end)

	snippet := strings.TrimSpace(text[start:end])
	if start > 0 {
		snippet = "..." + snippet
	}
	if end < len(text) {
		snippet += "..."
	}
	return snippet
}

// bestParagraph picks the paragraph with the most token matches, ties
// broken by source order. A chunk without blank-line breaks is one
// paragraph equal to the whole text.
func (e *LexicalEngine) bestParagraph(text string, tokens []string) (string, bool) {
	best := ""
	bestScore := 0

	for _, para := range strings.Split(text, "\n\n") {
		paraLower := strings.ToLower(para)
		score := 0
		for _, tok := range tokens {
			if strings.Contains(paraLower, tok) {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			best = para
		}
	}

	if bestScore == 0 {
		return "", false
	}

	best = strings.TrimSpace(best)
	if len(best) > e.cfg.ParagraphMax {
		best = best[:runeBoundary(best, e.cfg.ParagraphMax)] + "..."
	}
	return best, true
}

// runeBoundary backs the byte offset i up to the start of the rune it
// falls inside, so slicing at i never splits a multi-byte rune.
func runeBoundary(s string, i int) int {
	for i > 0 && i < len(s) && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}
