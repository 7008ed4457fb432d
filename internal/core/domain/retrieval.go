package domain

// ResultSource identifies which engine produced a search result.
type ResultSource string

const (
	// SourceLexical marks results from the keyword/paragraph engine.
	SourceLexical ResultSource = "lexical"

	// SourceVector marks results from the vector similarity index.
	SourceVector ResultSource = "vector"
)

// SearchResult represents a single search hit.
// Transient: produced per query, never persisted.
type SearchResult struct {
	// Content is the trimmed snippet presented to the caller.
	Content string

	// Filename is the source document of the hit.
	Filename string

	// Page is the 1-based page number of the hit.
	Page int

	// Score is the relevance measure. For lexical results this is a
	// match count (higher is better); for vector results it is a
	// distance (lower is better).
	Score float64

	// ExactMatch is true when the full query string appears verbatim
	// in the chunk text. Exact matches always rank above word-overlap
	// matches regardless of numeric score.
	ExactMatch bool

	// Source identifies the engine that produced the hit.
	Source ResultSource
}

// RetrievalResult is the full answer to one retrieval query.
type RetrievalResult struct {
	// Results is the ranked, deduplicated, capped hit list.
	Results []SearchResult

	// Confidence is the verdict derived from the top hit.
	Confidence Verdict

	// Usable reports whether the results meet the configured minimum
	// verdict and may be used as answer context. When false the caller
	// should take its fallback path even if Results is non-empty.
	Usable bool
}
