// Package domain defines the core business entities for Deskmate.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Chunk: The smallest retrievable unit of ingested text
//   - IndexEntry: A chunk's embedding plus citation metadata
//   - SearchResult: A single ranked hit returned to callers
//   - RetrievalResult: The full answer to one retrieval query
//   - Verdict: The confidence tier derived from the top hit
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
