package driving

import (
	"context"

	"github.com/deskmate-labs/deskmate-cli/internal/core/domain"
)

// Retriever is the sole public query surface of the retrieval engine.
//
// Retrieve never returns an error for data-not-found conditions: a
// query that hits every recoverable failure mode still yields a
// RetrievalResult with empty results and VerdictNone. Errors are
// reserved for programmer/configuration faults such as a dimension
// mismatch.
type Retriever interface {
	// Retrieve answers a query with ranked results and a confidence
	// verdict. k bounds the candidate count fetched from the index.
	Retrieve(ctx context.Context, query string, k int) (domain.RetrievalResult, error)
}
