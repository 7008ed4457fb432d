package driven

import "context"

// EmbeddingService generates vector embeddings from text.
// This is an optional service - when nil, vector search is disabled
// and retrieval degrades to the lexical engine.
//
// Every call within a process lifetime returns vectors of the same
// dimension. Failures are surfaced to the orchestrator, which wraps
// them as domain.ErrEmbeddingUnavailable and degrades for that query.
//
// Implementations may include:
//   - Ollama (nomic-embed-text, all-minilm)
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts efficiently.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 384, 768).
	// This must match the VectorIndex configuration.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable with a lightweight
	// request. Used at startup before committing to the vector path.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
