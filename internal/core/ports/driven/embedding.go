package driven

import "context"

// EmbeddingService generates vector embeddings from text.
// Implementations must be deterministic for identical input: the
// persisted index relies on embeddings being reproducible.
//
// Note: This is separate from DenseIndex which stores and searches
// vectors. EmbeddingService generates vectors; DenseIndex stores them.
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts efficiently.
	// This is more efficient than calling Embed in a loop for large
	// batches.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 384, 1536).
	// This must match the DenseIndex configuration.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Close releases resources.
	Close() error
}
