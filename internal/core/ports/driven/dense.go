package driven

import "context"

// DenseIndex provides semantic similarity search over chunk
// embeddings. Construction and querying are distinct phases: Search
// must be safe while no Add calls are in flight, and implementations
// are not required to support concurrent Add and Search.
type DenseIndex interface {
	// Add inserts a vector for the given chunk ID.
	Add(ctx context.Context, chunkID string, embedding []float32) error

	// Search finds the k nearest neighbours to the query vector.
	// It returns fewer than k hits only when the index holds fewer
	// than k vectors. An empty index yields an empty result, not an
	// error.
	Search(ctx context.Context, query []float32, k int) ([]DenseHit, error)

	// Len returns the number of stored vectors.
	Len() int

	// Close releases resources.
	Close() error
}

// DenseHit represents a similarity search result.
type DenseHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Similarity is the cosine similarity score (0-1).
	Similarity float64
}
