package driven

import "context"

// SparseIndex provides lexical relevance scoring over tokenized
// chunk text. It exists to guarantee recall for queries containing
// exact administrative terminology (section numbers, defined terms)
// that embeddings may under-weight. Tokenization and stopword
// handling must be identical at index time and query time.
type SparseIndex interface {
	// Add indexes the text of a chunk.
	Add(ctx context.Context, chunkID string, text string) error

	// Search scores chunks against the query and returns the top k,
	// descending by score. An empty index yields an empty result,
	// not an error.
	Search(ctx context.Context, query string, k int) ([]SparseHit, error)

	// Len returns the number of indexed chunks.
	Len() int

	// Close releases resources.
	Close() error
}

// SparseHit represents a lexical search result.
type SparseHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Score is the relevance score (BM25). Unbounded above; the
	// retriever normalizes before fusing with dense scores.
	Score float64
}
