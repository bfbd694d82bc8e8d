package driven

import (
	"context"

	"github.com/munidoc-labs/amtsrag/internal/core/domain"
)

// ChunkStore persists chunk metadata and embeddings. Together with
// the two indexes this is the minimum state needed to restore
// retrieval without recomputing embeddings.
type ChunkStore interface {
	// SaveDocument stores a document's metadata (not its raw bytes).
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// SaveChunks stores chunks with their embeddings.
	SaveChunks(ctx context.Context, chunks []domain.Chunk, embeddings [][]float32) error

	// GetChunk retrieves a chunk by ID.
	GetChunk(ctx context.Context, id string) (*domain.Chunk, error)

	// ListChunks returns all chunks with their embeddings, ordered
	// by document and sequence index. Used to rebuild the in-memory
	// indexes on startup.
	ListChunks(ctx context.Context) ([]domain.Chunk, [][]float32, error)

	// Counts returns the number of stored documents and chunks.
	Counts(ctx context.Context) (documents int, chunks int, err error)

	// Reset removes all stored documents and chunks. Used for a full
	// re-index.
	Reset(ctx context.Context) error

	// Close releases resources.
	Close() error
}
