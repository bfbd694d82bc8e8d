package driven

import (
	"context"

	"github.com/munidoc-labs/amtsrag/internal/core/domain"
)

// Segmenter splits extracted text into chunks aligned to the
// document's administrative structure.
type Segmenter interface {
	// Segment produces the chunks for a document's extracted text.
	// Every chunk is non-empty, bounded by the configured maximum
	// size, and carries a strictly increasing sequence index.
	// Returns an empty slice (no error) when the text contains
	// nothing segmentable; the builder reports that as a warning.
	Segment(ctx context.Context, text string, doc *domain.Document) ([]domain.Chunk, error)
}
