package driving

import (
	"context"

	"github.com/munidoc-labs/amtsrag/internal/core/domain"
)

// Retriever answers a query with a ranked, fused chunk list.
type Retriever interface {
	// Retrieve returns at most k chunks ordered by non-increasing
	// fused score. Both indexes empty yields an empty result, not an
	// error: "no knowledge yet" is a valid state.
	Retrieve(ctx context.Context, query string, k int) (domain.RetrievalResult, error)
}

// Generator turns retrieved evidence into a grounded answer.
type Generator interface {
	// Generate builds a constrained prompt from the retrieval result
	// and delegates to the language model. Citations in the output
	// are verified against the supplied result.
	Generate(ctx context.Context, query string, result domain.RetrievalResult) (*domain.Answer, error)
}

// Pipeline sequences the build-time and query-time flows. It is the
// only component with external-facing entry points.
type Pipeline interface {
	// BuildIndex extracts, segments, embeds and indexes the given
	// documents. Per-document failures are collected into the report
	// rather than aborting the batch.
	BuildIndex(ctx context.Context, docs []*domain.Document) (*domain.BuildReport, error)

	// Load restores chunk metadata and embeddings from the store
	// into the in-memory indexes without recomputing embeddings.
	Load(ctx context.Context) error

	// Ask retrieves evidence for the query and generates a grounded
	// answer over the top k chunks.
	Ask(ctx context.Context, query string, k int) (*domain.Answer, error)

	// Status reports the number of indexed documents and chunks.
	Status(ctx context.Context) (documents int, chunks int, err error)
}
