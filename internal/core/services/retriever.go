// Package services contains the core business logic, wired to the
// outside world exclusively through ports.
package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/munidoc-labs/amtsrag/internal/core/domain"
	"github.com/munidoc-labs/amtsrag/internal/core/ports/driven"
	"github.com/munidoc-labs/amtsrag/internal/core/ports/driving"
	"github.com/munidoc-labs/amtsrag/internal/logger"
)

// Ensure HybridRetriever implements the port.
var _ driving.Retriever = (*HybridRetriever)(nil)

// HybridRetriever fuses semantic and lexical search results into a
// single ranking. Both indexes are queried concurrently with an
// overfetched candidate count, scores are normalized per component
// and combined as a weighted sum.
type HybridRetriever struct {
	embedder driven.EmbeddingService
	dense    driven.DenseIndex
	sparse   driven.SparseIndex
	store    driven.ChunkStore

	denseWeight     float64
	sparseWeight    float64
	overfetchFactor int
}

// RetrieverOption configures a HybridRetriever.
type RetrieverOption func(*HybridRetriever)

// WithFusionWeights sets the dense and sparse fusion weights.
func WithFusionWeights(dense, sparse float64) RetrieverOption {
	return func(r *HybridRetriever) {
		r.denseWeight = dense
		r.sparseWeight = sparse
	}
}

// WithOverfetchFactor sets the candidate multiplier applied to k
// when querying each index.
func WithOverfetchFactor(factor int) RetrieverOption {
	return func(r *HybridRetriever) {
		if factor >= 1 {
			r.overfetchFactor = factor
		}
	}
}

// NewHybridRetriever creates a retriever over the given indexes.
// The embedder may be nil, in which case retrieval degrades to
// sparse-only.
func NewHybridRetriever(embedder driven.EmbeddingService, dense driven.DenseIndex, sparse driven.SparseIndex, store driven.ChunkStore, opts ...RetrieverOption) *HybridRetriever {
	r := &HybridRetriever{
		embedder:        embedder,
		dense:           dense,
		sparse:          sparse,
		store:           store,
		denseWeight:     0.3,
		sparseWeight:    0.7,
		overfetchFactor: 2,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Retrieve returns at most k chunks ordered by non-increasing fused
// score. If one index fails or is unavailable, retrieval degrades to
// the other rather than failing the query.
func (r *HybridRetriever) Retrieve(ctx context.Context, query string, k int) (domain.RetrievalResult, error) {
	result := domain.RetrievalResult{Query: query}

	if query == "" {
		return result, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	if k <= 0 {
		return result, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidInput, k)
	}

	// An empty corpus is a valid state, not an error.
	if r.dense.Len() == 0 && r.sparse.Len() == 0 {
		return result, nil
	}

	fetch := k * r.overfetchFactor

	var (
		wg         sync.WaitGroup
		denseHits  []driven.DenseHit
		sparseHits []driven.SparseHit
		denseErr   error
		sparseErr  error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		denseHits, denseErr = r.denseSearch(ctx, query, fetch)
	}()
	go func() {
		defer wg.Done()
		sparseHits, sparseErr = r.sparse.Search(ctx, query, fetch)
	}()
	wg.Wait()

	if denseErr != nil && sparseErr != nil {
		return result, fmt.Errorf("both retrieval paths failed: dense: %v; sparse: %w", denseErr, sparseErr)
	}
	if denseErr != nil {
		logger.Warn("dense retrieval failed, degrading to sparse-only: %v", denseErr)
		denseHits = nil
	}
	if sparseErr != nil {
		logger.Warn("sparse retrieval failed, degrading to dense-only: %v", sparseErr)
		sparseHits = nil
	}

	fused := r.fuse(denseHits, sparseHits)
	if len(fused) == 0 {
		return result, nil
	}

	scored, err := r.hydrate(ctx, fused)
	if err != nil {
		return result, err
	}

	sortScored(scored)
	if len(scored) > k {
		scored = scored[:k]
	}

	result.Chunks = scored
	return result, nil
}

// denseSearch embeds the query and searches the dense index. With no
// embedder configured the dense component contributes nothing.
func (r *HybridRetriever) denseSearch(ctx context.Context, query string, k int) ([]driven.DenseHit, error) {
	if r.embedder == nil {
		return nil, nil
	}
	if r.dense.Len() == 0 {
		return nil, nil
	}

	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	return r.dense.Search(ctx, vector, k)
}

// fusedScore carries the per-component and combined scores for one
// candidate chunk.
type fusedScore struct {
	chunkID string
	dense   float64
	sparse  float64
	fused   float64
}

// fuse normalizes each component to [0, 1] with min-max scaling and
// combines them as a weighted sum. A chunk absent from one component
// contributes zero for it. Raw BM25 scores are unbounded, so scaling
// before fusion is what makes the weights meaningful.
func (r *HybridRetriever) fuse(denseHits []driven.DenseHit, sparseHits []driven.SparseHit) []fusedScore {
	denseNorm := make(map[string]float64, len(denseHits))
	if len(denseHits) > 0 {
		lo, hi := denseHits[len(denseHits)-1].Similarity, denseHits[0].Similarity
		for _, h := range denseHits {
			denseNorm[h.ChunkID] = minMaxScale(h.Similarity, lo, hi)
		}
	}

	sparseNorm := make(map[string]float64, len(sparseHits))
	if len(sparseHits) > 0 {
		lo, hi := sparseHits[len(sparseHits)-1].Score, sparseHits[0].Score
		for _, h := range sparseHits {
			sparseNorm[h.ChunkID] = minMaxScale(h.Score, lo, hi)
		}
	}

	seen := make(map[string]struct{}, len(denseNorm)+len(sparseNorm))
	fused := make([]fusedScore, 0, len(denseNorm)+len(sparseNorm))

	add := func(id string) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		d := denseNorm[id]
		s := sparseNorm[id]
		fused = append(fused, fusedScore{
			chunkID: id,
			dense:   d,
			sparse:  s,
			fused:   r.denseWeight*d + r.sparseWeight*s,
		})
	}

	for _, h := range denseHits {
		add(h.ChunkID)
	}
	for _, h := range sparseHits {
		add(h.ChunkID)
	}

	return fused
}

// hydrate resolves fused candidates into full chunks. A candidate
// whose chunk has vanished from the store is dropped with a warning
// rather than failing the query.
func (r *HybridRetriever) hydrate(ctx context.Context, fused []fusedScore) ([]domain.ScoredChunk, error) {
	scored := make([]domain.ScoredChunk, 0, len(fused))
	for _, f := range fused {
		chunk, err := r.store.GetChunk(ctx, f.chunkID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				logger.Warn("indexed chunk %s missing from store, skipping", f.chunkID)
				continue
			}
			return nil, fmt.Errorf("loading chunk %s: %w", f.chunkID, err)
		}
		scored = append(scored, domain.ScoredChunk{
			Chunk:       *chunk,
			Score:       f.fused,
			DenseScore:  f.dense,
			SparseScore: f.sparse,
		})
	}
	return scored, nil
}

// sortScored orders by fused score descending, ties broken by lower
// sequence index so earlier document positions win, then by id for a
// fully deterministic order.
func sortScored(scored []domain.ScoredChunk) {
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		if scored[i].Chunk.SequenceIndex != scored[j].Chunk.SequenceIndex {
			return scored[i].Chunk.SequenceIndex < scored[j].Chunk.SequenceIndex
		}
		return scored[i].Chunk.ID < scored[j].Chunk.ID
	})
}

// minMaxScale maps v from [lo, hi] to [0, 1]. A degenerate range
// maps everything to 1: a single hit is the best hit.
func minMaxScale(v, lo, hi float64) float64 {
	if hi <= lo {
		return 1
	}
	return (v - lo) / (hi - lo)
}
