// Package bm25 provides an in-memory inverted-index sparse index
// with BM25 ranking. It guarantees recall for queries containing
// exact administrative terminology (statute references, defined
// terms, amounts) that embedding similarity may under-weight.
package bm25

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/munidoc-labs/amtsrag/internal/core/domain"
	"github.com/munidoc-labs/amtsrag/internal/core/ports/driven"
)

// Ensure Index implements the port.
var _ driven.SparseIndex = (*Index)(nil)

// BM25 parameters, the standard Robertson values.
const (
	k1 = 1.2
	b  = 0.75
)

// posting records term occurrences within one chunk.
type posting struct {
	chunkID   string
	frequency int
}

// Index is an inverted index over chunk text.
type Index struct {
	mu          sync.RWMutex
	postings    map[string][]posting
	lengths     map[string]int
	totalLength int
	closed      bool
}

// New creates an empty sparse index.
func New() *Index {
	return &Index{
		postings: make(map[string][]posting),
		lengths:  make(map[string]int),
	}
}

// Add indexes the text of a chunk. Index construction and querying
// are distinct phases; Add calls are serialized by the builder.
func (idx *Index) Add(_ context.Context, chunkID string, text string) error {
	tokens := tokenize(text)

	freq := make(map[string]int, len(tokens))
	for _, term := range tokens {
		freq[term]++
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.closed {
		return domain.ErrIndexClosed
	}

	for term, f := range freq {
		idx.postings[term] = append(idx.postings[term], posting{chunkID: chunkID, frequency: f})
	}
	idx.lengths[chunkID] = len(tokens)
	idx.totalLength += len(tokens)

	return nil
}

// Search scores all chunks sharing a term with the query and
// returns the top k, descending by BM25 score. Ties break on
// chunk id for a stable order.
func (idx *Index) Search(_ context.Context, query string, k int) ([]driven.SparseHit, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.closed {
		return nil, domain.ErrIndexClosed
	}
	if len(idx.lengths) == 0 || k <= 0 {
		return []driven.SparseHit{}, nil
	}

	n := float64(len(idx.lengths))
	avgLen := float64(idx.totalLength) / n
	scores := make(map[string]float64)

	for _, term := range tokenize(query) {
		postings, ok := idx.postings[term]
		if !ok {
			continue
		}

		idf := computeIDF(n, float64(len(postings)))
		for _, p := range postings {
			scores[p.chunkID] += idf * tfNorm(float64(p.frequency), float64(idx.lengths[p.chunkID]), avgLen)
		}
	}

	hits := make([]driven.SparseHit, 0, len(scores))
	for id, score := range scores {
		hits = append(hits, driven.SparseHit{ChunkID: id, Score: score})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Len returns the number of indexed chunks.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.lengths)
}

// Close releases the index. Further calls fail.
func (idx *Index) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.closed = true
	idx.postings = nil
	idx.lengths = nil
	return nil
}

// computeIDF is the BM25 inverse document frequency with the +1
// smoothing that keeps scores positive for common terms.
func computeIDF(totalDocs, docFreq float64) float64 {
	return math.Log((totalDocs-docFreq+0.5)/(docFreq+0.5) + 1)
}

// tfNorm is the BM25 term-frequency saturation with length
// normalisation.
func tfNorm(termFreq, docLen, avgLen float64) float64 {
	if avgLen == 0 {
		return 0
	}
	return termFreq * (k1 + 1) / (termFreq + k1*(1-b+b*docLen/avgLen))
}
