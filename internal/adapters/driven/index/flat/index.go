// Package flat provides an exact in-memory dense index using
// brute-force cosine similarity. Municipal corpora stay in the tens
// of thousands of chunks, where an exact scan outperforms the
// constant-factor overhead of an approximate structure and avoids a
// cgo dependency.
package flat

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/munidoc-labs/amtsrag/internal/core/domain"
	"github.com/munidoc-labs/amtsrag/internal/core/ports/driven"
)

// Ensure Index implements the port.
var _ driven.DenseIndex = (*Index)(nil)

// entry pairs a chunk id with its unit-normalised vector.
type entry struct {
	chunkID string
	vector  []float32
}

// Index stores chunk embeddings for similarity search.
type Index struct {
	mu        sync.RWMutex
	dimension int
	entries   []entry
	closed    bool
}

// New creates an empty dense index for vectors of the given
// dimension.
func New(dimension int) (*Index, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("flat: invalid dimension %d", dimension)
	}
	return &Index{dimension: dimension}, nil
}

// Add inserts a vector for the given chunk ID. Vectors are
// normalised on insert so Search reduces to a dot product.
func (idx *Index) Add(_ context.Context, chunkID string, embedding []float32) error {
	if len(embedding) != idx.dimension {
		return fmt.Errorf("flat: vector dimension %d does not match index dimension %d",
			len(embedding), idx.dimension)
	}

	normalised := normalise(embedding)

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.closed {
		return domain.ErrIndexClosed
	}

	idx.entries = append(idx.entries, entry{chunkID: chunkID, vector: normalised})
	return nil
}

// Search returns the k most similar chunks, descending by cosine
// similarity, ties broken by chunk id for a stable order. An empty
// index yields an empty result.
func (idx *Index) Search(_ context.Context, query []float32, k int) ([]driven.DenseHit, error) {
	if len(query) != idx.dimension {
		return nil, fmt.Errorf("flat: query dimension %d does not match index dimension %d",
			len(query), idx.dimension)
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.closed {
		return nil, domain.ErrIndexClosed
	}
	if len(idx.entries) == 0 || k <= 0 {
		return []driven.DenseHit{}, nil
	}

	q := normalise(query)

	hits := make([]driven.DenseHit, len(idx.entries))
	for i, e := range idx.entries {
		hits[i] = driven.DenseHit{
			ChunkID:    e.chunkID,
			Similarity: dot(e.vector, q),
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Len returns the number of stored vectors.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// Close releases the index. Further calls fail.
func (idx *Index) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.closed = true
	idx.entries = nil
	return nil
}

// normalise returns the unit vector; zero vectors pass through.
func normalise(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		out := make([]float32, len(v))
		copy(out, v)
		return out
	}

	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

// dot computes the inner product of two equal-length vectors.
func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
