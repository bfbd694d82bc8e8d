package domain

// ScoredChunk is one entry of a RetrievalResult.
type ScoredChunk struct {
	// Chunk is the matched chunk.
	Chunk Chunk

	// Score is the fused relevance score in [0, 1].
	Score float64

	// DenseScore is the normalized semantic component (0 if the
	// chunk was not in the dense result set).
	DenseScore float64

	// SparseScore is the normalized lexical component (0 if the
	// chunk was not in the sparse result set).
	SparseScore float64
}

// RetrievalResult is the ordered output of one hybrid query:
// at most k chunks, descending by fused score, ties broken by
// lower SequenceIndex. It is transient and never persisted.
type RetrievalResult struct {
	// Query is the original query text.
	Query string

	// Chunks holds the ranked hits.
	Chunks []ScoredChunk
}

// Empty reports whether the retrieval produced no hits. An empty
// result is a valid "no knowledge yet" state, not an error.
func (r RetrievalResult) Empty() bool {
	return len(r.Chunks) == 0
}

// ChunkIDs returns the ids of all retrieved chunks in rank order.
func (r RetrievalResult) ChunkIDs() []string {
	ids := make([]string, len(r.Chunks))
	for i, sc := range r.Chunks {
		ids[i] = sc.Chunk.ID
	}
	return ids
}

// Contains reports whether the result holds a chunk with the given id.
func (r RetrievalResult) Contains(chunkID string) bool {
	for _, sc := range r.Chunks {
		if sc.Chunk.ID == chunkID {
			return true
		}
	}
	return false
}
