package services

import (
	"context"
	"fmt"

	"github.com/munidoc-labs/amtsrag/internal/core/domain"
	"github.com/munidoc-labs/amtsrag/internal/core/ports/driven"
)

// mockEmbedder returns a fixed vector for every input.
type mockEmbedder struct {
	vector []float32
	err    error
	calls  int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.vector, nil
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = m.vector
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int   { return len(m.vector) }
func (m *mockEmbedder) ModelName() string { return "mock-embedder" }
func (m *mockEmbedder) Close() error      { return nil }

// mockDenseIndex returns canned hits and records the requested k.
type mockDenseIndex struct {
	hits    []driven.DenseHit
	err     error
	length  int
	added   map[string][]float32
	lastK   int
	queried bool
}

func newMockDenseIndex() *mockDenseIndex {
	return &mockDenseIndex{added: make(map[string][]float32)}
}

func (m *mockDenseIndex) Add(_ context.Context, chunkID string, embedding []float32) error {
	m.added[chunkID] = embedding
	m.length++
	return nil
}

func (m *mockDenseIndex) Search(_ context.Context, _ []float32, k int) ([]driven.DenseHit, error) {
	m.queried = true
	m.lastK = k
	if m.err != nil {
		return nil, m.err
	}
	return m.hits, nil
}

func (m *mockDenseIndex) Len() int     { return m.length }
func (m *mockDenseIndex) Close() error { return nil }

// mockSparseIndex returns canned hits and records the requested k.
type mockSparseIndex struct {
	hits    []driven.SparseHit
	err     error
	length  int
	added   map[string]string
	lastK   int
	queried bool
}

func newMockSparseIndex() *mockSparseIndex {
	return &mockSparseIndex{added: make(map[string]string)}
}

func (m *mockSparseIndex) Add(_ context.Context, chunkID string, text string) error {
	m.added[chunkID] = text
	m.length++
	return nil
}

func (m *mockSparseIndex) Search(_ context.Context, _ string, k int) ([]driven.SparseHit, error) {
	m.queried = true
	m.lastK = k
	if m.err != nil {
		return nil, m.err
	}
	return m.hits, nil
}

func (m *mockSparseIndex) Len() int     { return m.length }
func (m *mockSparseIndex) Close() error { return nil }

// mockChunkStore keeps chunks in memory.
type mockChunkStore struct {
	chunks     map[string]domain.Chunk
	embeddings map[string][]float32
	documents  map[string]*domain.Document
	saveErr    error
}

func newMockChunkStore() *mockChunkStore {
	return &mockChunkStore{
		chunks:     make(map[string]domain.Chunk),
		embeddings: make(map[string][]float32),
		documents:  make(map[string]*domain.Document),
	}
}

func (m *mockChunkStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.documents[doc.ID] = doc
	return nil
}

func (m *mockChunkStore) SaveChunks(_ context.Context, chunks []domain.Chunk, embeddings [][]float32) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	for i, c := range chunks {
		m.chunks[c.ID] = c
		if len(embeddings) > i {
			m.embeddings[c.ID] = embeddings[i]
		}
	}
	return nil
}

func (m *mockChunkStore) GetChunk(_ context.Context, id string) (*domain.Chunk, error) {
	c, ok := m.chunks[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

func (m *mockChunkStore) ListChunks(_ context.Context) ([]domain.Chunk, [][]float32, error) {
	var chunks []domain.Chunk
	var embeddings [][]float32
	for _, c := range m.chunks {
		chunks = append(chunks, c)
		embeddings = append(embeddings, m.embeddings[c.ID])
	}
	return chunks, embeddings, nil
}

func (m *mockChunkStore) Counts(_ context.Context) (int, int, error) {
	return len(m.documents), len(m.chunks), nil
}

func (m *mockChunkStore) Reset(_ context.Context) error {
	m.chunks = make(map[string]domain.Chunk)
	m.embeddings = make(map[string][]float32)
	m.documents = make(map[string]*domain.Document)
	return nil
}

func (m *mockChunkStore) Close() error { return nil }

// put registers a chunk so GetChunk can resolve it.
func (m *mockChunkStore) put(c domain.Chunk) {
	m.chunks[c.ID] = c
}

// mockLLM returns a canned completion and records the request.
type mockLLM struct {
	response     string
	err          error
	calls        int
	lastMessages []driven.ChatMessage
	lastOpts     driven.CompleteOptions
}

func (m *mockLLM) Complete(_ context.Context, messages []driven.ChatMessage, opts driven.CompleteOptions) (string, error) {
	m.calls++
	m.lastMessages = messages
	m.lastOpts = opts
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func (m *mockLLM) ModelName() string { return "mock-llm" }
func (m *mockLLM) Close() error      { return nil }

// mockRegistry maps document ids to canned extraction outcomes.
type mockRegistry struct {
	texts    map[string]string
	statuses map[string]domain.ExtractionStatus
	failing  map[string]bool
}

func newMockRegistry() *mockRegistry {
	return &mockRegistry{
		texts:    make(map[string]string),
		statuses: make(map[string]domain.ExtractionStatus),
		failing:  make(map[string]bool),
	}
}

func (m *mockRegistry) Extract(_ context.Context, doc *domain.Document) (string, domain.ExtractionStatus, error) {
	if m.failing[doc.ID] {
		return "", domain.ExtractionFailed, &domain.ExtractionError{
			DocumentID:   doc.ID,
			DocumentName: doc.Name,
			Err:          fmt.Errorf("unreadable"),
		}
	}
	status, ok := m.statuses[doc.ID]
	if !ok {
		status = domain.ExtractionDigital
	}
	return m.texts[doc.ID], status, nil
}

// mockSegmenter produces one chunk per line of input.
type mockSegmenter struct{}

func (mockSegmenter) Segment(_ context.Context, text string, doc *domain.Document) ([]domain.Chunk, error) {
	if text == "" {
		return nil, nil
	}
	var chunks []domain.Chunk
	seq := 0
	for _, line := range splitLines(text) {
		chunks = append(chunks, domain.Chunk{
			ID:            fmt.Sprintf("%s-chunk-%d", doc.ID, seq),
			DocumentID:    doc.ID,
			DocumentName:  doc.Name,
			Text:          line,
			SequenceIndex: seq,
			OCRDerived:    doc.Status == domain.ExtractionOCR,
		})
		seq++
	}
	return chunks, nil
}

func splitLines(text string) []string {
	var lines []string
	start := 0
	for i := 0; i <= len(text); i++ {
		if i == len(text) || text[i] == '\n' {
			if i > start {
				lines = append(lines, text[start:i])
			}
			start = i + 1
		}
	}
	return lines
}
