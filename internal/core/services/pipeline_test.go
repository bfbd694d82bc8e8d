package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/munidoc-labs/amtsrag/internal/core/domain"
	"github.com/munidoc-labs/amtsrag/internal/core/ports/driven"
)

func pipelineFixture() (*mockRegistry, *mockEmbedder, *mockDenseIndex, *mockSparseIndex, *mockChunkStore, *DocumentPipeline) {
	registry := newMockRegistry()
	embedder := &mockEmbedder{vector: []float32{1, 0}}
	dense := newMockDenseIndex()
	sparse := newMockSparseIndex()
	store := newMockChunkStore()

	retriever := NewHybridRetriever(embedder, dense, sparse, store)
	generator := NewAnswerGenerator(&mockLLM{response: "Antwort."})

	pipeline := NewDocumentPipeline(
		registry, mockSegmenter{}, embedder, dense, sparse, store, retriever, generator,
		WithBuildWorkers(2),
	)
	return registry, embedder, dense, sparse, store, pipeline
}

func buildDoc(id, name string) *domain.Document {
	return &domain.Document{ID: id, Name: name, Format: domain.FormatPDF}
}

func TestBuildIndexEmptyInput(t *testing.T) {
	_, _, _, _, _, pipeline := pipelineFixture()

	report, err := pipeline.BuildIndex(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, report.Documents)
	assert.False(t, report.Failed())
}

func TestBuildIndexCounts(t *testing.T) {
	registry, _, dense, sparse, store, pipeline := pipelineFixture()

	registry.texts["d1"] = "erste Zeile\nzweite Zeile"
	registry.texts["d2"] = "einzige Zeile"

	report, err := pipeline.BuildIndex(context.Background(), []*domain.Document{
		buildDoc("d1", "satzung.pdf"),
		buildDoc("d2", "protokoll.pdf"),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, report.Documents)
	assert.Equal(t, 3, report.Chunks)
	assert.Zero(t, report.OCRDocuments)
	assert.False(t, report.Failed())

	// Every chunk landed in the store and both indexes.
	assert.Len(t, store.chunks, 3)
	assert.Equal(t, 3, dense.Len())
	assert.Equal(t, 3, sparse.Len())
	assert.Len(t, store.documents, 2)
}

func TestBuildIndexCollectsFailures(t *testing.T) {
	registry, _, _, _, _, pipeline := pipelineFixture()

	registry.texts["good"] = "lesbarer Text"
	registry.failing["bad"] = true

	report, err := pipeline.BuildIndex(context.Background(), []*domain.Document{
		buildDoc("good", "satzung.pdf"),
		buildDoc("bad", "scan.pdf"),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Documents)
	assert.True(t, report.Failed())
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "bad", report.Failures[0].DocumentID)
	assert.Equal(t, "scan.pdf", report.Failures[0].DocumentName)
}

func TestBuildIndexWarnsOnChunklessDocument(t *testing.T) {
	registry, _, _, _, _, pipeline := pipelineFixture()

	registry.texts["empty"] = ""

	report, err := pipeline.BuildIndex(context.Background(), []*domain.Document{
		buildDoc("empty", "leer.pdf"),
	})
	require.NoError(t, err)

	assert.Zero(t, report.Documents)
	assert.False(t, report.Failed())
	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "leer.pdf")
}

func TestBuildIndexCountsOCRDocuments(t *testing.T) {
	registry, _, _, _, _, pipeline := pipelineFixture()

	registry.texts["scan"] = "erkannter Text"
	registry.statuses["scan"] = domain.ExtractionOCR

	report, err := pipeline.BuildIndex(context.Background(), []*domain.Document{
		buildDoc("scan", "scan.pdf"),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, report.OCRDocuments)

	// Chunks of OCR documents carry the flag.
	for _, c := range report.Failures {
		t.Fatalf("unexpected failure: %v", c)
	}
}

func TestBuildIndexWithoutEmbedder(t *testing.T) {
	registry := newMockRegistry()
	dense := newMockDenseIndex()
	sparse := newMockSparseIndex()
	store := newMockChunkStore()

	retriever := NewHybridRetriever(nil, dense, sparse, store)
	generator := NewAnswerGenerator(&mockLLM{response: "Antwort."})
	pipeline := NewDocumentPipeline(registry, mockSegmenter{}, nil, dense, sparse, store, retriever, generator)

	registry.texts["d1"] = "nur lexikalisch"

	report, err := pipeline.BuildIndex(context.Background(), []*domain.Document{buildDoc("d1", "a.txt")})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Chunks)
	assert.Zero(t, dense.Len())
	assert.Equal(t, 1, sparse.Len())
}

func TestLoadRestoresIndexes(t *testing.T) {
	_, _, dense, sparse, store, pipeline := pipelineFixture()

	store.chunks["c1"] = domain.Chunk{ID: "c1", Text: "Text eins"}
	store.embeddings["c1"] = []float32{1, 0}
	store.chunks["c2"] = domain.Chunk{ID: "c2", Text: "Text zwei"}
	store.embeddings["c2"] = []float32{0, 1}

	require.NoError(t, pipeline.Load(context.Background()))

	assert.Equal(t, 2, dense.Len())
	assert.Equal(t, 2, sparse.Len())
	assert.Equal(t, []float32{1, 0}, dense.added["c1"])
	assert.Equal(t, "Text zwei", sparse.added["c2"])
}

func TestLoadSkipsDenseForMissingEmbeddings(t *testing.T) {
	_, _, dense, sparse, store, pipeline := pipelineFixture()

	store.chunks["c1"] = domain.Chunk{ID: "c1", Text: "ohne Vektor"}

	require.NoError(t, pipeline.Load(context.Background()))

	assert.Zero(t, dense.Len())
	assert.Equal(t, 1, sparse.Len())
}

func TestAskDelegates(t *testing.T) {
	_, _, _, sparse, store, pipeline := pipelineFixture()

	store.put(domain.Chunk{ID: "chunk-00-hit", Text: "Die Gebühr beträgt zehn Euro."})
	sparse.length = 1
	sparse.hits = []driven.SparseHit{{ChunkID: "chunk-00-hit", Score: 4.0}}

	answer, err := pipeline.Ask(context.Background(), "Was kostet das?", 3)
	require.NoError(t, err)
	require.NotNil(t, answer)
	assert.NotEmpty(t, answer.Text)
}

func TestAskEmptyIndexRefuses(t *testing.T) {
	_, _, _, _, _, pipeline := pipelineFixture()

	answer, err := pipeline.Ask(context.Background(), "Was kostet das?", 3)
	require.NoError(t, err)
	assert.True(t, answer.Refusal)
}

func TestStatus(t *testing.T) {
	registry, _, _, _, _, pipeline := pipelineFixture()

	registry.texts["d1"] = "eine Zeile"
	_, err := pipeline.BuildIndex(context.Background(), []*domain.Document{buildDoc("d1", "a.pdf")})
	require.NoError(t, err)

	documents, chunks, err := pipeline.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, documents)
	assert.Equal(t, 1, chunks)
}
