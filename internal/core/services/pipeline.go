package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/munidoc-labs/amtsrag/internal/core/domain"
	"github.com/munidoc-labs/amtsrag/internal/core/ports/driven"
	"github.com/munidoc-labs/amtsrag/internal/core/ports/driving"
	"github.com/munidoc-labs/amtsrag/internal/logger"
)

// Ensure DocumentPipeline implements the port.
var _ driving.Pipeline = (*DocumentPipeline)(nil)

// DocumentPipeline sequences extraction, segmentation, embedding and
// indexing at build time, and retrieval plus generation at query
// time. It owns no business rules of its own beyond orchestration.
type DocumentPipeline struct {
	registry  driven.ExtractorRegistry
	segmenter driven.Segmenter
	embedder  driven.EmbeddingService
	dense     driven.DenseIndex
	sparse    driven.SparseIndex
	store     driven.ChunkStore
	retriever driving.Retriever
	generator driving.Generator

	buildWorkers int
}

// PipelineOption configures a DocumentPipeline.
type PipelineOption func(*DocumentPipeline)

// WithBuildWorkers bounds parallel per-document extraction and
// segmentation during index builds.
func WithBuildWorkers(n int) PipelineOption {
	return func(p *DocumentPipeline) {
		if n > 0 {
			p.buildWorkers = n
		}
	}
}

// NewDocumentPipeline wires the pipeline from its collaborators.
func NewDocumentPipeline(
	registry driven.ExtractorRegistry,
	segmenter driven.Segmenter,
	embedder driven.EmbeddingService,
	dense driven.DenseIndex,
	sparse driven.SparseIndex,
	store driven.ChunkStore,
	retriever driving.Retriever,
	generator driving.Generator,
	opts ...PipelineOption,
) *DocumentPipeline {
	p := &DocumentPipeline{
		registry:     registry,
		segmenter:    segmenter,
		embedder:     embedder,
		dense:        dense,
		sparse:       sparse,
		store:        store,
		retriever:    retriever,
		generator:    generator,
		buildWorkers: 4,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// docResult is the per-document outcome of the parallel build phase.
type docResult struct {
	doc    *domain.Document
	chunks []domain.Chunk
	err    *domain.ExtractionError
}

// BuildIndex extracts, segments, embeds and indexes the documents.
// Extraction and segmentation run in parallel per document; index
// and store writes are serialized afterwards so the indexes never
// see interleaved partial documents. Per-document failures are
// collected into the report rather than aborting the batch.
func (p *DocumentPipeline) BuildIndex(ctx context.Context, docs []*domain.Document) (*domain.BuildReport, error) {
	report := &domain.BuildReport{Started: time.Now()}
	defer func() { report.Finished = time.Now() }()

	if len(docs) == 0 {
		return report, nil
	}

	logger.Section("build")
	logger.Info("indexing %d documents with %d workers", len(docs), p.buildWorkers)

	results := make([]docResult, len(docs))

	var g errgroup.Group
	g.SetLimit(p.buildWorkers)
	for i, doc := range docs {
		g.Go(func() error {
			results[i] = p.processDocument(ctx, doc)
			return ctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return report, fmt.Errorf("build cancelled: %w", err)
	}

	for _, res := range results {
		if res.err != nil {
			report.Failures = append(report.Failures, *res.err)
			continue
		}
		if len(res.chunks) == 0 {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("document %s (%s) produced no chunks", res.doc.ID, res.doc.Name))
			continue
		}

		if err := p.indexDocument(ctx, res.doc, res.chunks); err != nil {
			return report, fmt.Errorf("indexing document %s: %w", res.doc.Name, err)
		}

		report.Documents++
		report.Chunks += len(res.chunks)
		if res.doc.Status == domain.ExtractionOCR {
			report.OCRDocuments++
		}
	}

	logger.Info("build done: %d documents, %d chunks, %d via OCR, %d failures",
		report.Documents, report.Chunks, report.OCRDocuments, len(report.Failures))

	return report, nil
}

// processDocument runs the failure-isolated part of the build:
// extraction with fallback, then segmentation.
func (p *DocumentPipeline) processDocument(ctx context.Context, doc *domain.Document) docResult {
	text, status, err := p.registry.Extract(ctx, doc)
	if err != nil {
		var extErr *domain.ExtractionError
		if !errors.As(err, &extErr) {
			extErr = &domain.ExtractionError{
				DocumentID:   doc.ID,
				DocumentName: doc.Name,
				Err:          err,
			}
		}
		doc.Status = domain.ExtractionFailed
		logger.Warn("extraction failed for %s: %v", doc.Name, err)
		return docResult{doc: doc, err: extErr}
	}
	doc.Status = status

	chunks, err := p.segmenter.Segment(ctx, text, doc)
	if err != nil {
		return docResult{doc: doc, err: &domain.ExtractionError{
			DocumentID:   doc.ID,
			DocumentName: doc.Name,
			Err:          fmt.Errorf("segmenting: %w", err),
		}}
	}

	logger.Debug("document %s: %d chunks (%s)", doc.Name, len(chunks), status)
	return docResult{doc: doc, chunks: chunks}
}

// indexDocument embeds a document's chunks and writes them to the
// store and both indexes.
func (p *DocumentPipeline) indexDocument(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) error {
	var embeddings [][]float32

	if p.embedder != nil {
		texts := make([]string, len(chunks))
		for i, c := range chunks {
			texts[i] = c.Text
		}

		var err error
		embeddings, err = p.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("embedding chunks: %w", err)
		}
		if len(embeddings) != len(chunks) {
			return fmt.Errorf("embedding count mismatch: got %d for %d chunks", len(embeddings), len(chunks))
		}
	}

	if err := p.store.SaveDocument(ctx, doc); err != nil {
		return err
	}
	if err := p.store.SaveChunks(ctx, chunks, embeddings); err != nil {
		return err
	}

	for i, chunk := range chunks {
		if embeddings != nil {
			if err := p.dense.Add(ctx, chunk.ID, embeddings[i]); err != nil {
				return fmt.Errorf("adding to dense index: %w", err)
			}
		}
		if err := p.sparse.Add(ctx, chunk.ID, chunk.Text); err != nil {
			return fmt.Errorf("adding to sparse index: %w", err)
		}
	}

	return nil
}

// Load restores the in-memory indexes from the store without
// recomputing embeddings.
func (p *DocumentPipeline) Load(ctx context.Context) error {
	chunks, embeddings, err := p.store.ListChunks(ctx)
	if err != nil {
		return fmt.Errorf("loading chunks: %w", err)
	}

	for i, chunk := range chunks {
		if len(embeddings[i]) > 0 {
			if err := p.dense.Add(ctx, chunk.ID, embeddings[i]); err != nil {
				return fmt.Errorf("restoring dense index: %w", err)
			}
		}
		if err := p.sparse.Add(ctx, chunk.ID, chunk.Text); err != nil {
			return fmt.Errorf("restoring sparse index: %w", err)
		}
	}

	logger.Debug("restored %d chunks into indexes", len(chunks))
	return nil
}

// Ask retrieves evidence for the query and generates a grounded
// answer over the top k chunks.
func (p *DocumentPipeline) Ask(ctx context.Context, query string, k int) (*domain.Answer, error) {
	result, err := p.retriever.Retrieve(ctx, query, k)
	if err != nil {
		return nil, fmt.Errorf("retrieving: %w", err)
	}

	answer, err := p.generator.Generate(ctx, query, result)
	if err != nil {
		return nil, err
	}
	return answer, nil
}

// Status reports the number of indexed documents and chunks.
func (p *DocumentPipeline) Status(ctx context.Context) (int, int, error) {
	return p.store.Counts(ctx)
}

// Close releases all pipeline resources, collecting the first error.
func (p *DocumentPipeline) Close() error {
	var once sync.Once
	var first error
	record := func(err error) {
		if err != nil {
			once.Do(func() { first = err })
		}
	}

	record(p.dense.Close())
	record(p.sparse.Close())
	record(p.store.Close())
	if p.embedder != nil {
		record(p.embedder.Close())
	}
	return first
}
