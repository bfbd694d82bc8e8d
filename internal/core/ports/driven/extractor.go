package driven

import (
	"context"

	"github.com/munidoc-labs/amtsrag/internal/core/domain"
)

// Extractor converts a raw document into plain text.
// Each extractor handles specific formats; the registry picks the
// right one and applies the optical fallback when the direct path
// yields no usable text.
type Extractor interface {
	// SupportedFormats returns the formats this extractor handles.
	SupportedFormats() []domain.Format

	// Extract reads the machine-readable text of the document.
	// It has no side effects beyond returning text.
	Extract(ctx context.Context, doc *domain.Document) (string, error)
}

// OCRService recognises text from rendered page images. It is the
// lower-confidence fallback for scanned documents.
type OCRService interface {
	// Recognize runs optical recognition over the document's pages
	// and returns the recognised text.
	Recognize(ctx context.Context, doc *domain.Document) (string, error)
}

// ExtractorRegistry resolves a document to extracted text, falling
// back to OCR when direct extraction yields too little.
type ExtractorRegistry interface {
	// Extract returns the document text and the extraction status
	// (digital or ocr). If both paths yield no usable text it
	// returns a *domain.ExtractionError carrying the document id.
	Extract(ctx context.Context, doc *domain.Document) (string, domain.ExtractionStatus, error)
}
