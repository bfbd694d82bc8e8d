package extractors

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/munidoc-labs/amtsrag/internal/core/domain"
	"github.com/munidoc-labs/amtsrag/internal/core/ports/driven"
	"github.com/munidoc-labs/amtsrag/internal/logger"
)

// Ensure Registry implements the port.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// DefaultMinDirectChars is the trust threshold for the direct path.
// Below this the text is treated as non-extractable (scanned pages
// typically yield nothing or stray artifacts) and the optical
// fallback runs.
const DefaultMinDirectChars = 64

// Registry dispatches documents to format extractors and applies
// the OCR fallback.
type Registry struct {
	extractors     map[domain.Format]driven.Extractor
	ocr            driven.OCRService
	minDirectChars int
}

// Option configures the registry.
type Option func(*Registry)

// WithOCR sets the optical fallback service. Without it, documents
// failing the direct path fail extraction outright.
func WithOCR(ocr driven.OCRService) Option {
	return func(r *Registry) {
		r.ocr = ocr
	}
}

// WithMinDirectChars overrides the direct-path trust threshold.
func WithMinDirectChars(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.minDirectChars = n
		}
	}
}

// NewRegistry creates a registry over the given extractors.
func NewRegistry(extractors []driven.Extractor, opts ...Option) (*Registry, error) {
	r := &Registry{
		extractors:     make(map[domain.Format]driven.Extractor),
		minDirectChars: DefaultMinDirectChars,
	}

	for _, e := range extractors {
		for _, f := range e.SupportedFormats() {
			if _, ok := r.extractors[f]; ok {
				return nil, fmt.Errorf("extractor already registered for format %s", f)
			}
			r.extractors[f] = e
		}
	}

	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

// Extract returns the document text and the path that produced it.
// It mutates no shared state.
func (r *Registry) Extract(ctx context.Context, doc *domain.Document) (string, domain.ExtractionStatus, error) {
	if doc == nil {
		return "", domain.ExtractionFailed, domain.ErrInvalidInput
	}

	ext, ok := r.extractors[doc.Format]
	if !ok {
		return "", domain.ExtractionFailed, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, doc.Format)
	}

	text, directErr := ext.Extract(ctx, doc)
	if directErr == nil && r.usable(text) {
		return text, domain.ExtractionDigital, nil
	}

	if directErr != nil {
		logger.Warn("Direct extraction failed for %s: %v", doc.Name, directErr)
	} else {
		logger.Info("Direct extraction yielded %d chars for %s, below threshold %d; trying OCR",
			utf8.RuneCountInString(text), doc.Name, r.minDirectChars)
	}

	if r.ocr == nil {
		return "", domain.ExtractionFailed, &domain.ExtractionError{
			DocumentID:   doc.ID,
			DocumentName: doc.Name,
			Err:          directErr,
		}
	}

	ocrText, ocrErr := r.ocr.Recognize(ctx, doc)
	if ocrErr == nil && r.usable(ocrText) {
		logger.Info("OCR produced %d chars for %s", utf8.RuneCountInString(ocrText), doc.Name)
		return ocrText, domain.ExtractionOCR, nil
	}

	err := directErr
	if err == nil {
		err = ocrErr
	}
	return "", domain.ExtractionFailed, &domain.ExtractionError{
		DocumentID:   doc.ID,
		DocumentName: doc.Name,
		Err:          err,
	}
}

// usable reports whether extracted text meets the trust threshold.
func (r *Registry) usable(text string) bool {
	count := 0
	for _, c := range text {
		if c != ' ' && c != '\n' && c != '\t' && c != '\r' {
			count++
		}
		if count >= r.minDirectChars {
			return true
		}
	}
	return false
}
