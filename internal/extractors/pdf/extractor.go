// Package pdf extracts embedded text from PDF documents.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"

	"github.com/munidoc-labs/amtsrag/internal/core/domain"
	"github.com/munidoc-labs/amtsrag/internal/core/ports/driven"
)

// Ensure Extractor implements the port.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor reads the machine-readable text layer of a PDF.
// Scanned PDFs have no text layer; the registry detects the empty
// result and falls back to OCR.
type Extractor struct{}

// New creates a new PDF extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedFormats returns the formats this extractor handles.
func (e *Extractor) SupportedFormats() []domain.Format {
	return []domain.Format{domain.FormatPDF}
}

// Extract reads text page by page and merges hard-wrapped lines so
// later structural splitting sees whole sentences.
func (e *Extractor) Extract(_ context.Context, doc *domain.Document) (string, error) {
	if doc == nil {
		return "", domain.ErrInvalidInput
	}

	reader, err := pdf.NewReader(bytes.NewReader(doc.Content), int64(len(doc.Content)))
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single broken page must not sink the document.
			continue
		}

		if merged := mergeLines(text); merged != "" {
			pages = append(pages, merged)
		}
	}

	return strings.Join(pages, "\n"), nil
}

// mergeLines joins continuation lines with the line they belong to.
// A line starting with a lower-case letter is assumed to continue
// the previous sentence; statutes wrap paragraphs hard at the page
// margin.
func mergeLines(text string) string {
	var merged []string
	var buffer string

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if buffer != "" && startsLower(line) {
			buffer += " " + line
			continue
		}

		if buffer != "" {
			merged = append(merged, buffer)
		}
		buffer = line
	}
	if buffer != "" {
		merged = append(merged, buffer)
	}

	return strings.Join(merged, "\n")
}

func startsLower(line string) bool {
	for _, r := range line {
		return unicode.IsLower(r)
	}
	return false
}
