package domain

import (
	"fmt"
	"strings"
	"time"
)

// Format identifies the file format of an ingested document.
type Format string

// Supported document formats. Anything else is rejected at the
// ingestion boundary with ErrUnsupportedFormat.
const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatXLSX Format = "xlsx"
	FormatXLSM Format = "xlsm"
	FormatXLS  Format = "xls"
	FormatTXT  Format = "txt"
)

// ParseFormat maps a file extension (with or without leading dot)
// to a Format.
func ParseFormat(ext string) (Format, error) {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	switch Format(ext) {
	case FormatPDF, FormatDOCX, FormatXLSX, FormatXLSM, FormatXLS, FormatTXT:
		return Format(ext), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// ExtractionStatus records which extraction path produced a
// document's text.
type ExtractionStatus string

const (
	// ExtractionDigital means the embedded machine-readable text was used.
	ExtractionDigital ExtractionStatus = "digital"

	// ExtractionOCR means optical recognition over rendered pages was
	// used because the direct path yielded no usable text.
	ExtractionOCR ExtractionStatus = "ocr"

	// ExtractionFailed means neither path yielded usable text.
	ExtractionFailed ExtractionStatus = "failed"
)

// Document represents a source file submitted for indexing.
// It is immutable once extracted and retained only as the origin
// of its chunks.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Name is the original file name, used in citations and reports.
	Name string

	// Format is the detected file format.
	Format Format

	// Content is the raw file bytes as supplied by the ingestion
	// collaborator.
	Content []byte

	// Status records the extraction outcome.
	Status ExtractionStatus

	// CreatedAt is when the document was ingested.
	CreatedAt time.Time
}

// Chunk is the atomic retrieval unit: a bounded, structurally
// aligned span of document text.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the originating Document (non-owning).
	DocumentID string

	// DocumentName is carried for citation display.
	DocumentName string

	// Text is the chunk content. Never empty, never longer than the
	// configured maximum chunk size.
	Text string

	// StructuralPath identifies the administrative unit the chunk
	// came from, e.g. "§ 12 Abs. 2" or "17.". Empty when the
	// sliding-window fallback produced the chunk.
	StructuralPath string

	// SequenceIndex is the chunk's position within its document,
	// strictly increasing from 0. It is the deterministic tie-break
	// for equal fused scores.
	SequenceIndex int

	// OCRDerived marks text produced by the optical fallback path,
	// which carries lower confidence.
	OCRDerived bool
}

// Citation renders the chunk's provenance for answers and reports,
// e.g. "satzung.pdf (§ 12 Abs. 2)".
func (c Chunk) Citation() string {
	if c.StructuralPath == "" {
		return fmt.Sprintf("%s (chunk %d)", c.DocumentName, c.SequenceIndex)
	}
	return fmt.Sprintf("%s (%s)", c.DocumentName, c.StructuralPath)
}
