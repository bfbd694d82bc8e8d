// Package segmenter splits extracted text into retrieval chunks
// aligned to the structure of administrative prose.
//
// Splitting is layered: structural markers (numbered paragraphs such
// as "§ 12 Abs. 2", decimal section headings, "Artikel n") are tried
// first; when the text carries no plausible structure the segmenter
// falls back to fixed-size sliding windows with overlap so semantic
// units are not severed at hard boundaries. Structural units longer
// than the maximum chunk size are themselves window-split, never
// truncated.
package segmenter

import (
	"context"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/munidoc-labs/amtsrag/internal/core/domain"
	"github.com/munidoc-labs/amtsrag/internal/core/ports/driven"
)

// Ensure Segmenter implements the port.
var _ driven.Segmenter = (*Segmenter)(nil)

// DefaultMaxChunkSize is the default chunk bound in runes.
const DefaultMaxChunkSize = 1200

// DefaultOverlap is the default window overlap in runes.
const DefaultOverlap = 200

// Structural markers of German administrative documents. A marker
// only counts at the start of a line so inline references ("gemäß
// § 4") do not split a unit.
var (
	markerPattern = regexp.MustCompile(`(?m)^[ \t]*(§\s?\d+[a-zA-Z]?(?:\s*Abs\.\s*\d+)?|\d{1,3}\.\s+\p{Lu}|Artikel\s+\d+)`)
	pathPattern   = regexp.MustCompile(`^(§\s?\d+[a-zA-Z]?(?:\s*Abs\.\s*\d+)?|\d{1,3}\.|Artikel\s+\d+)`)
)

// Segmenter produces chunks from extracted text.
type Segmenter struct {
	maxChunkSize int
	overlap      int
}

// Option configures the segmenter.
type Option func(*Segmenter)

// WithMaxChunkSize sets the chunk bound in runes.
func WithMaxChunkSize(size int) Option {
	return func(s *Segmenter) {
		if size > 0 {
			s.maxChunkSize = size
		}
	}
}

// WithOverlap sets the sliding-window overlap in runes.
func WithOverlap(overlap int) Option {
	return func(s *Segmenter) {
		if overlap >= 0 {
			s.overlap = overlap
		}
	}
}

// New creates a segmenter with the given options.
func New(opts ...Option) *Segmenter {
	s := &Segmenter{
		maxChunkSize: DefaultMaxChunkSize,
		overlap:      DefaultOverlap,
	}

	for _, opt := range opts {
		opt(s)
	}

	// Overlap must leave room for the window to advance.
	if s.overlap >= s.maxChunkSize {
		s.overlap = s.maxChunkSize / 4
	}

	return s
}

// Segment splits text into chunks. Identical input yields an
// identical chunk set (texts, structural paths, sequence order);
// only the generated ids differ between runs.
func (s *Segmenter) Segment(_ context.Context, text string, doc *domain.Document) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, domain.ErrInvalidInput
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	units := s.structuralUnits(text)

	// No plausible structure: a single unit spanning the whole text
	// means the markers did not partition anything.
	if len(units) < 2 {
		units = []unit{{text: text, path: ""}}
	}

	var chunks []domain.Chunk
	seq := 0

	for _, u := range units {
		for _, piece := range s.windowSplit(u.text) {
			chunks = append(chunks, domain.Chunk{
				ID:             uuid.New().String(),
				DocumentID:     doc.ID,
				DocumentName:   doc.Name,
				Text:           piece,
				StructuralPath: u.path,
				SequenceIndex:  seq,
				OCRDerived:     doc.Status == domain.ExtractionOCR,
			})
			seq++
		}
	}

	return chunks, nil
}

// unit is one structural span of the document.
type unit struct {
	text string
	path string
}

// structuralUnits splits the text before each structural marker and
// attaches the marker as the unit's structural path.
func (s *Segmenter) structuralUnits(text string) []unit {
	locs := markerPattern.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}

	var units []unit

	// Preamble before the first marker belongs to no unit path.
	if head := strings.TrimSpace(text[:locs[0][0]]); head != "" {
		units = append(units, unit{text: head, path: ""})
	}

	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}

		body := strings.TrimSpace(text[loc[0]:end])
		if body == "" {
			continue
		}

		units = append(units, unit{text: body, path: structuralPath(body)})
	}

	return units
}

// structuralPath extracts the normalised marker from a unit's start,
// e.g. "§ 12 Abs. 2", "17." or "Artikel 3".
func structuralPath(body string) string {
	m := pathPattern.FindString(body)
	if m == "" {
		return ""
	}

	path := strings.Join(strings.Fields(m), " ")
	// Normalise "§12" to "§ 12".
	if strings.HasPrefix(path, "§") && !strings.HasPrefix(path, "§ ") {
		path = "§ " + strings.TrimSpace(strings.TrimPrefix(path, "§"))
	}
	return path
}

// windowSplit cuts text into pieces of at most maxChunkSize runes.
// Pieces beyond the first start overlap runes before the previous
// piece's end, so no boundary severs more context than the overlap
// recovers. Tail content past the bound is always split, never
// dropped.
func (s *Segmenter) windowSplit(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= s.maxChunkSize {
		return []string{text}
	}

	step := s.maxChunkSize - s.overlap
	pieces := make([]string, 0, len(runes)/step+1)

	for start := 0; start < len(runes); start += step {
		end := start + s.maxChunkSize
		if end > len(runes) {
			end = len(runes)
		}

		pieces = append(pieces, string(runes[start:end]))

		if end == len(runes) {
			break
		}
	}

	return pieces
}
