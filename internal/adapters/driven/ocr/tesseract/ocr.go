// Package tesseract provides an OCR service adapter that shells out
// to the tesseract binary, rendering PDF pages to images with
// pdftoppm first. Both tools are widely packaged; the adapter fails
// with a descriptive error when they are missing so the registry can
// surface the document as an extraction failure.
package tesseract

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/munidoc-labs/amtsrag/internal/core/domain"
	"github.com/munidoc-labs/amtsrag/internal/core/ports/driven"
	"github.com/munidoc-labs/amtsrag/internal/logger"
)

// Ensure Service implements the port.
var _ driven.OCRService = (*Service)(nil)

// Default binary names, resolved via PATH.
const (
	DefaultTesseract = "tesseract"
	DefaultPdftoppm  = "pdftoppm"
	DefaultLanguages = "deu+eng"
)

// Config holds OCR configuration.
type Config struct {
	// TesseractPath overrides the tesseract binary location.
	TesseractPath string

	// PdftoppmPath overrides the pdftoppm binary location.
	PdftoppmPath string

	// Languages is the tesseract language spec, e.g. "deu+eng".
	Languages string

	// RenderDPI is the page render resolution for PDFs.
	RenderDPI int
}

// Service recognises text from rendered document pages.
type Service struct {
	tesseract string
	pdftoppm  string
	languages string
	dpi       int
}

// New creates a new OCR service.
func New(cfg Config) *Service {
	if cfg.TesseractPath == "" {
		cfg.TesseractPath = DefaultTesseract
	}
	if cfg.PdftoppmPath == "" {
		cfg.PdftoppmPath = DefaultPdftoppm
	}
	if cfg.Languages == "" {
		cfg.Languages = DefaultLanguages
	}
	if cfg.RenderDPI == 0 {
		cfg.RenderDPI = 300
	}

	return &Service{
		tesseract: cfg.TesseractPath,
		pdftoppm:  cfg.PdftoppmPath,
		languages: cfg.Languages,
		dpi:       cfg.RenderDPI,
	}
}

// Recognize runs optical recognition over the document.
func (s *Service) Recognize(ctx context.Context, doc *domain.Document) (string, error) {
	if doc == nil {
		return "", domain.ErrInvalidInput
	}

	workDir, err := os.MkdirTemp("", "amtsrag-ocr-*")
	if err != nil {
		return "", fmt.Errorf("creating OCR work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	input := filepath.Join(workDir, "input."+string(doc.Format))
	if err := os.WriteFile(input, doc.Content, 0o600); err != nil {
		return "", fmt.Errorf("writing OCR input: %w", err)
	}

	if doc.Format == domain.FormatPDF {
		return s.recognizePDF(ctx, workDir, input)
	}
	return s.runTesseract(ctx, input)
}

// recognizePDF renders each page to an image and recognises them in
// page order.
func (s *Service) recognizePDF(ctx context.Context, workDir, input string) (string, error) {
	prefix := filepath.Join(workDir, "page")

	cmd := exec.CommandContext(ctx, s.pdftoppm, "-r", fmt.Sprint(s.dpi), "-png", input, prefix)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("rendering pdf pages: %w: %s", err, strings.TrimSpace(string(out)))
	}

	pages, err := filepath.Glob(prefix + "*.png")
	if err != nil {
		return "", fmt.Errorf("listing rendered pages: %w", err)
	}
	sort.Strings(pages)

	logger.Debug("OCR: %d rendered pages", len(pages))

	var texts []string
	for _, page := range pages {
		text, err := s.runTesseract(ctx, page)
		if err != nil {
			return "", err
		}
		if text = strings.TrimSpace(text); text != "" {
			texts = append(texts, text)
		}
	}

	return strings.Join(texts, "\n"), nil
}

// runTesseract recognises a single file to stdout.
func (s *Service) runTesseract(ctx context.Context, input string) (string, error) {
	cmd := exec.CommandContext(ctx, s.tesseract, input, "stdout", "-l", s.languages)

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("tesseract: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	return stdout.String(), nil
}
