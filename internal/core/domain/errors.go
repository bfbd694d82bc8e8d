package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedFormat indicates a file format outside the
	// supported set. Rejected at the ingestion boundary, before the
	// core pipeline is invoked.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured. The dense index cannot be built or queried without it.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrLLMUnavailable indicates the language model service is not
	// configured. Retrieval still works; answer generation does not.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrGenerationTimeout indicates the external generation call
	// exceeded its deadline. Recoverable; the caller decides whether
	// to retry. Never retried internally.
	ErrGenerationTimeout = errors.New("generation timed out")

	// ErrGenerationFault indicates the external generation call
	// failed or returned output that could not be verified.
	ErrGenerationFault = errors.New("generation fault")

	// ErrIndexClosed indicates an operation on a closed index.
	ErrIndexClosed = errors.New("index closed")
)

// ExtractionError reports a document unreadable by both the direct
// and the optical path. Fatal for the document, non-fatal for the
// batch: builds collect these into the BuildReport.
type ExtractionError struct {
	// DocumentID identifies the failed document.
	DocumentID string

	// DocumentName is the original file name, for reporting.
	DocumentName string

	// Err is the underlying cause, if any.
	Err error
}

func (e *ExtractionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("extraction failed for document %s (%s)", e.DocumentID, e.DocumentName)
	}
	return fmt.Sprintf("extraction failed for document %s (%s): %v", e.DocumentID, e.DocumentName, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}
