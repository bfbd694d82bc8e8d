package domain

import "time"

// BuildReport summarises one index build over a document set.
// Per-document failures are collected here rather than aborting
// the batch.
type BuildReport struct {
	// Documents is the number of documents that produced chunks.
	Documents int

	// Chunks is the total number of chunks indexed.
	Chunks int

	// OCRDocuments is the number of documents whose text came from
	// the optical fallback path.
	OCRDocuments int

	// Failures lists documents unreadable by both extraction paths.
	Failures []ExtractionError

	// Warnings lists non-fatal build anomalies, e.g. a document
	// whose extracted text produced zero chunks.
	Warnings []string

	// Started and Finished bound the build phase.
	Started  time.Time
	Finished time.Time
}

// Failed reports whether any document failed extraction entirely.
func (r BuildReport) Failed() bool {
	return len(r.Failures) > 0
}
