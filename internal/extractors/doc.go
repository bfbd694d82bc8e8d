// Package extractors converts raw document bytes into plain text.
//
// Each format has its own extractor subpackage (pdf, docx, xlsx,
// plaintext). The Registry dispatches on document format and applies
// the optical fallback: when the direct path yields fewer characters
// than the configured threshold, the document is treated as scanned
// and handed to the OCR service. A document unreadable by both paths
// is an ingestion-time failure carrying the document id. It is
// never silently skipped, because a document contributing zero
// chunks would otherwise be indistinguishable from "no relevant
// content" at query time.
package extractors
