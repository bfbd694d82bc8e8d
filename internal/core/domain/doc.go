// Package domain defines the core business entities for Amtsrag.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: A source file submitted for indexing
//   - Chunk: The atomic retrieval unit produced by segmentation
//   - RetrievalResult: A ranked, fused list of chunk hits for one query
//   - Answer: Generated text grounded on cited chunks
//   - BuildReport: The outcome of an index build over a document set
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
