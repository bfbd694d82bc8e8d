// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports).
//
// The core services depend on these interfaces, never on concrete
// adapters. External capabilities (embedding, text generation, OCR)
// are consumed through single-purpose ports so the retrieval and
// generation core can be tested with deterministic stand-ins.
package driven
