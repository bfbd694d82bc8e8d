// Package driving provides interfaces for entry-point adapters
// (primary/inbound ports). The CLI and any future request-handling
// collaborator consume these; they never reach into services
// directly.
package driving
