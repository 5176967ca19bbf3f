// Package domain defines the core business entities for Sahay.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: the loaded PM-KISAN source document, page by page
//   - Chunk: a bounded span of page text used for embedding and retrieval
//   - Interaction: one question/answer exchange, as recorded in the log
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
package domain
