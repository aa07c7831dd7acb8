// Package domain defines the core business entities for docrag.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - RawDocument: An uploaded file spooled to scratch storage
//   - Segment: Plain text extracted from a RawDocument with provenance
//   - Chunk: A bounded slice of a Segment, the unit that is embedded
//   - ScoredChunk: A Chunk returned by a similarity query
//   - Answer: The outcome of one retrieval-augmented question
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
