// Package domain defines the core business entities for rag-plants.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - RawDocument: A file discovered in the input directory
//   - Document: Extracted text plus bibliographic metadata
//   - Page: A transient page of a scanned format (PDF, DjVu)
//   - Passage: A semantically coherent span of a document, the unit indexed
//   - Checkpoint: The corpus-level intermediate artifacts of a build
//   - IndexPlan: The similarity index topology chosen for a corpus
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
