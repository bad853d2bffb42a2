package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotImplemented indicates functionality is not available in this build.
	ErrNotImplemented = errors.New("not implemented")

	// ErrUnsupportedType indicates an unknown document format.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Chunking and index construction cannot run without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// External tool errors. Both degrade a single cascade branch and are never
	// fatal for a document.

	// ErrToolNotFound indicates an external executable could not be located.
	ErrToolNotFound = errors.New("external tool not found")

	// ErrToolTimeout indicates an external executable exceeded its time budget.
	ErrToolTimeout = errors.New("external tool timed out")

	// Document errors. Both cause the document to be skipped.

	// ErrDecode indicates the document bytes could not be parsed as its format.
	ErrDecode = errors.New("document decode failed")

	// ErrInsufficientText indicates extraction produced no usable text.
	ErrInsufficientText = errors.New("insufficient text")

	// Build errors.

	// ErrCheckpointMismatch indicates persisted artifacts disagree in cardinality.
	// This is the only fatal error of a build: continuing would desynchronise
	// passages from their vectors.
	ErrCheckpointMismatch = errors.New("checkpoint consistency failure")

	// ErrIndexLocked indicates another build holds the output directory lock.
	ErrIndexLocked = errors.New("output directory locked by another build")
)
