package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidArgument indicates malformed or invalid caller input,
	// such as an empty question or a non-positive result count.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotImplemented indicates functionality is not yet available.
	ErrNotImplemented = errors.New("not implemented")

	// Ingestion Errors.

	// ErrUnsupportedFormat indicates no extractor handles the detected format.
	// Recovered locally: the file is skipped and the skip is logged.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrExtractionFailed indicates a file could not be parsed by its extractor.
	// Recovered locally: the file yields no segments.
	ErrExtractionFailed = errors.New("extraction failed")

	// ErrEmptyInput indicates an index build was attempted with no chunks.
	ErrEmptyInput = errors.New("empty input")

	// Index Errors.

	// ErrIndexNotFound indicates no persisted index exists at the requested path.
	ErrIndexNotFound = errors.New("index not found")

	// ErrCorruptIndex indicates a persisted index cannot be used: unreadable,
	// written by an incompatible layout version, or built with a different
	// embedding dimensionality.
	ErrCorruptIndex = errors.New("corrupt index")

	// ErrModelMismatch indicates the question would be embedded with a different
	// model than the one the index was built with. Never retried.
	ErrModelMismatch = errors.New("embedding model mismatch")

	// Service Errors.

	// ErrGenerationFailed indicates the answer-generation service failed.
	// The underlying cause is always wrapped alongside it.
	ErrGenerationFailed = errors.New("generation service failure")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Questions cannot be answered without it.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrStorageUnavailable indicates no durable blob store is configured.
	ErrStorageUnavailable = errors.New("blob storage unavailable")
)

// IsNotReady reports whether err means there is nothing to retrieve yet
// and the caller should (re-)index the file.
func IsNotReady(err error) bool {
	return errors.Is(err, ErrIndexNotFound) || errors.Is(err, ErrCorruptIndex)
}

// IsCallerError reports whether err was caused by the caller's input.
func IsCallerError(err error) bool {
	return errors.Is(err, ErrInvalidArgument) || errors.Is(err, ErrEmptyInput)
}
