package driven

import (
	"context"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// VectorIndex is an exact cosine-similarity index over embedded chunks.
type VectorIndex interface {
	// Query returns at most k chunks ordered by non-increasing score.
	// Ties keep insertion order. Returns ErrInvalidArgument for k <= 0
	// or a vector of the wrong dimensionality.
	Query(vector []float32, k int) ([]domain.ScoredChunk, error)

	// Save persists the index atomically under path.
	Save(ctx context.Context, path string) error

	// Model returns the embedding model the index was built with.
	Model() string

	// Dimensions returns the vector size.
	Dimensions() int

	// Len returns the number of records.
	Len() int
}

// IndexStore builds and loads vector indexes.
type IndexStore interface {
	// Build embeds chunks and returns an in-memory index.
	// Returns ErrEmptyInput when chunks is empty.
	Build(ctx context.Context, chunks []domain.Chunk) (VectorIndex, error)

	// Load reads a persisted index. Returns ErrIndexNotFound when nothing
	// exists at path and ErrCorruptIndex when it cannot be used.
	Load(ctx context.Context, path string) (VectorIndex, error)
}

// RecordStore persists the chunk records of an index alongside its vectors.
type RecordStore interface {
	// WriteRecords writes chunks in order to a new database at path.
	WriteRecords(ctx context.Context, path string, chunks []domain.Chunk) error

	// ReadRecords returns the chunks stored at path in insertion order.
	ReadRecords(ctx context.Context, path string) ([]domain.Chunk, error)
}
