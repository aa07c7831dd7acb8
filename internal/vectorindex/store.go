// Package vectorindex builds, persists and loads exact cosine-similarity
// indexes over embedded chunks.
//
// A persisted index is a directory holding three files:
//
//	manifest.toml  format version, model, dimensions, record count
//	vectors.bin    count*dimensions little-endian float32 values
//	records.db     SQLite table of chunk content and metadata, id = row
//
// Directories are written beside their final path and renamed into place,
// so readers see either the previous index or the new one.
package vectorindex

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

// Default configuration values.
const (
	DefaultBatchSize = domain.DefaultEmbeddingBatchSize
	DefaultWorkers   = domain.DefaultEmbeddingWorkers
)

// ErrDimensionMismatch is returned when the embedding service produces a
// vector whose length disagrees with its declared dimensions.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

var _ driven.IndexStore = (*Store)(nil)

// Store builds and loads indexes for one embedding service.
type Store struct {
	embedder  driven.EmbeddingService
	records   driven.RecordStore
	batchSize int
	workers   int
	limiter   *rate.Limiter
}

// Option configures a Store.
type Option func(*Store)

// WithBatchSize sets how many chunks are embedded per request.
func WithBatchSize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithWorkers sets how many embedding requests run concurrently.
func WithWorkers(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithRateLimit caps embedding requests per second. Zero or less means unlimited.
func WithRateLimit(perSecond float64) Option {
	return func(s *Store) {
		if perSecond > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		} else {
			s.limiter = nil
		}
	}
}

// NewStore creates a Store. records persists chunk content next to the vectors.
func NewStore(embedder driven.EmbeddingService, records driven.RecordStore, opts ...Option) *Store {
	s := &Store{
		embedder:  embedder,
		records:   records,
		batchSize: DefaultBatchSize,
		workers:   DefaultWorkers,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Build embeds chunks and returns an in-memory index in chunk order.
func (s *Store) Build(ctx context.Context, chunks []domain.Chunk) (driven.VectorIndex, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("vectorindex: %w: no chunks to index", domain.ErrEmptyInput)
	}

	dims := s.embedder.Dimensions()
	vectors := make([][]float32, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for start := 0; start < len(chunks); start += s.batchSize {
		end := min(start+s.batchSize, len(chunks))
		g.Go(func() error {
			if s.limiter != nil {
				if err := s.limiter.Wait(gctx); err != nil {
					return err
				}
			}
			return s.embedBatch(gctx, chunks[start:end], vectors[start:end], dims)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("vectorindex: embedding chunks: %w", err)
	}

	return &Index{
		model:   s.embedder.ModelName(),
		dims:    dims,
		chunks:  chunks,
		vectors: vectors,
		records: s.records,
	}, nil
}

// embedBatch fills out with the normalised embeddings of batch.
func (s *Store) embedBatch(ctx context.Context, batch []domain.Chunk, out [][]float32, dims int) error {
	texts := make([]string, len(batch))
	for i, c := range batch {
		texts[i] = c.Content
	}

	embeddings, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return err
	}
	if len(embeddings) != len(texts) {
		return fmt.Errorf("embedding service returned %d vectors for %d texts", len(embeddings), len(texts))
	}

	for i, vec := range embeddings {
		if len(vec) != dims {
			return fmt.Errorf("%w: got %d, %s declares %d",
				ErrDimensionMismatch, len(vec), s.embedder.ModelName(), dims)
		}
		out[i] = normalize(vec)
	}
	return nil
}
