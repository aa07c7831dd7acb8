package vectorindex

import (
	"fmt"
	"math"
	"sort"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

var _ driven.VectorIndex = (*Index)(nil)

// Index is an exact cosine index. Vectors are unit length so cosine
// similarity is a dot product. An Index is read-only once built and safe
// for concurrent queries.
type Index struct {
	model   string
	dims    int
	chunks  []domain.Chunk
	vectors [][]float32
	records driven.RecordStore
}

// Model returns the embedding model the index was built with.
func (idx *Index) Model() string { return idx.model }

// Dimensions returns the vector size.
func (idx *Index) Dimensions() int { return idx.dims }

// Len returns the number of records.
func (idx *Index) Len() int { return len(idx.chunks) }

// Query returns the k chunks most similar to vector.
func (idx *Index) Query(vector []float32, k int) ([]domain.ScoredChunk, error) {
	if k <= 0 {
		return nil, fmt.Errorf("vectorindex: %w: k must be positive, got %d", domain.ErrInvalidArgument, k)
	}
	if len(vector) != idx.dims {
		return nil, fmt.Errorf("vectorindex: %w: query has %d dimensions, index has %d",
			domain.ErrInvalidArgument, len(vector), idx.dims)
	}

	q := normalize(vector)

	type hit struct {
		pos   int
		score float64
	}
	hits := make([]hit, len(idx.vectors))
	for i, v := range idx.vectors {
		hits[i] = hit{pos: i, score: dot(q, v)}
	}
	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].score > hits[b].score
	})

	if k > len(hits) {
		k = len(hits)
	}
	results := make([]domain.ScoredChunk, k)
	for i := 0; i < k; i++ {
		results[i] = domain.ScoredChunk{
			Chunk: idx.chunks[hits[i].pos],
			Score: hits[i].score,
			Rank:  i + 1,
		}
	}
	return results, nil
}

// normalize returns a unit-length copy of v. The zero vector is returned as is.
func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	out := make([]float32, len(v))
	if sum == 0 {
		copy(out, v)
		return out
	}
	norm := math.Sqrt(sum)
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
