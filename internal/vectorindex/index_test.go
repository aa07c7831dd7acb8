package vectorindex

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

func buildOneHot(t *testing.T, texts ...string) *Index {
	t.Helper()
	store := NewStore(&oneHotEmbedder{dims: 4, model: "one-hot"}, nil)
	idx, err := store.Build(context.Background(), textChunks(texts...))
	require.NoError(t, err)
	return idx.(*Index)
}

func TestIndex_QueryInvalid(t *testing.T) {
	idx := buildOneHot(t, "0", "1")

	_, err := idx.Query([]float32{1, 0, 0, 0}, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = idx.Query([]float32{1, 0, 0, 0}, -3)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = idx.Query([]float32{1, 0}, 1)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestIndex_QueryOrderingAndLimit(t *testing.T) {
	// "x" embeds as all-ones, scoring 0.5 against every axis query.
	idx := buildOneHot(t, "0", "x", "1", "2")

	hits, err := idx.Query([]float32{3, 0, 0, 0}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 4)

	assert.Equal(t, "0", hits[0].Chunk.Content)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
	assert.Equal(t, "x", hits[1].Chunk.Content)
	assert.InDelta(t, 0.5, hits[1].Score, 1e-6)
	for i := 1; i < len(hits); i++ {
		assert.GreaterOrEqual(t, hits[i-1].Score, hits[i].Score)
		assert.Equal(t, i+1, hits[i].Rank)
	}

	hits, err = idx.Query([]float32{0, 0, 1, 0}, 2)
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestIndex_TiesKeepInsertionOrder(t *testing.T) {
	idx := buildOneHot(t, "a", "b", "c")

	hits, err := idx.Query([]float32{1, 1, 1, 1}, 3)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, "a", hits[0].Chunk.Content)
	assert.Equal(t, "b", hits[1].Chunk.Content)
	assert.Equal(t, "c", hits[2].Chunk.Content)
}

func TestNormalize(t *testing.T) {
	v := normalize([]float32{3, 4})
	assert.InDelta(t, 0.6, v[0], 1e-6)
	assert.InDelta(t, 0.8, v[1], 1e-6)

	zero := normalize([]float32{0, 0, 0})
	assert.Equal(t, []float32{0, 0, 0}, zero)

	var sum float64
	for _, x := range normalize([]float32{1, 2, 3, 4, 5}) {
		sum += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-6)
}
