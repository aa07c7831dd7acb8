package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunk_Accessors(t *testing.T) {
	chunk := Chunk{
		Content: "hello",
		Metadata: map[string]any{
			MetaSource:     "notes.txt",
			MetaFileType:   "text",
			MetaChunkID:    1,
			MetaChunkTotal: int64(3),
		},
	}

	assert.Equal(t, "notes.txt", chunk.Source())
	assert.Equal(t, 1, chunk.ChunkID())
	assert.Equal(t, 3, chunk.ChunkTotal())
}

func TestChunk_AccessorsMissing(t *testing.T) {
	chunk := Chunk{Content: "hello"}

	assert.Equal(t, "", chunk.Source())
	assert.Equal(t, -1, chunk.ChunkID())
	assert.Equal(t, -1, chunk.ChunkTotal())
}

func TestChunk_ChunkIDFromFloat(t *testing.T) {
	chunk := Chunk{Metadata: map[string]any{MetaChunkID: float64(2)}}
	assert.Equal(t, 2, chunk.ChunkID())
}

func TestCopyMetadata(t *testing.T) {
	t.Run("copies entries", func(t *testing.T) {
		src := map[string]any{"a": 1, "b": "two"}
		dst := CopyMetadata(src)

		assert.Equal(t, src, dst)
		dst["c"] = 3
		assert.NotContains(t, src, "c")
	})

	t.Run("nil source yields empty map", func(t *testing.T) {
		dst := CopyMetadata(nil)
		assert.NotNil(t, dst)
		assert.Empty(t, dst)
	})
}
