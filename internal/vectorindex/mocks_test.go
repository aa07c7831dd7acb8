package vectorindex

import (
	"context"
	"strconv"
	"sync/atomic"
)

// oneHotEmbedder maps the text "N" to the unit vector along axis N.
// Any other text maps to the all-ones vector.
type oneHotEmbedder struct {
	dims     int
	model    string
	wrongLen bool
	err      error
	calls    atomic.Int32
}

func (e *oneHotEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (e *oneHotEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	e.calls.Add(1)
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		n := e.dims
		if e.wrongLen {
			n++
		}
		vec := make([]float32, n)
		if axis, err := strconv.Atoi(text); err == nil && axis < n {
			vec[axis] = 1
		} else {
			for j := range vec {
				vec[j] = 1
			}
		}
		out[i] = vec
	}
	return out, nil
}

func (e *oneHotEmbedder) Dimensions() int {
	return e.dims
}

func (e *oneHotEmbedder) ModelName() string {
	return e.model
}

func (e *oneHotEmbedder) Ping(context.Context) error {
	return nil
}

func (e *oneHotEmbedder) Close() error {
	return nil
}
