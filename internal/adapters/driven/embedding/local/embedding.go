// Package local provides a deterministic in-process embedding service.
//
// Vectors are built by feature hashing: lower-cased word tokens and adjacent
// word pairs are hashed into a fixed number of buckets with a sign bit, term
// counts are damped with 1+ln(tf), and the result is L2-normalized. No model
// download or network access is needed, which makes it the default provider
// and the one used throughout the test suite.
package local

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"strings"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}]+(?:['’][\p{L}]+)*`)

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {}, "but": {}, "if": {}, "of": {},
	"to": {}, "in": {}, "on": {}, "at": {}, "by": {}, "for": {}, "with": {}, "as": {},
	"is": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {}, "it": {}, "this": {},
	"that": {}, "these": {}, "those": {}, "from": {}, "into": {}, "so": {}, "than": {},
}

// EmbeddingService hashes text into fixed-size vectors.
type EmbeddingService struct {
	model      string
	dimensions int
}

// Option configures an EmbeddingService.
type Option func(*EmbeddingService)

// WithDimensions sets the number of hash buckets.
func WithDimensions(n int) Option {
	return func(s *EmbeddingService) {
		if n > 0 {
			s.dimensions = n
		}
	}
}

// WithModelName overrides the reported model name.
func WithModelName(name string) Option {
	return func(s *EmbeddingService) {
		if name != "" {
			s.model = name
		}
	}
}

// NewEmbeddingService creates a hashing embedder.
func NewEmbeddingService(opts ...Option) *EmbeddingService {
	s := &EmbeddingService{
		model:      domain.DefaultLocalModel,
		dimensions: domain.DefaultLocalDimensions,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Embed returns the hashed vector for text. Text without tokens yields a zero vector.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vec := make([]float64, s.dimensions)
	for feature, count := range s.features(text) {
		idx, sign := s.bucket(feature)
		vec[idx] += sign * (1 + math.Log(float64(count)))
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)

	out := make([]float32, s.dimensions)
	if norm == 0 {
		return out, nil
	}
	for i, v := range vec {
		out[i] = float32(v / norm)
	}
	return out, nil
}

// EmbedBatch embeds each text in order.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := s.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the configured model name.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping always succeeds.
func (s *EmbeddingService) Ping(context.Context) error {
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}

// features counts unigrams and bigrams of the non-stopword tokens.
func (s *EmbeddingService) features(text string) map[string]int {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	tokens := raw[:0]
	for _, t := range raw {
		if _, stop := stopwords[t]; !stop {
			tokens = append(tokens, t)
		}
	}

	counts := make(map[string]int, len(tokens)*2)
	for i, tok := range tokens {
		counts[tok]++
		if i > 0 {
			counts[tokens[i-1]+" "+tok]++
		}
	}
	return counts
}

func (s *EmbeddingService) bucket(feature string) (int, float64) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()
	sign := 1.0
	if sum>>63 == 1 {
		sign = -1.0
	}
	return int(sum % uint64(s.dimensions)), sign
}
