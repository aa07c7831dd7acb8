// Package chunker splits extracted segments into bounded, overlapping chunks.
//
// The splitter is recursive: it splits on the highest-priority separator that
// occurs in the text, keeps each separator at the start of the piece that
// follows it, merges pieces greedily up to the chunk size and recurses with
// the remaining separators into any piece that is still too long. Lengths are
// measured in characters (runes), not bytes.
package chunker

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// DefaultSeparators are tried in order. The empty separator splits into characters.
var DefaultSeparators = []string{"\n\n", "\n", ".", "!", "?", ",", " ", ""}

// Ensure Splitter implements the interface.
var _ driven.Splitter = (*Splitter)(nil)

// Splitter is a recursive character text splitter.
type Splitter struct {
	chunkSize  int
	overlap    int
	separators []string
}

// Option configures the splitter.
type Option func(*Splitter)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(s *Splitter) {
		s.chunkSize = size
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(s *Splitter) {
		s.overlap = overlap
	}
}

// WithSeparators replaces the separator priority list. The character
// separator "" is appended when the list does not end with it, so no chunk
// can outgrow the chunk size.
func WithSeparators(separators ...string) Option {
	return func(s *Splitter) {
		s.separators = separators
	}
}

// New creates a splitter. It returns ErrInvalidArgument when the size is not
// positive, the overlap is negative, or the overlap is not smaller than the size.
func New(opts ...Option) (*Splitter, error) {
	s := &Splitter{
		chunkSize:  DefaultChunkSize,
		overlap:    DefaultChunkOverlap,
		separators: DefaultSeparators,
	}
	for _, opt := range opts {
		opt(s)
	}

	switch {
	case s.chunkSize <= 0:
		return nil, fmt.Errorf("%w: chunk size %d must be positive", domain.ErrInvalidArgument, s.chunkSize)
	case s.overlap < 0:
		return nil, fmt.Errorf("%w: overlap %d must not be negative", domain.ErrInvalidArgument, s.overlap)
	case s.overlap >= s.chunkSize:
		return nil, fmt.Errorf("%w: overlap %d must be smaller than chunk size %d",
			domain.ErrInvalidArgument, s.overlap, s.chunkSize)
	case len(s.separators) == 0:
		return nil, fmt.Errorf("%w: no separators", domain.ErrInvalidArgument)
	}
	if s.separators[len(s.separators)-1] != "" {
		s.separators = append(s.separators[:len(s.separators):len(s.separators)], "")
	}
	return s, nil
}

// ChunkSize returns the configured chunk size.
func (s *Splitter) ChunkSize() int { return s.chunkSize }

// Overlap returns the configured overlap.
func (s *Splitter) Overlap() int { return s.overlap }

// Split chunks each segment independently. Each chunk's metadata is a copy of
// its segment's metadata plus chunk_id and chunk_total.
func (s *Splitter) Split(segments []domain.Segment) []domain.Chunk {
	var chunks []domain.Chunk
	for _, seg := range segments {
		texts := s.SplitText(seg.Content)
		for i, text := range texts {
			meta := domain.CopyMetadata(seg.Metadata)
			meta[domain.MetaChunkID] = i
			meta[domain.MetaChunkTotal] = len(texts)
			chunks = append(chunks, domain.Chunk{Content: text, Metadata: meta})
		}
	}
	return chunks
}

// SplitText splits text into whitespace-trimmed chunks of at most ChunkSize
// characters. Whitespace-only text yields no chunks.
func (s *Splitter) SplitText(text string) []string {
	return s.split(text, s.separators)
}

func (s *Splitter) split(text string, separators []string) []string {
	separator := separators[len(separators)-1]
	var rest []string
	for i, sep := range separators {
		if sep == "" {
			separator = sep
			break
		}
		if strings.Contains(text, sep) {
			separator = sep
			rest = separators[i+1:]
			break
		}
	}

	var (
		final []string
		good  []string
	)
	for _, piece := range splitKeepingSeparator(text, separator) {
		if length(piece) < s.chunkSize {
			good = append(good, piece)
			continue
		}
		if len(good) > 0 {
			final = append(final, s.merge(good)...)
			good = nil
		}
		if len(rest) == 0 {
			final = append(final, piece)
		} else {
			final = append(final, s.split(piece, rest)...)
		}
	}
	if len(good) > 0 {
		final = append(final, s.merge(good)...)
	}
	return final
}

// merge joins pieces greedily up to the chunk size, carrying trailing pieces
// into the next chunk until no more than the overlap remains.
func (s *Splitter) merge(pieces []string) []string {
	var (
		docs    []string
		current []string
		total   int
	)
	for _, piece := range pieces {
		n := length(piece)
		if total+n > s.chunkSize && len(current) > 0 {
			if doc, ok := join(current); ok {
				docs = append(docs, doc)
			}
			for total > s.overlap || (total+n > s.chunkSize && total > 0) {
				total -= length(current[0])
				current = current[1:]
			}
		}
		current = append(current, piece)
		total += n
	}
	if doc, ok := join(current); ok {
		docs = append(docs, doc)
	}
	return docs
}

// splitKeepingSeparator splits text on sep, prefixing every piece after the
// first with the separator. Empty pieces are dropped.
func splitKeepingSeparator(text, sep string) []string {
	if sep == "" {
		pieces := make([]string, 0, len(text))
		for _, r := range text {
			pieces = append(pieces, string(r))
		}
		return pieces
	}

	parts := strings.Split(text, sep)
	pieces := make([]string, 0, len(parts))
	if parts[0] != "" {
		pieces = append(pieces, parts[0])
	}
	for _, p := range parts[1:] {
		pieces = append(pieces, sep+p)
	}
	return pieces
}

func join(pieces []string) (string, bool) {
	text := strings.TrimSpace(strings.Join(pieces, ""))
	return text, text != ""
}

func length(s string) int {
	return utf8.RuneCountInString(s)
}
