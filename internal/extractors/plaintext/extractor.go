// Package plaintext extracts UTF-8 text files as a single segment.
package plaintext

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles plain text documents.
type Extractor struct{}

// New creates a new plain text extractor.
func New() *Extractor {
	return &Extractor{}
}

// Formats returns the formats this extractor handles.
func (e *Extractor) Formats() []domain.Format {
	return []domain.Format{domain.FormatText}
}

// Extract reads the whole file as one segment. Whitespace-only files yield nothing.
func (e *Extractor) Extract(_ context.Context, doc *domain.RawDocument) ([]domain.Segment, error) {
	if doc == nil {
		return nil, domain.ErrInvalidArgument
	}

	data, err := os.ReadFile(doc.Path)
	if err != nil {
		return nil, fmt.Errorf("plaintext: %w: %w", domain.ErrExtractionFailed, err)
	}

	content := Normalise(string(data))
	if content == "" {
		return nil, nil
	}

	return []domain.Segment{{
		Content: content,
		Metadata: map[string]any{
			domain.MetaTitle:       titleFromFilename(doc.Filename),
			domain.MetaElementType: domain.ElementNarrativeText,
		},
	}}, nil
}

// Normalise strips a byte order mark, repairs invalid UTF-8, converts
// CRLF and CR line endings to LF and trims surrounding whitespace.
func Normalise(s string) string {
	s = strings.TrimPrefix(s, "\uFEFF")
	s = strings.ToValidUTF8(s, "\uFFFD")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.TrimSpace(s)
}

// titleFromFilename derives a human-readable title from a filename.
func titleFromFilename(name string) string {
	name = filepath.Base(name)
	if ext := filepath.Ext(name); ext != "" {
		name = strings.TrimSuffix(name, ext)
	}
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.ReplaceAll(name, "-", " ")
	return name
}
