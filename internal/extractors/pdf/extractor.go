// Package pdf extracts text from PDF documents, one segment per page.
package pdf

import (
	"context"
	"fmt"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/extractors/plaintext"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles PDF documents.
type Extractor struct{}

// New creates a new PDF extractor.
func New() *Extractor {
	return &Extractor{}
}

// Formats returns the formats this extractor handles.
func (e *Extractor) Formats() []domain.Format {
	return []domain.Format{domain.FormatPDF}
}

// Extract returns one segment per page with text. Empty pages are skipped
// but page numbers always refer to the physical page.
func (e *Extractor) Extract(ctx context.Context, doc *domain.RawDocument) ([]domain.Segment, error) {
	if doc == nil {
		return nil, domain.ErrInvalidArgument
	}

	f, reader, err := pdf.Open(doc.Path)
	if err != nil {
		if f != nil {
			f.Close()
		}
		return nil, fmt.Errorf("pdf: open: %w: %w", domain.ErrExtractionFailed, err)
	}
	defer f.Close()

	total := reader.NumPage()
	segments := make([]domain.Segment, 0, total)
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("pdf: page %d: %w: %w", i, domain.ErrExtractionFailed, err)
		}

		text = plaintext.Normalise(text)
		if text == "" {
			continue
		}

		segments = append(segments, domain.Segment{
			Content: text,
			Metadata: map[string]any{
				domain.MetaPageNumber:  i,
				domain.MetaElementType: domain.ElementNarrativeText,
			},
		})
	}

	return segments, nil
}
