// Package xlsx extracts worksheets from Excel workbooks.
package xlsx

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles XLSX workbooks.
type Extractor struct{}

// New creates a new XLSX extractor.
func New() *Extractor {
	return &Extractor{}
}

// Formats returns the formats this extractor handles.
func (e *Extractor) Formats() []domain.Format {
	return []domain.Format{domain.FormatXLSX}
}

// Extract returns one segment per non-empty sheet. Cells are tab-joined,
// rows newline-joined.
func (e *Extractor) Extract(ctx context.Context, doc *domain.RawDocument) ([]domain.Segment, error) {
	if doc == nil {
		return nil, domain.ErrInvalidArgument
	}

	wb, err := excelize.OpenFile(doc.Path)
	if err != nil {
		return nil, fmt.Errorf("xlsx: open: %w: %w", domain.ErrExtractionFailed, err)
	}
	defer wb.Close()

	var segments []domain.Segment
	for i, sheet := range wb.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rows, err := wb.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("xlsx: sheet %q: %w: %w", sheet, domain.ErrExtractionFailed, err)
		}

		text := renderSheet(rows)
		if text == "" {
			continue
		}
		segments = append(segments, domain.Segment{
			Content: text,
			Metadata: map[string]any{
				domain.MetaSheetName:   sheet,
				domain.MetaPageNumber:  i + 1,
				domain.MetaElementType: domain.ElementTable,
			},
		})
	}
	return segments, nil
}

func renderSheet(rows [][]string) string {
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		line := strings.TrimRight(strings.Join(row, "\t"), " \t")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
