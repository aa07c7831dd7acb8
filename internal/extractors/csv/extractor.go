// Package csv extracts one segment per data row of a CSV file.
package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles CSV documents. The first record is the header.
type Extractor struct {
	comma rune
}

// New creates a new CSV extractor.
func New() *Extractor {
	return &Extractor{comma: ','}
}

// Formats returns the formats this extractor handles.
func (e *Extractor) Formats() []domain.Format {
	return []domain.Format{domain.FormatCSV}
}

// Extract renders each data row as "header: value" lines.
func (e *Extractor) Extract(ctx context.Context, doc *domain.RawDocument) ([]domain.Segment, error) {
	if doc == nil {
		return nil, domain.ErrInvalidArgument
	}

	f, err := os.Open(doc.Path)
	if err != nil {
		return nil, fmt.Errorf("csv: %w: %w", domain.ErrExtractionFailed, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = e.comma
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.ReuseRecord = false

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("csv: header: %w: %w", domain.ErrExtractionFailed, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var segments []domain.Segment
	for row := 1; ; row++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: row %d: %w: %w", row, domain.ErrExtractionFailed, err)
		}

		text := renderRow(header, record)
		if text == "" {
			continue
		}
		segments = append(segments, domain.Segment{
			Content: text,
			Metadata: map[string]any{
				domain.MetaRowNumber:   row,
				domain.MetaElementType: domain.ElementTableRow,
			},
		})
	}
	return segments, nil
}

// renderRow pairs values with their column names, skipping empty cells.
func renderRow(header, record []string) string {
	var b strings.Builder
	for i, value := range record {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		name := ""
		if i < len(header) {
			name = header[i]
		}
		if name == "" {
			name = "column " + strconv.Itoa(i+1)
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(value)
	}
	return b.String()
}
