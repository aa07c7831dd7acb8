// Package xml extracts the character data of leaf elements from XML documents.
package xml

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles XML documents.
type Extractor struct{}

// New creates a new XML extractor.
func New() *Extractor {
	return &Extractor{}
}

// Formats returns the formats this extractor handles.
func (e *Extractor) Formats() []domain.Format {
	return []domain.Format{domain.FormatXML}
}

type element struct {
	text     strings.Builder
	hasChild bool
}

// Extract returns a single segment with one line per non-empty leaf element.
func (e *Extractor) Extract(_ context.Context, doc *domain.RawDocument) ([]domain.Segment, error) {
	if doc == nil {
		return nil, domain.ErrInvalidArgument
	}

	f, err := os.Open(doc.Path)
	if err != nil {
		return nil, fmt.Errorf("xml: %w: %w", domain.ErrExtractionFailed, err)
	}
	defer f.Close()

	dec := xml.NewDecoder(f)
	dec.Strict = false
	dec.Entity = xml.HTMLEntity

	var (
		stack []*element
		lines []string
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("xml: %w: %w", domain.ErrExtractionFailed, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if n := len(stack); n > 0 {
				stack[n-1].hasChild = true
			}
			stack = append(stack, &element{})
		case xml.EndElement:
			n := len(stack)
			if n == 0 {
				continue
			}
			top := stack[n-1]
			stack = stack[:n-1]
			if top.hasChild {
				continue
			}
			if text := strings.Join(strings.Fields(top.text.String()), " "); text != "" {
				lines = append(lines, text)
			}
		case xml.CharData:
			if n := len(stack); n > 0 {
				stack[n-1].text.Write(t)
			}
		}
	}

	if len(lines) == 0 {
		return nil, nil
	}
	return []domain.Segment{{
		Content:  strings.Join(lines, "\n"),
		Metadata: map[string]any{domain.MetaElementType: domain.ElementNarrativeText},
	}}, nil
}
