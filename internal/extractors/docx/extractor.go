// Package docx extracts paragraphs from Word documents.
package docx

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/extractors/ooxml"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

const documentPart = "word/document.xml"

// Extractor handles DOCX documents.
type Extractor struct{}

// New creates a new DOCX extractor.
func New() *Extractor {
	return &Extractor{}
}

// Formats returns the formats this extractor handles.
func (e *Extractor) Formats() []domain.Format {
	return []domain.Format{domain.FormatDOCX}
}

// Extract returns one segment per non-empty paragraph, including paragraphs
// inside tables, in document order.
func (e *Extractor) Extract(_ context.Context, doc *domain.RawDocument) ([]domain.Segment, error) {
	if doc == nil {
		return nil, domain.ErrInvalidArgument
	}

	rc, err := ooxml.Open(doc.Path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	content, err := ooxml.ReadPart(&rc.Reader, documentPart)
	if errors.Is(err, ooxml.ErrPartNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	paragraphs, err := parseParagraphs(content)
	if err != nil {
		return nil, fmt.Errorf("docx: %w: %w", domain.ErrExtractionFailed, err)
	}

	title := ooxml.CoreTitle(&rc.Reader)
	segments := make([]domain.Segment, 0, len(paragraphs))
	for _, p := range paragraphs {
		meta := map[string]any{
			domain.MetaElementType: p.elementType(),
		}
		if title != "" {
			meta[domain.MetaTitle] = title
		}
		segments = append(segments, domain.Segment{Content: p.text, Metadata: meta})
	}
	return segments, nil
}

type paragraph struct {
	text  string
	style string
	list  bool
}

func (p paragraph) elementType() string {
	style := strings.ToLower(p.style)
	switch {
	case strings.HasPrefix(style, "heading"), style == "title", style == "subtitle":
		return domain.ElementTitle
	case p.list, strings.Contains(style, "list"):
		return domain.ElementListItem
	default:
		return domain.ElementNarrativeText
	}
}

// parseParagraphs streams word/document.xml collecting w:p text runs.
func parseParagraphs(content []byte) ([]paragraph, error) {
	dec := xml.NewDecoder(bytes.NewReader(content))

	var (
		paragraphs []paragraph
		text       strings.Builder
		style      string
		list       bool
		depth      int
		inRun      bool
		inText     bool
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				depth++
				if depth == 1 {
					text.Reset()
					style, list = "", false
				}
			case "pStyle":
				style = attrValue(t, "val")
			case "numPr":
				list = true
			case "r":
				inRun = true
			case "t":
				inText = inRun
			case "tab":
				if inRun {
					text.WriteByte('\t')
				}
			case "br", "cr":
				if inRun {
					text.WriteByte('\n')
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "p":
				depth--
				if depth == 0 {
					if s := strings.TrimSpace(text.String()); s != "" {
						paragraphs = append(paragraphs, paragraph{text: s, style: style, list: list})
					}
				}
			case "r":
				inRun = false
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText && depth > 0 {
				text.Write(t)
			}
		}
	}

	return paragraphs, nil
}

func attrValue(el xml.StartElement, local string) string {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}
