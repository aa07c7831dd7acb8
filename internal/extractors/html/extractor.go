package html

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/extractors/plaintext"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

const (
	blockSelector   = "h1, h2, h3, h4, h5, h6, p, li, dt, dd, pre, blockquote, tr, figcaption"
	removedSelector = "script, style, noscript, template, svg"
)

// Extractor handles HTML documents.
type Extractor struct{}

// New creates a new HTML extractor.
func New() *Extractor {
	return &Extractor{}
}

// Formats returns the formats this extractor handles.
func (e *Extractor) Formats() []domain.Format {
	return []domain.Format{domain.FormatHTML}
}

// Extract returns one segment per outermost block element. A block nested
// inside another block is covered by its ancestor and skipped. Pages
// without block markup fall back to the body text.
func (e *Extractor) Extract(_ context.Context, doc *domain.RawDocument) ([]domain.Segment, error) {
	if doc == nil {
		return nil, domain.ErrInvalidArgument
	}

	f, err := os.Open(doc.Path)
	if err != nil {
		return nil, fmt.Errorf("html: %w: %w", domain.ErrExtractionFailed, err)
	}
	defer f.Close()

	page, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("html: parse: %w: %w", domain.ErrExtractionFailed, err)
	}

	title := collapse(page.Find("title").First().Text())
	page.Find(removedSelector).Remove()

	newSegment := func(text, elementType string) domain.Segment {
		meta := map[string]any{domain.MetaElementType: elementType}
		if title != "" {
			meta[domain.MetaTitle] = title
		}
		return domain.Segment{Content: text, Metadata: meta}
	}

	var segments []domain.Segment
	page.Find(blockSelector).Each(func(_ int, s *goquery.Selection) {
		if s.ParentsFiltered(blockSelector).Length() > 0 {
			return
		}
		if text := blockText(s); text != "" {
			segments = append(segments, newSegment(text, elementType(goquery.NodeName(s))))
		}
	})

	if len(segments) == 0 {
		if text := collapse(page.Find("body").Text()); text != "" {
			segments = append(segments, newSegment(text, domain.ElementNarrativeText))
		}
	}
	return segments, nil
}

func blockText(s *goquery.Selection) string {
	switch goquery.NodeName(s) {
	case "pre":
		return plaintext.Normalise(s.Text())
	case "tr":
		var cells []string
		s.Find("td, th").Each(func(_ int, c *goquery.Selection) {
			cells = append(cells, collapse(c.Text()))
		})
		return strings.TrimSpace(strings.Join(cells, "\t"))
	default:
		return collapse(s.Text())
	}
}

func elementType(tag string) string {
	switch tag {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		return domain.ElementTitle
	case "li", "dt", "dd":
		return domain.ElementListItem
	case "tr":
		return domain.ElementTableRow
	default:
		return domain.ElementNarrativeText
	}
}

// collapse joins whitespace-separated words with single spaces.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
