// Package pptx extracts slide text from PowerPoint presentations.
package pptx

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/extractors/ooxml"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

var slidePart = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// Extractor handles PPTX presentations.
type Extractor struct{}

// New creates a new PPTX extractor.
func New() *Extractor {
	return &Extractor{}
}

// Formats returns the formats this extractor handles.
func (e *Extractor) Formats() []domain.Format {
	return []domain.Format{domain.FormatPPTX}
}

// Extract returns one segment per slide with text, in slide number order.
func (e *Extractor) Extract(ctx context.Context, doc *domain.RawDocument) ([]domain.Segment, error) {
	if doc == nil {
		return nil, domain.ErrInvalidArgument
	}

	rc, err := ooxml.Open(doc.Path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	type slide struct {
		number int
		name   string
	}
	var slides []slide
	for _, f := range rc.File {
		m := slidePart.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		slides = append(slides, slide{number: n, name: f.Name})
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].number < slides[j].number })

	title := ooxml.CoreTitle(&rc.Reader)
	segments := make([]domain.Segment, 0, len(slides))
	for _, s := range slides {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		content, err := ooxml.ReadPart(&rc.Reader, s.name)
		if err != nil {
			return nil, err
		}
		text, err := slideText(content)
		if err != nil {
			return nil, fmt.Errorf("pptx: slide %d: %w: %w", s.number, domain.ErrExtractionFailed, err)
		}
		if text == "" {
			continue
		}

		meta := map[string]any{
			domain.MetaPageNumber:  s.number,
			domain.MetaElementType: domain.ElementNarrativeText,
		}
		if title != "" {
			meta[domain.MetaTitle] = title
		}
		segments = append(segments, domain.Segment{Content: text, Metadata: meta})
	}
	return segments, nil
}

// slideText joins a:t runs, one line per a:p paragraph.
func slideText(content []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(content))

	var (
		lines  []string
		line   strings.Builder
		inText bool
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				line.Reset()
			case "t":
				inText = true
			case "br":
				line.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "p":
				if s := strings.TrimSpace(line.String()); s != "" {
					lines = append(lines, s)
				}
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText {
				line.Write(t)
			}
		}
	}

	return strings.Join(lines, "\n"), nil
}
