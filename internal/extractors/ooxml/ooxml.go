// Package ooxml reads parts of Office Open XML packages (docx, pptx).
package ooxml

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// ErrPartNotFound indicates the package has no part with the requested name.
var ErrPartNotFound = errors.New("ooxml: part not found")

// maxPartSize bounds a single decompressed part.
const maxPartSize = 64 << 20

// Open opens the package at path.
func Open(path string) (*zip.ReadCloser, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("ooxml: %w: %w", domain.ErrExtractionFailed, err)
	}
	return rc, nil
}

// ReadPart returns the decompressed content of the named part.
func ReadPart(r *zip.Reader, name string) ([]byte, error) {
	for _, file := range r.File {
		if file.Name != name {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("ooxml: open %s: %w: %w", name, domain.ErrExtractionFailed, err)
		}
		defer rc.Close()

		content, err := io.ReadAll(io.LimitReader(rc, maxPartSize))
		if err != nil {
			return nil, fmt.Errorf("ooxml: read %s: %w: %w", name, domain.ErrExtractionFailed, err)
		}
		return content, nil
	}
	return nil, ErrPartNotFound
}

// coreXML represents the structure of docProps/core.xml.
type coreXML struct {
	Title string `xml:"title"`
}

// CoreTitle returns the title from docProps/core.xml, or "" if absent.
func CoreTitle(r *zip.Reader) string {
	content, err := ReadPart(r, "docProps/core.xml")
	if err != nil {
		return ""
	}

	var core coreXML
	if err := xml.Unmarshal(content, &core); err != nil {
		return ""
	}
	return strings.TrimSpace(core.Title)
}
