// Package sniffer determines the true format of an uploaded file.
//
// Content decides first. Binary containers (pdf, docx, pptx, xlsx) are
// recognised by signature. Text content is classified into the text family
// (text, csv, html, xml), where a textual file extension refines the result.
// The extension is used on its own only when content is inconclusive: empty
// input, a generic zip container, or unrecognised binary.
package sniffer

import (
	"fmt"
	"os"

	"github.com/gabriel-vasile/mimetype"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

// Ensure Sniffer implements the interface.
var _ driven.FormatDetector = (*Sniffer)(nil)

// Signature MIME types for conclusive formats.
const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimePPTX = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	mimeHTML = "text/html"
	mimeXML  = "text/xml"
	mimeCSV  = "text/csv"
	mimeText = "text/plain"
	mimeZip  = "application/zip"
	mimeBin  = "application/octet-stream"
)

var binarySignatures = []struct {
	mime   string
	format domain.Format
}{
	{mimePDF, domain.FormatPDF},
	{mimeDOCX, domain.FormatDOCX},
	{mimePPTX, domain.FormatPPTX},
	{mimeXLSX, domain.FormatXLSX},
}

// Sniffer detects formats using content signatures.
type Sniffer struct{}

// New creates a new Sniffer.
func New() *Sniffer {
	return &Sniffer{}
}

// Detect classifies data, using filename only as a fallback or text refinement.
func (s *Sniffer) Detect(data []byte, filename string) domain.Format {
	if len(data) == 0 {
		return domain.FormatFromExtension(filename)
	}
	return classify(mimetype.Detect(data), filename)
}

// DetectFile classifies the file at path. The path's base name supplies the extension.
func (s *Sniffer) DetectFile(path string) (domain.Format, error) {
	info, err := os.Stat(path)
	if err != nil {
		return domain.FormatUnknown, fmt.Errorf("sniffer: stat %s: %w", path, err)
	}
	if info.Size() == 0 {
		return domain.FormatFromExtension(path), nil
	}

	m, err := mimetype.DetectFile(path)
	if err != nil {
		return domain.FormatUnknown, fmt.Errorf("sniffer: read %s: %w", path, err)
	}
	return classify(m, path), nil
}

func classify(m *mimetype.MIME, filename string) domain.Format {
	for _, sig := range binarySignatures {
		if m.Is(sig.mime) {
			return sig.format
		}
	}

	if family, ok := textFamily(m); ok {
		ext := domain.FormatFromExtension(filename)
		if ext.IsTextual() {
			return ext
		}
		return family
	}

	if m.Is(mimeZip) || m.Is(mimeBin) {
		return domain.FormatFromExtension(filename)
	}

	return domain.FormatUnknown
}

// textFamily walks m and its ancestors looking for a text classification.
func textFamily(m *mimetype.MIME) (domain.Format, bool) {
	for cur := m; cur != nil; cur = cur.Parent() {
		switch {
		case cur.Is(mimeHTML):
			return domain.FormatHTML, true
		case cur.Is(mimeXML):
			return domain.FormatXML, true
		case cur.Is(mimeCSV):
			return domain.FormatCSV, true
		case cur.Is(mimeText):
			return domain.FormatText, true
		}
	}
	return domain.FormatUnknown, false
}
