package domain

import (
	"path/filepath"
	"strings"
)

// Format is the detected true format of an uploaded file.
// The set of formats is closed; FormatUnknown is a valid result, not an error.
type Format string

// Supported formats.
const (
	FormatPDF     Format = "pdf"
	FormatText    Format = "text"
	FormatDOCX    Format = "docx"
	FormatPPTX    Format = "pptx"
	FormatCSV     Format = "csv"
	FormatXLSX    Format = "xlsx"
	FormatHTML    Format = "html"
	FormatXML     Format = "xml"
	FormatUnknown Format = "unknown"
)

// extensionFormats maps lower-case file extensions (without dot) to formats.
var extensionFormats = map[string]Format{
	"pdf":  FormatPDF,
	"txt":  FormatText,
	"text": FormatText,
	"md":   FormatText,
	"log":  FormatText,
	"docx": FormatDOCX,
	"pptx": FormatPPTX,
	"csv":  FormatCSV,
	"xlsx": FormatXLSX,
	"html": FormatHTML,
	"htm":  FormatHTML,
	"xml":  FormatXML,
}

// IsValid returns true if the format is part of the closed set.
func (f Format) IsValid() bool {
	switch f {
	case FormatPDF, FormatText, FormatDOCX, FormatPPTX, FormatCSV,
		FormatXLSX, FormatHTML, FormatXML, FormatUnknown:
		return true
	default:
		return false
	}
}

// IsKnown returns true for every format except FormatUnknown.
func (f Format) IsKnown() bool {
	return f != FormatUnknown && f.IsValid()
}

// IsTextual returns true for formats stored as plain UTF-8 text.
func (f Format) IsTextual() bool {
	switch f {
	case FormatText, FormatCSV, FormatHTML, FormatXML:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (f Format) String() string {
	return string(f)
}

// FormatFromExtension maps a filename to a format using only its extension.
// Returns FormatUnknown for missing or unrecognised extensions.
func FormatFromExtension(filename string) Format {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if f, ok := extensionFormats[ext]; ok {
		return f
	}
	return FormatUnknown
}

// AllFormats returns every known format, excluding FormatUnknown.
func AllFormats() []Format {
	return []Format{
		FormatPDF,
		FormatText,
		FormatDOCX,
		FormatPPTX,
		FormatCSV,
		FormatXLSX,
		FormatHTML,
		FormatXML,
	}
}
