package driven

import (
	"context"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// FormatDetector determines the true format of a file.
type FormatDetector interface {
	// Detect classifies in-memory content, using filename only as a fallback.
	Detect(data []byte, filename string) domain.Format

	// DetectFile classifies the file at path.
	DetectFile(path string) (domain.Format, error)
}

// Extractor turns one file format into ordered text segments.
type Extractor interface {
	// Formats returns the formats this extractor handles.
	Formats() []domain.Format

	// Extract reads doc.Path and returns its segments in document order.
	Extract(ctx context.Context, doc *domain.RawDocument) ([]domain.Segment, error)
}

// ExtractorRegistry dispatches a document to the extractor for its format.
type ExtractorRegistry interface {
	// Register adds an extractor. Later registrations win for a shared format.
	Register(extractor Extractor)

	// Extract never fails: unsupported formats and extractor failures are
	// logged and yield no segments. Every segment carries source and file_type.
	Extract(ctx context.Context, doc *domain.RawDocument) []domain.Segment

	// SupportedFormats returns all formats with a registered extractor.
	SupportedFormats() []domain.Format
}

// Splitter turns segments into bounded, overlapping chunks.
type Splitter interface {
	Split(segments []domain.Segment) []domain.Chunk
}
