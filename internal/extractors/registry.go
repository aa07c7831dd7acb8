package extractors

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/logger"
)

// Ensure Registry implements the interface.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry maps formats to their extractors.
type Registry struct {
	mu         sync.RWMutex
	extractors map[domain.Format]driven.Extractor
}

// NewRegistry creates an empty extractor registry.
func NewRegistry() *Registry {
	return &Registry{
		extractors: make(map[domain.Format]driven.Extractor),
	}
}

// Register adds an extractor for each of its formats.
func (r *Registry) Register(extractor driven.Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range extractor.Formats() {
		r.extractors[f] = extractor
	}
}

// Has returns true if an extractor handles format.
func (r *Registry) Has(format domain.Format) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.extractors[format]
	return ok
}

// SupportedFormats returns all registered formats in sorted order.
func (r *Registry) SupportedFormats() []domain.Format {
	r.mu.RLock()
	defer r.mu.RUnlock()
	formats := make([]domain.Format, 0, len(r.extractors))
	for f := range r.extractors {
		formats = append(formats, f)
	}
	sort.Slice(formats, func(i, j int) bool { return formats[i] < formats[j] })
	return formats
}

// Extract runs the extractor for doc.Format and stamps provenance on every segment.
func (r *Registry) Extract(ctx context.Context, doc *domain.RawDocument) []domain.Segment {
	if doc == nil {
		return nil
	}

	r.mu.RLock()
	extractor, ok := r.extractors[doc.Format]
	r.mu.RUnlock()
	if !ok {
		logger.Warn("skipping file",
			"file", doc.Filename, "stage", "extract", "format", doc.Format.String(),
			"err", domain.ErrUnsupportedFormat)
		return nil
	}

	raw, err := safeExtract(ctx, extractor, doc)
	if err != nil {
		logger.Error("extraction failed",
			"file", doc.Filename, "stage", "extract", "format", doc.Format.String(), "err", err)
		return nil
	}

	segments := make([]domain.Segment, 0, len(raw))
	for _, seg := range raw {
		if strings.TrimSpace(seg.Content) == "" {
			continue
		}
		meta := domain.CopyMetadata(seg.Metadata)
		meta[domain.MetaSource] = doc.Filename
		meta[domain.MetaFileType] = doc.Format.String()
		segments = append(segments, domain.Segment{Content: seg.Content, Metadata: meta})
	}

	logger.Debug("extracted segments",
		"file", doc.Filename, "stage", "extract", "format", doc.Format.String(), "segments", len(segments))
	return segments
}

// safeExtract converts an extractor panic into ErrExtractionFailed.
func safeExtract(ctx context.Context, e driven.Extractor, doc *domain.RawDocument) (segments []domain.Segment, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			segments = nil
			err = fmt.Errorf("%w: panic: %v", domain.ErrExtractionFailed, rec)
		}
	}()
	return e.Extract(ctx, doc)
}
