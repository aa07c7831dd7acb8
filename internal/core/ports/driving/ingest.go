package driving

import (
	"context"
	"io"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// IngestRequest is one uploaded file.
type IngestRequest struct {
	// Tenant scopes storage paths. Must be a single safe path component.
	Tenant string

	// Filename is the uploaded file name. Must be a single safe path component.
	Filename string

	// Body streams the file contents.
	Body io.Reader
}

// IngestService turns an uploaded file into a persisted vector index.
type IngestService interface {
	// Ingest stores, extracts, chunks and indexes one file.
	// A file with no extractable text succeeds with zero chunks.
	Ingest(ctx context.Context, req IngestRequest) (*domain.IngestResult, error)
}
