package driving

import (
	"context"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// FileService exposes ingested files to callers.
type FileService interface {
	// List returns the files ingested for a tenant.
	List(ctx context.Context, tenant string) ([]domain.UploadRecord, error)

	// Link returns a time-limited download URL for a stored raw upload.
	Link(ctx context.Context, tenant, filename string) (string, error)
}
