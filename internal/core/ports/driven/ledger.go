package driven

import (
	"context"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// UploadLedger records which files have been ingested for each tenant.
type UploadLedger interface {
	// Record inserts or replaces the row for (tenant, filename).
	Record(ctx context.Context, rec domain.UploadRecord) error

	// Get returns the row for (tenant, filename) or ErrNotFound.
	Get(ctx context.Context, tenant, filename string) (*domain.UploadRecord, error)

	// List returns a tenant's rows, most recently updated first.
	List(ctx context.Context, tenant string) ([]domain.UploadRecord, error)

	// Close releases resources.
	Close() error
}
