package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
)

// Ensure FileService implements the interface.
var _ driving.FileService = (*FileService)(nil)

// FileService lists ingested files and links to their raw uploads.
type FileService struct {
	ledger  driven.UploadLedger
	blobs   driven.BlobStore
	linkTTL time.Duration
}

// NewFileService creates a new file service. Both stores are optional.
func NewFileService(ledger driven.UploadLedger, blobs driven.BlobStore, linkTTL time.Duration) *FileService {
	if linkTTL <= 0 {
		linkTTL = domain.DefaultLinkTTL
	}
	return &FileService{ledger: ledger, blobs: blobs, linkTTL: linkTTL}
}

// List returns the files ingested for tenant, most recent first.
func (s *FileService) List(ctx context.Context, tenant string) ([]domain.UploadRecord, error) {
	if err := domain.ValidatePathComponent(tenant); err != nil {
		return nil, fmt.Errorf("tenant %q: %w", tenant, err)
	}
	if s.ledger == nil {
		return nil, nil
	}
	records, err := s.ledger.List(ctx, tenant)
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	return records, nil
}

// Link returns a download URL for the raw upload of (tenant, filename).
func (s *FileService) Link(ctx context.Context, tenant, filename string) (string, error) {
	if err := domain.ValidatePathComponent(tenant); err != nil {
		return "", fmt.Errorf("tenant %q: %w", tenant, err)
	}
	if err := domain.ValidatePathComponent(filename); err != nil {
		return "", fmt.Errorf("filename %q: %w", filename, err)
	}
	if s.blobs == nil {
		return "", fmt.Errorf("%w: no blob store configured", domain.ErrNotImplemented)
	}

	key := domain.RawObjectKey(tenant, filename)
	link, err := s.blobs.Link(ctx, key, s.linkTTL)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", fmt.Errorf("file %s: %w", key, domain.ErrNotFound)
		}
		return "", fmt.Errorf("link %s: %w", key, err)
	}
	return link, nil
}
