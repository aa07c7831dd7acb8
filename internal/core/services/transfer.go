package services

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/logger"
)

// transferDir uploads every regular file below dir to prefix/relpath.
// A file that fails is logged and recorded; the walk continues. Only a
// cancelled context or an unreadable dir stops the transfer early.
func transferDir(ctx context.Context, blobs driven.BlobStore, dir, prefix string) (*domain.TransferReport, error) {
	report := &domain.TransferReport{Prefix: prefix}

	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			if p == dir {
				return walkErr
			}
			report.Failed = append(report.Failed, domain.FileError{Path: p, Err: walkErr})
			logger.Warn("transfer skipped file", "file", p, "stage", "transfer", "err", walkErr)
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		key := path.Join(prefix, filepath.ToSlash(rel))

		if err := uploadFile(ctx, blobs, p, key); err != nil {
			report.Failed = append(report.Failed, domain.FileError{Path: rel, Err: err})
			logger.Warn("transfer failed", "file", rel, "stage", "transfer", "key", key, "err", err)
			return nil
		}
		report.Uploaded = append(report.Uploaded, key)
		logger.Debug("transferred", "file", rel, "key", key)
		return nil
	})
	if err != nil {
		return report, fmt.Errorf("transfer %s: %w", dir, err)
	}
	return report, nil
}

func uploadFile(ctx context.Context, blobs driven.BlobStore, p, key string) error {
	f, err := os.Open(p)
	if err != nil {
		return err
	}
	defer f.Close()
	return blobs.Put(ctx, key, f)
}
