package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
	"github.com/custodia-labs/docrag/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// Directory names below the data directory.
const (
	UploadsDir = "uploads"
	IndexesDir = "indexes"
)

// maxScratchExt bounds the extension carried onto a scratch file name.
const maxScratchExt = 16

// IndexPath returns where the index for (tenant, filename) lives under dataDir.
func IndexPath(dataDir, tenant, filename string) string {
	return filepath.Join(dataDir, IndexesDir, tenant, filename)
}

// IngestService runs an upload through detection, extraction, chunking and
// indexing, then hands the raw file and index to durable storage.
type IngestService struct {
	detector   driven.FormatDetector
	extractors driven.ExtractorRegistry
	splitter   driven.Splitter
	indexes    driven.IndexStore
	dataDir    string

	blobs  driven.BlobStore
	ledger driven.UploadLedger
	locks  *pathLocks
}

// NewIngestService creates a new ingestion service writing below dataDir.
// Durable storage and the ledger are optional and set separately.
func NewIngestService(
	detector driven.FormatDetector,
	extractors driven.ExtractorRegistry,
	splitter driven.Splitter,
	indexes driven.IndexStore,
	dataDir string,
) *IngestService {
	return &IngestService{
		detector:   detector,
		extractors: extractors,
		splitter:   splitter,
		indexes:    indexes,
		dataDir:    dataDir,
		locks:      newPathLocks(),
	}
}

// SetBlobStore sets durable storage for raw uploads and index files.
func (s *IngestService) SetBlobStore(blobs driven.BlobStore) {
	s.blobs = blobs
}

// SetLedger sets the record of ingested files.
func (s *IngestService) SetLedger(ledger driven.UploadLedger) {
	s.ledger = ledger
}

// Ingest indexes one uploaded file.
//
//nolint:gocyclo // Pipeline with necessary sequential steps
func (s *IngestService) Ingest(ctx context.Context, req driving.IngestRequest) (*domain.IngestResult, error) {
	if err := domain.ValidatePathComponent(req.Tenant); err != nil {
		return nil, fmt.Errorf("tenant %q: %w", req.Tenant, err)
	}
	if err := domain.ValidatePathComponent(req.Filename); err != nil {
		return nil, fmt.Errorf("filename %q: %w", req.Filename, err)
	}
	if req.Body == nil {
		return nil, fmt.Errorf("%w: no file body", domain.ErrInvalidArgument)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger.Section("Ingest " + req.Tenant + "/" + req.Filename)

	// 1. Spool the upload to scratch storage
	doc, err := s.spool(req)
	if err != nil {
		return nil, err
	}
	defer os.Remove(doc.Path)

	result := &domain.IngestResult{Tenant: req.Tenant, Filename: req.Filename}

	// 2. Keep the raw file; losing it does not block indexing
	if s.blobs != nil {
		key := domain.RawObjectKey(req.Tenant, req.Filename)
		if err := uploadFile(ctx, s.blobs, doc.Path, key); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Warn("raw upload failed", "file", req.Filename, "stage", "store", "key", key, "err", err)
		} else {
			result.RawKey = key
		}
	}

	// 3. Detect, extract, chunk
	doc.Format, err = s.detector.DetectFile(doc.Path)
	if err != nil {
		return nil, fmt.Errorf("detect format: %w", err)
	}
	result.Format = doc.Format
	logger.Debug("detected format", "file", req.Filename, "stage", "detect", "format", doc.Format.String())

	segments := s.extractors.Extract(ctx, doc)
	result.Segments = len(segments)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	chunks := s.splitter.Split(segments)
	result.Chunks = len(chunks)

	if len(chunks) == 0 {
		logger.Warn("nothing to index", "file", req.Filename, "stage", "chunk", "format", doc.Format.String())
		s.record(ctx, result)
		return result, nil
	}

	// 4. Build and persist the index; one writer per path
	path := IndexPath(s.dataDir, req.Tenant, req.Filename)
	unlock := s.locks.Lock(path)
	defer unlock()

	index, err := s.indexes.Build(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}
	if err := index.Save(ctx, path); err != nil {
		return nil, fmt.Errorf("save index: %w", err)
	}
	result.IndexPath = path
	logger.Info("indexed file", "file", req.Filename, "tenant", req.Tenant, "chunks", len(chunks), "path", path)

	// 5. Copy the index to durable storage
	if s.blobs != nil {
		prefix := domain.IndexObjectPrefix(req.Tenant, req.Filename)
		report, err := transferDir(ctx, s.blobs, path, prefix)
		result.Transfer = report
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Warn("index transfer incomplete", "file", req.Filename, "stage", "transfer", "err", err)
		} else if !report.OK() {
			logger.Warn("index transfer had failures",
				"file", req.Filename, "stage", "transfer", "failed", len(report.Failed))
		}
	}

	s.record(ctx, result)
	return result, nil
}

// spool copies the request body to a fresh scratch file.
func (s *IngestService) spool(req driving.IngestRequest) (*domain.RawDocument, error) {
	dir := filepath.Join(s.dataDir, UploadsDir)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create uploads directory: %w", err)
	}

	doc := &domain.RawDocument{
		ID:         uuid.NewString(),
		Tenant:     req.Tenant,
		Filename:   req.Filename,
		ReceivedAt: time.Now(),
	}
	doc.Path = filepath.Join(dir, scratchName(doc.ID, req.Filename))

	f, err := os.OpenFile(doc.Path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return nil, fmt.Errorf("create scratch file: %w", err)
	}
	n, copyErr := io.Copy(f, req.Body)
	closeErr := f.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		os.Remove(doc.Path)
		return nil, fmt.Errorf("spool upload: %w", err)
	}
	doc.Size = n
	return doc, nil
}

// scratchName names a spooled upload by its ID. The filename's extension
// is kept for the sniffer when it is short enough not to matter.
func scratchName(id, filename string) string {
	ext := filepath.Ext(filename)
	if len(ext) > maxScratchExt {
		ext = ""
	}
	return id + ext
}

// record writes the ledger row. Failures are logged, not returned: the
// index is already in place.
func (s *IngestService) record(ctx context.Context, result *domain.IngestResult) {
	if s.ledger == nil {
		return
	}
	err := s.ledger.Record(ctx, domain.UploadRecord{
		Tenant:    result.Tenant,
		Filename:  result.Filename,
		Format:    result.Format,
		Chunks:    result.Chunks,
		IndexPath: result.IndexPath,
		RawKey:    result.RawKey,
	})
	if err != nil {
		logger.Warn("ledger update failed", "file", result.Filename, "stage", "record", "err", err)
	}
}
