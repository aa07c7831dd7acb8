package domain

import (
	"path/filepath"
	"strings"
	"time"
)

// UploadRecord is a ledger row describing one ingested file.
type UploadRecord struct {
	Tenant    string
	Filename  string
	Format    Format
	Chunks    int
	IndexPath string
	RawKey    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FileError records a single file that failed during a transfer.
type FileError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e FileError) Error() string {
	return e.Path + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e FileError) Unwrap() error {
	return e.Err
}

// TransferReport summarises copying an index directory to durable storage.
type TransferReport struct {
	// Prefix is the object key prefix the files were written under.
	Prefix string

	// Uploaded lists the object keys written successfully.
	Uploaded []string

	// Failed lists files that could not be written.
	Failed []FileError
}

// OK returns true if every file was transferred.
func (r *TransferReport) OK() bool {
	return r != nil && len(r.Failed) == 0
}

// IngestResult is returned to the upload caller.
type IngestResult struct {
	Tenant    string
	Filename  string
	Format    Format
	Segments  int
	Chunks    int
	IndexPath string
	RawKey    string
	Transfer  *TransferReport
}

// ValidatePathComponent checks that s is safe to use as a single path
// segment for tenant or filename scoping.
func ValidatePathComponent(s string) error {
	switch {
	case strings.TrimSpace(s) == "":
		return ErrInvalidArgument
	case s == "." || s == "..":
		return ErrInvalidArgument
	case strings.ContainsAny(s, `/\`) || strings.ContainsRune(s, filepath.Separator):
		return ErrInvalidArgument
	case strings.ContainsRune(s, 0):
		return ErrInvalidArgument
	}
	return nil
}

// RawObjectKey is the durable storage key of an uploaded file.
func RawObjectKey(tenant, filename string) string {
	return tenant + "/" + filename
}

// IndexObjectPrefix is the durable storage prefix of a transferred index.
func IndexObjectPrefix(tenant, filename string) string {
	return tenant + "/" + filename + "/vector_store"
}
