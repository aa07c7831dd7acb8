package driven

import (
	"context"
	"io"
	"time"
)

// BlobStore is durable object storage for raw uploads and index files.
// Keys are slash-separated and scoped by tenant.
type BlobStore interface {
	// Put writes the object at key, replacing any existing object.
	Put(ctx context.Context, key string, r io.Reader) error

	// Link returns a URL for downloading key, valid for at least ttl where
	// the backend supports expiry. Returns ErrNotFound if key is absent.
	Link(ctx context.Context, key string, ttl time.Duration) (string, error)

	// Exists reports whether key is stored.
	Exists(ctx context.Context, key string) (bool, error)
}
