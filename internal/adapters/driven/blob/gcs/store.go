// Package gcs stores blobs in a Google Cloud Storage bucket through the
// JSON API client.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	storage "google.golang.org/api/storage/v1"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/logger"
)

var _ driven.BlobStore = (*Store)(nil)

// Config selects the bucket and how to authenticate.
//
// CredentialsFile takes precedence over AccessToken. With neither set the
// client falls back to Application Default Credentials. A service account
// key in CredentialsFile also signs time-limited download links.
type Config struct {
	Bucket          string
	CredentialsFile string
	AccessToken     string

	// Endpoint overrides the API base URL. Unauthenticated when set without
	// credentials; used against emulators.
	Endpoint string
}

// Store is a driven.BlobStore backed by one bucket.
type Store struct {
	objects *storage.ObjectsService
	bucket  string
	signer  *urlSigner
}

// New creates a Store for cfg.Bucket.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("gcs: %w: bucket is required", domain.ErrInvalidArgument)
	}

	var (
		opts   []option.ClientOption
		signer *urlSigner
	)
	if cfg.CredentialsFile != "" {
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("gcs: reading credentials: %w", err)
		}
		if signer, err = newURLSigner(data); err != nil {
			logger.Debug("gcs links will not be signed", "error", err)
		}
	}

	switch {
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	case cfg.AccessToken != "":
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.AccessToken, TokenType: "Bearer"})
		opts = append(opts, option.WithTokenSource(ts))
	case cfg.Endpoint != "":
		opts = append(opts, option.WithoutAuthentication())
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	svc, err := storage.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs: creating client: %w", err)
	}
	return &Store{objects: svc.Objects, bucket: cfg.Bucket, signer: signer}, nil
}

// Put uploads r as the object key, replacing any existing object.
func (s *Store) Put(ctx context.Context, key string, r io.Reader) error {
	if key == "" {
		return fmt.Errorf("gcs: %w: empty key", domain.ErrInvalidArgument)
	}
	_, err := s.objects.Insert(s.bucket, &storage.Object{Name: key}).
		Media(r).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("gcs: uploading %s: %w", key, err)
	}
	return nil
}

// Link returns a V4 signed URL valid for ttl when the store holds a service
// account key. Otherwise it returns the object's media link, which follows
// the bucket's IAM policy and does not expire.
func (s *Store) Link(ctx context.Context, key string, ttl time.Duration) (string, error) {
	obj, err := s.objects.Get(s.bucket, key).Context(ctx).Do()
	if err != nil {
		if isNotFound(err) {
			return "", fmt.Errorf("gcs: %w: %s", domain.ErrNotFound, key)
		}
		return "", fmt.Errorf("gcs: fetching %s: %w", key, err)
	}
	if s.signer == nil {
		return obj.MediaLink, nil
	}
	if ttl <= 0 {
		ttl = domain.DefaultLinkTTL
	}
	link, err := s.signer.Sign(s.bucket, key, ttl)
	if err != nil {
		return "", fmt.Errorf("gcs: signing link for %s: %w", key, err)
	}
	return link, nil
}

// Exists reports whether the object key is stored.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.objects.Get(s.bucket, key).Fields("name").Context(ctx).Do()
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("gcs: checking %s: %w", key, err)
}

func isNotFound(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusNotFound
}
