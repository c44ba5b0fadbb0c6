// Package storage defines the interface for object storage operations.
// Swap implementations by changing STORAGE_DRIVER: MinIO (any S3-compatible provider
// through minio-go), AWS S3 through the AWS SDK, or Google Cloud Storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mediashare/service/internal/config"
)

// KeyPrefix is the folder every uploaded media object lives under.
const KeyPrefix = "uploads/"

// ErrObjectNotFound is returned by Delete when no object exists at the key.
var ErrObjectNotFound = errors.New("object not found")

// ErrForeignURL is returned by KeyFromURL when a file URL does not point into
// the uploads folder of the configured bucket.
var ErrForeignURL = errors.New("file url does not belong to the media bucket")

// Upload is a short-lived credential for a single PUT of one object.
type Upload struct {
	// URL is the pre-signed URL the client PUTs the bytes to.
	URL string
	// FileURL is where the object is reachable once uploaded.
	FileURL string
	// ExpiresIn is the credential lifetime.
	ExpiresIn time.Duration
}

// Storage is the interface for issuing upload credentials and removing objects.
type Storage interface {
	// PresignUpload returns a PUT credential scoped to key and contentType.
	PresignUpload(ctx context.Context, key, contentType string) (*Upload, error)
	// Delete removes an object identified by key. Missing objects yield ErrObjectNotFound.
	Delete(ctx context.Context, key string) error
	// PublicURL constructs the browser-accessible URL for a given key.
	PublicURL(key string) string
	// KeyFromURL reverses PublicURL. URLs outside the uploads folder yield ErrForeignURL.
	KeyFromURL(fileURL string) (string, error)
}

// New builds the backend selected by cfg.Driver.
func New(ctx context.Context, cfg config.StorageConfig, log zerolog.Logger) (Storage, error) {
	switch strings.ToLower(cfg.Driver) {
	case config.DriverMinio:
		return NewMinioStorage(ctx, cfg, log)
	case config.DriverS3:
		return NewS3Storage(ctx, cfg, log)
	case config.DriverGCS:
		return NewGCSStorage(ctx, cfg, log)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}

// publicBase is the shared URL convention of all backends: "<base>/<key>",
// with every key segment path-escaped.
type publicBase string

func newPublicBase(base string) publicBase {
	return publicBase(strings.TrimRight(base, "/"))
}

func (b publicBase) url(key string) string {
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return string(b) + "/" + strings.Join(segments, "/")
}

// key strips the base from fileURL, unescapes the remainder and checks it is
// an upload key.
func (b publicBase) key(fileURL string) (string, error) {
	escaped, ok := strings.CutPrefix(fileURL, string(b)+"/")
	if !ok || strings.ContainsAny(escaped, "?#") {
		return "", fmt.Errorf("%w: %q", ErrForeignURL, fileURL)
	}
	key, err := url.PathUnescape(escaped)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrForeignURL, fileURL)
	}
	if !strings.HasPrefix(key, KeyPrefix) || len(key) == len(KeyPrefix) {
		return "", fmt.Errorf("%w: %q", ErrForeignURL, fileURL)
	}
	return key, nil
}
