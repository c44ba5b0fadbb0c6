package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"github.com/mediashare/service/internal/config"
)

// GCSStorage implements Storage on a Google Cloud Storage bucket.
type GCSStorage struct {
	client *gcs.Client
	bucket string
	base   publicBase
	expiry time.Duration

	// Explicit V4 signer. When empty, the client signs with its own credentials
	// (service account key or IAM signBlob).
	accessID   string
	privateKey []byte
}

// NewGCSStorage creates a GCS client from a credentials file or application default
// credentials and verifies the bucket is reachable.
func NewGCSStorage(ctx context.Context, cfg config.StorageConfig, log zerolog.Logger) (*GCSStorage, error) {
	var opts []option.ClientOption
	if cfg.GCSCredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.GCSCredentialsFile))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}

	s := &GCSStorage{
		client:   client,
		bucket:   cfg.Bucket,
		base:     newPublicBase(cfg.PublicBase),
		expiry:   cfg.PresignTTL,
		accessID: cfg.GCSAccessID,
	}
	if cfg.GCSPrivateKeyFile != "" {
		s.privateKey, err = os.ReadFile(cfg.GCSPrivateKeyFile)
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("read gcs private key: %w", err)
		}
	}

	if _, err := client.Bucket(cfg.Bucket).Attrs(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("gcs bucket %q: %w", cfg.Bucket, err)
	}
	log.Info().Str("bucket", cfg.Bucket).Msg("storage: gcs bucket reachable")
	return s, nil
}

// PresignUpload issues a V4 signed PUT URL bound to key and contentType.
func (s *GCSStorage) PresignUpload(_ context.Context, key, contentType string) (*Upload, error) {
	opts := &gcs.SignedURLOptions{
		Scheme:      gcs.SigningSchemeV4,
		Method:      http.MethodPut,
		ContentType: contentType,
		Expires:     time.Now().Add(s.expiry),
	}

	var (
		signed string
		err    error
	)
	if s.accessID != "" && len(s.privateKey) > 0 {
		opts.GoogleAccessID = s.accessID
		opts.PrivateKey = s.privateKey
		signed, err = gcs.SignedURL(s.bucket, key, opts)
	} else {
		signed, err = s.client.Bucket(s.bucket).SignedURL(key, opts)
	}
	if err != nil {
		return nil, fmt.Errorf("sign put %q: %w", key, err)
	}

	return &Upload{
		URL:       signed,
		FileURL:   s.PublicURL(key),
		ExpiresIn: s.expiry,
	}, nil
}

// Delete removes the object at key.
func (s *GCSStorage) Delete(ctx context.Context, key string) error {
	err := s.client.Bucket(s.bucket).Object(key).Delete(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return fmt.Errorf("%w: %s", ErrObjectNotFound, key)
	}
	if err != nil {
		return fmt.Errorf("delete object %q: %w", key, err)
	}
	return nil
}

// PublicURL returns the public URL, e.g. "https://storage.googleapis.com/<bucket>/uploads/f.png".
func (s *GCSStorage) PublicURL(key string) string {
	return s.base.url(key)
}

// KeyFromURL recovers the object key from a URL built by PublicURL.
func (s *GCSStorage) KeyFromURL(fileURL string) (string, error) {
	return s.base.key(fileURL)
}

// Close releases the underlying client.
func (s *GCSStorage) Close() error {
	return s.client.Close()
}
