package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog"

	"github.com/mediashare/service/internal/config"
)

// S3Storage implements Storage on AWS S3 (or R2 and other endpoints the SDK accepts).
type S3Storage struct {
	client    *s3.Client
	presigner *s3.PresignClient
	bucket    string
	base      publicBase
	expiry    time.Duration
}

// NewS3Storage loads AWS configuration with static credentials and verifies the
// bucket is reachable.
func NewS3Storage(ctx context.Context, cfg config.StorageConfig, log zerolog.Logger) (*S3Storage, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	s := newS3Storage(awsCfg, cfg)
	if _, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(cfg.Bucket)}); err != nil {
		return nil, fmt.Errorf("head bucket %q: %w", cfg.Bucket, err)
	}
	log.Info().Str("bucket", cfg.Bucket).Str("region", cfg.Region).Msg("storage: s3 bucket reachable")
	return s, nil
}

func newS3Storage(awsCfg aws.Config, cfg config.StorageConfig) *S3Storage {
	endpoint := s3Endpoint(cfg)
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})
	return &S3Storage{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    cfg.Bucket,
		base:      newPublicBase(cfg.PublicBase),
		expiry:    cfg.PresignTTL,
	}
}

// s3Endpoint returns a URL for custom endpoints, or "" for the AWS default.
func s3Endpoint(cfg config.StorageConfig) string {
	if cfg.Endpoint == "" || strings.Contains(cfg.Endpoint, "://") {
		return cfg.Endpoint
	}
	if cfg.UseSSL {
		return "https://" + cfg.Endpoint
	}
	return "http://" + cfg.Endpoint
}

// PresignUpload signs a PutObject for key with ContentType bound into the signature.
func (s *S3Storage) PresignUpload(ctx context.Context, key, contentType string) (*Upload, error) {
	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(s.expiry))
	if err != nil {
		return nil, fmt.Errorf("presign put %q: %w", key, err)
	}
	return &Upload{
		URL:       req.URL,
		FileURL:   s.PublicURL(key),
		ExpiresIn: s.expiry,
	}, nil
}

// Delete removes the object at key. DeleteObject is silent on missing keys,
// so HeadObject decides between success and ErrObjectNotFound.
func (s *S3Storage) Delete(ctx context.Context, key string) error {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isS3NotFound(err) {
			return fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return fmt.Errorf("head object %q: %w", key, err)
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object %q: %w", key, err)
	}
	return nil
}

// PublicURL returns the public URL for an uploaded object.
func (s *S3Storage) PublicURL(key string) string {
	return s.base.url(key)
}

// KeyFromURL recovers the object key from a URL built by PublicURL.
func (s *S3Storage) KeyFromURL(fileURL string) (string, error) {
	return s.base.key(fileURL)
}

func isS3NotFound(err error) bool {
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}
