package media

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mediashare/service/internal/storage"
)

// Store is the persistence the service needs. *Repository implements it.
type Store interface {
	Create(ctx context.Context, in CreateInput) (*Media, error)
	List(ctx context.Context) ([]Media, error)
	GetByID(ctx context.Context, id int64) (*Media, error)
	Update(ctx context.Context, id int64, in UpdateInput) (int64, error)
	Delete(ctx context.Context, id int64) (int64, error)
	IncrementLikes(ctx context.Context, id int64) (int64, error)
	DecrementLikes(ctx context.Context, id int64) (int64, error)
}

// Service contains business logic for media records and their stored objects.
type Service struct {
	repo    Store
	objects storage.Storage
}

// NewService creates a new media Service.
func NewService(repo Store, objects storage.Storage) *Service {
	return &Service{repo: repo, objects: objects}
}

// Create validates the input and registers a new record.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Media, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if strings.TrimSpace(in.FileURL) == "" {
		return nil, fmt.Errorf("%w: file_url is required", ErrValidation)
	}
	if !in.Type.Valid() {
		return nil, fmt.Errorf("%w: invalid media type, allowed values are 'image' or 'video'", ErrValidation)
	}

	m, err := s.repo.Create(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("create media: %w", err)
	}
	zerolog.Ctx(ctx).Info().Int64("media_id", m.ID).Str("type", string(m.Type)).Msg("media created")
	return m, nil
}

// List returns all records, newest first.
func (s *Service) List(ctx context.Context) ([]Media, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list media: %w", err)
	}
	if items == nil {
		items = []Media{}
	}
	return items, nil
}

// Get returns a record by id.
func (s *Service) Get(ctx context.Context, id int64) (*Media, error) {
	return s.repo.GetByID(ctx, id)
}

// Update changes title, description and/or file URL.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) error {
	if in.empty() {
		return fmt.Errorf("%w: nothing to update", ErrValidation)
	}
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return fmt.Errorf("%w: title must not be empty", ErrValidation)
	}
	if in.FileURL != nil && strings.TrimSpace(*in.FileURL) == "" {
		return fmt.Errorf("%w: url must not be empty", ErrValidation)
	}

	n, err := s.repo.Update(ctx, id, in)
	if err != nil {
		return fmt.Errorf("update media: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the stored object, then the record.
//
// The object goes first: a failure in between leaves a record pointing at a
// missing object, which is detectable, instead of an object nothing references.
// An already-missing object does not block removing the record.
func (s *Service) Delete(ctx context.Context, id int64) error {
	log := zerolog.Ctx(ctx)

	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	key, err := s.objects.KeyFromURL(m.FileURL)
	if err != nil {
		log.Error().Err(err).Int64("media_id", id).Str("file_url", m.FileURL).Msg("cannot derive object key")
		return fmt.Errorf("%w: %w", ErrDataIntegrity, err)
	}

	if err := s.objects.Delete(ctx, key); err != nil {
		if !errors.Is(err, storage.ErrObjectNotFound) {
			return fmt.Errorf("delete object: %w", err)
		}
		log.Warn().Int64("media_id", id).Str("key", key).Msg("object already absent, removing record")
	}

	n, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete media: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	log.Info().Int64("media_id", id).Str("key", key).Msg("media deleted")
	return nil
}

// Like adds one like.
func (s *Service) Like(ctx context.Context, id int64) error {
	n, err := s.repo.IncrementLikes(ctx, id)
	if err != nil {
		return fmt.Errorf("like media: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Unlike removes one like. The guard is part of the update statement, so
// concurrent unlikes can never push the counter below zero.
func (s *Service) Unlike(ctx context.Context, id int64) error {
	n, err := s.repo.DecrementLikes(ctx, id)
	if err != nil {
		return fmt.Errorf("unlike media: %w", err)
	}
	if n > 0 {
		return nil
	}

	// Nothing changed: tell a missing record apart from a zero counter.
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	return ErrNoLikes
}

// IssueUpload returns a pre-signed PUT for uploads/<fileName>.
func (s *Service) IssueUpload(ctx context.Context, fileName, fileType string) (*PresignedUpload, error) {
	if fileName == "" || fileType == "" {
		return nil, fmt.Errorf("%w: fileName and fileType are required", ErrValidation)
	}
	if strings.ContainsAny(fileName, `/\`) || fileName == "." || fileName == ".." {
		return nil, fmt.Errorf("%w: fileName must be a plain file name", ErrValidation)
	}
	mediaType, _, err := mime.ParseMediaType(fileType)
	if err != nil || !(strings.HasPrefix(mediaType, "image/") || strings.HasPrefix(mediaType, "video/")) {
		return nil, fmt.Errorf("%w: fileType must be an image or video MIME type", ErrValidation)
	}

	key := storage.KeyPrefix + fileName
	up, err := s.objects.PresignUpload(ctx, key, fileType)
	if err != nil {
		return nil, fmt.Errorf("presign upload: %w", err)
	}

	zerolog.Ctx(ctx).Debug().Str("key", key).Str("content_type", fileType).Msg("upload url issued")
	return &PresignedUpload{
		UploadURL: up.URL,
		FileURL:   up.FileURL,
		ExpiresIn: int64(up.ExpiresIn.Seconds()),
	}, nil
}
