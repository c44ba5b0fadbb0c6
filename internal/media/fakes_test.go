package media

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/mediashare/service/internal/storage"
)

// memStore is an in-memory Store with the same row-level semantics as the
// Postgres repository: counter updates are atomic and decrement is guarded.
type memStore struct {
	mu   sync.Mutex
	rows map[int64]Media
	next int64
	now  func() time.Time
}

func newMemStore() *memStore {
	return &memStore{rows: map[int64]Media{}, now: time.Now}
}

func (s *memStore) Create(_ context.Context, in CreateInput) (*Media, error) {
	if !in.Type.Valid() {
		return nil, fmt.Errorf("%w: unsupported media type %q", ErrValidation, in.Type)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	m := Media{
		ID:          s.next,
		Title:       in.Title,
		Description: in.Description,
		FileURL:     in.FileURL,
		Type:        in.Type,
		CreatedAt:   s.now(),
	}
	s.rows[m.ID] = m
	return &m, nil
}

func (s *memStore) List(context.Context) ([]Media, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var items []Media
	for id := s.next; id > 0; id-- {
		if m, ok := s.rows[id]; ok {
			items = append(items, m)
		}
	}
	return items, nil
}

func (s *memStore) GetByID(_ context.Context, id int64) (*Media, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &m, nil
}

func (s *memStore) Update(_ context.Context, id int64, in UpdateInput) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.rows[id]
	if !ok {
		return 0, nil
	}
	if in.Title != nil {
		m.Title = *in.Title
	}
	if in.Description != nil {
		m.Description = in.Description
	}
	if in.FileURL != nil {
		m.FileURL = *in.FileURL
	}
	s.rows[id] = m
	return 1, nil
}

func (s *memStore) Delete(_ context.Context, id int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[id]; !ok {
		return 0, nil
	}
	delete(s.rows, id)
	return 1, nil
}

func (s *memStore) IncrementLikes(_ context.Context, id int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.rows[id]
	if !ok {
		return 0, nil
	}
	m.Likes++
	s.rows[id] = m
	return 1, nil
}

func (s *memStore) DecrementLikes(_ context.Context, id int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.rows[id]
	if !ok || m.Likes <= 0 {
		return 0, nil
	}
	m.Likes--
	s.rows[id] = m
	return 1, nil
}

// mockStore is a testify mock for asserting which persistence calls happen.
type mockStore struct {
	mock.Mock
}

func (m *mockStore) Create(ctx context.Context, in CreateInput) (*Media, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Media), args.Error(1)
}

func (m *mockStore) List(ctx context.Context) ([]Media, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Media), args.Error(1)
}

func (m *mockStore) GetByID(ctx context.Context, id int64) (*Media, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Media), args.Error(1)
}

func (m *mockStore) Update(ctx context.Context, id int64, in UpdateInput) (int64, error) {
	args := m.Called(ctx, id, in)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStore) Delete(ctx context.Context, id int64) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStore) IncrementLikes(ctx context.Context, id int64) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStore) DecrementLikes(ctx context.Context, id int64) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

const testPublicBase = "http://localhost:9000/media"

// fakeStorage follows the "<base>/<key>" URL convention of the real backends
// and pretends every presigned upload was completed.
type fakeStorage struct {
	mu         sync.Mutex
	objects    map[string]bool
	deleted    []string // every key Delete was called with
	deleteErr  error
	presignErr error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string]bool{}}
}

func (f *fakeStorage) PresignUpload(_ context.Context, key, contentType string) (*storage.Upload, error) {
	if f.presignErr != nil {
		return nil, f.presignErr
	}
	f.mu.Lock()
	f.objects[key] = true
	f.mu.Unlock()
	return &storage.Upload{
		URL:       f.PublicURL(key) + "?X-Amz-Signature=test&content-type=" + url.QueryEscape(contentType),
		FileURL:   f.PublicURL(key),
		ExpiresIn: 10 * time.Minute,
	}, nil
}

func (f *fakeStorage) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, key)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if !f.objects[key] {
		return fmt.Errorf("%w: %s", storage.ErrObjectNotFound, key)
	}
	delete(f.objects, key)
	return nil
}

func (f *fakeStorage) PublicURL(key string) string {
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return testPublicBase + "/" + strings.Join(segments, "/")
}

func (f *fakeStorage) KeyFromURL(fileURL string) (string, error) {
	escaped, ok := strings.CutPrefix(fileURL, testPublicBase+"/")
	if !ok || strings.ContainsAny(escaped, "?#") {
		return "", fmt.Errorf("%w: %q", storage.ErrForeignURL, fileURL)
	}
	key, err := url.PathUnescape(escaped)
	if err != nil || !strings.HasPrefix(key, storage.KeyPrefix) {
		return "", fmt.Errorf("%w: %q", storage.ErrForeignURL, fileURL)
	}
	return key, nil
}

func (f *fakeStorage) deleteCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

func strPtr(s string) *string { return &s }
