package storage

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/janytree/orderdesk/internal/application/report"
)

// StubObjectStorage keeps uploaded objects in memory and hands out fake links.
// Use it for local development and tests where no S3 endpoint is available.
type StubObjectStorage struct {
	// BaseURL is the base URL for generating download URLs
	// Defaults to "https://storage.example.com" if not set
	BaseURL string

	mu      sync.RWMutex
	objects map[string]StoredObject
}

// StoredObject is an object held by StubObjectStorage
type StoredObject struct {
	ContentType string
	Body        []byte
}

// NewStubObjectStorage creates a new StubObjectStorage
func NewStubObjectStorage() *StubObjectStorage {
	return &StubObjectStorage{
		BaseURL: "https://storage.example.com",
		objects: make(map[string]StoredObject),
	}
}

var _ report.ObjectStorage = (*StubObjectStorage)(nil)

// PutObject stores a copy of body
func (s *StubObjectStorage) PutObject(_ context.Context, storageKey, contentType string, body []byte) error {
	if storageKey == "" {
		return ErrStorageKeyRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.objects == nil {
		s.objects = make(map[string]StoredObject)
	}
	s.objects[storageKey] = StoredObject{ContentType: contentType, Body: slices.Clone(body)}
	return nil
}

// GenerateDownloadURL generates a stub URL for downloading a file
func (s *StubObjectStorage) GenerateDownloadURL(
	_ context.Context,
	storageKey string,
	expiresIn time.Duration,
) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, ErrStorageKeyRequired
	}

	base := s.BaseURL
	if base == "" {
		base = "https://storage.example.com"
	}
	expiresAt := time.Now().Add(expiresIn)
	url := base + "/download/" + storageKey + "?expires=" + expiresAt.Format(time.RFC3339)

	return url, expiresAt, nil
}

// Object returns a stored object
func (s *StubObjectStorage) Object(storageKey string) (StoredObject, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[storageKey]
	return obj, ok
}
