package storage

import (
	"context"
	"errors"
	"sync"
	"time"

	royaltyapp "github.com/inkwell/backend/internal/application/royalty"
)

// Ensure StubDocumentStorage implements DocumentStorage
var _ royaltyapp.DocumentStorage = (*StubDocumentStorage)(nil)

// StubDocumentStorage keeps documents in memory. It backs development and
// tests; the archive flow behaves identically against S3.
type StubDocumentStorage struct {
	// BaseURL is the base for generated download URLs
	BaseURL string

	mu      sync.RWMutex
	objects map[string][]byte
}

// NewStubDocumentStorage creates a new in-memory document store
func NewStubDocumentStorage() *StubDocumentStorage {
	return &StubDocumentStorage{
		BaseURL: "https://storage.example.com",
		objects: make(map[string][]byte),
	}
}

// Upload stores the document in memory
func (s *StubDocumentStorage) Upload(ctx context.Context, storageKey string, data []byte, contentType string) error {
	if storageKey == "" {
		return errors.New("storage key is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]byte, len(data))
	copy(stored, data)
	s.objects[storageKey] = stored
	return nil
}

// GenerateDownloadURL returns a fake presigned URL for a stored document
func (s *StubDocumentStorage) GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, errors.New("storage key is required")
	}

	expiresAt := time.Now().Add(expiresIn)
	url := s.BaseURL + "/download/" + storageKey + "?expires=" + expiresAt.Format(time.RFC3339)
	return url, expiresAt, nil
}

// ObjectExists reports whether a document was uploaded under the key
func (s *StubDocumentStorage) ObjectExists(ctx context.Context, storageKey string) (bool, error) {
	if storageKey == "" {
		return false, errors.New("storage key is required")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[storageKey]
	return ok, nil
}

// DeleteObject removes a stored document
func (s *StubDocumentStorage) DeleteObject(ctx context.Context, storageKey string) error {
	if storageKey == "" {
		return errors.New("storage key is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, storageKey)
	return nil
}

// Get returns a stored document, for assertions in tests
func (s *StubDocumentStorage) Get(storageKey string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[storageKey]
	return data, ok
}
