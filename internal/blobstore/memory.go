package blobstore

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory blob store for tests. It counts Store calls so
// tests can assert that a failed upload never wrote content.
type MemoryStore struct {
	mu         sync.Mutex
	blobs      map[string][]byte
	storedAt   map[string]time.Time
	storeCalls int

	// FailStore, when set, makes Store return the error without writing.
	FailStore error
	// FailDelete, when set, makes Delete return the error without deleting.
	FailDelete error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		blobs:    make(map[string][]byte),
		storedAt: make(map[string]time.Time),
	}
}

func (s *MemoryStore) Store(ctx context.Context, content io.Reader, filename, mimeType string) (string, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.storeCalls++
	if s.FailStore != nil {
		return "", 0, s.FailStore
	}

	data, err := io.ReadAll(content)
	if err != nil {
		return "", 0, err
	}

	handle := uuid.New().String()
	s.blobs[handle] = data
	s.storedAt[handle] = time.Now()
	return handle, int64(len(data)), nil
}

func (s *MemoryStore) Open(ctx context.Context, handle string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.blobs[handle]
	if !ok {
		return nil, ErrBlobNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *MemoryStore) Delete(ctx context.Context, handle string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailDelete != nil {
		return s.FailDelete
	}
	if _, ok := s.blobs[handle]; !ok {
		return ErrBlobNotFound
	}
	delete(s.blobs, handle)
	delete(s.storedAt, handle)
	return nil
}

func (s *MemoryStore) List(ctx context.Context) ([]BlobInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	blobs := make([]BlobInfo, 0, len(s.blobs))
	for handle, data := range s.blobs {
		blobs = append(blobs, BlobInfo{
			Handle:    handle,
			SizeBytes: int64(len(data)),
			StoredAt:  s.storedAt[handle],
		})
	}
	return blobs, nil
}

// SetStoredAt backdates a blob's stored-at time.
func (s *MemoryStore) SetStoredAt(handle string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.storedAt[handle] = at
}

// StoreCalls returns how many times Store was invoked, successful or not.
func (s *MemoryStore) StoreCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.storeCalls
}

// Contains reports whether the handle currently has content.
func (s *MemoryStore) Contains(handle string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.blobs[handle]
	return ok
}

// Len returns the number of stored blobs.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blobs)
}
