// Package blobstore stores receipt binary content addressed by opaque
// handles. The store knows nothing about expenses or receipt metadata; a blob
// is reachable only while some receipt metadata records its handle, and an
// unreferenced blob is a leak to be reclaimed by the orphan sweeper, not a
// correctness failure.
package blobstore

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	ErrBlobNotFound  = errors.New("blob not found")
	ErrInvalidHandle = errors.New("invalid blob handle")
)

// BlobInfo describes one stored content object.
type BlobInfo struct {
	Handle    string
	SizeBytes int64
	StoredAt  time.Time
}

// Store is the content storage contract. Handles are issued by the store and
// treated as opaque by every caller.
type Store interface {
	// Store writes the content and returns its new handle and byte size.
	Store(ctx context.Context, content io.Reader, filename, mimeType string) (handle string, size int64, err error)
	// Open returns a reader over the content. The caller closes it.
	Open(ctx context.Context, handle string) (io.ReadCloser, error)
	// Delete removes the content. Deleting an unknown handle returns
	// ErrBlobNotFound.
	Delete(ctx context.Context, handle string) error
	// List enumerates every stored blob, for orphan sweeping.
	List(ctx context.Context) ([]BlobInfo, error)
}
