package blobstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// handleRegex matches handles issued by this store (uuid hex, no separators
// beyond dashes). Anything else is rejected before touching the filesystem.
var handleRegex = regexp.MustCompile(`^[a-f0-9]{8}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{12}$`)

// FSStore is a filesystem-backed blob store. Content lives under root,
// sharded by the first two characters of the handle to keep directories
// small.
type FSStore struct {
	root string
}

// NewFSStore creates the root directory if needed.
func NewFSStore(root string) (*FSStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create blob root: %w", err)
	}
	return &FSStore{root: root}, nil
}

func (s *FSStore) path(handle string) string {
	return filepath.Join(s.root, handle[:2], handle)
}

func (s *FSStore) Store(ctx context.Context, content io.Reader, filename, mimeType string) (string, int64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	handle := uuid.New().String()
	path := s.path(handle)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", 0, fmt.Errorf("failed to create blob shard: %w", err)
	}

	// Write to a temp file and rename so a failed write never leaves a
	// half-written blob behind a valid handle.
	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return "", 0, fmt.Errorf("failed to create blob temp file: %w", err)
	}

	size, err := io.Copy(tmp, content)
	if err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", 0, fmt.Errorf("failed to write blob content: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", 0, fmt.Errorf("failed to close blob temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", 0, fmt.Errorf("failed to finalize blob: %w", err)
	}

	return handle, size, nil
}

func (s *FSStore) Open(ctx context.Context, handle string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !handleRegex.MatchString(handle) {
		return nil, ErrInvalidHandle
	}

	f, err := os.Open(s.path(handle))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrBlobNotFound
		}
		return nil, fmt.Errorf("failed to open blob: %w", err)
	}
	return f, nil
}

func (s *FSStore) Delete(ctx context.Context, handle string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !handleRegex.MatchString(handle) {
		return ErrInvalidHandle
	}

	if err := os.Remove(s.path(handle)); err != nil {
		if os.IsNotExist(err) {
			return ErrBlobNotFound
		}
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}

func (s *FSStore) List(ctx context.Context) ([]BlobInfo, error) {
	var blobs []BlobInfo

	err := filepath.WalkDir(s.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		if !handleRegex.MatchString(d.Name()) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		blobs = append(blobs, BlobInfo{
			Handle:    d.Name(),
			SizeBytes: info.Size(),
			StoredAt:  info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list blobs: %w", err)
	}

	return blobs, nil
}
