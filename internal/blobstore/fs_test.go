package blobstore

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
)

func TestFSStore(t *testing.T) {
	suite.Run(t, new(FSStoreSuite))
}

type FSStoreSuite struct {
	suite.Suite
	ctx   context.Context
	store *FSStore
}

func (s *FSStoreSuite) SetupTest() {
	s.ctx = context.Background()

	store, err := NewFSStore(s.T().TempDir())
	s.Require().NoError(err)
	s.store = store
}

func (s *FSStoreSuite) TestStoreOpenRoundTrip() {
	handle, size, err := s.store.Store(s.ctx, strings.NewReader("receipt content"), "receipt.pdf", "application/pdf")
	s.Require().NoError(err)
	s.EqualValues(len("receipt content"), size)
	s.NotEmpty(handle)

	reader, err := s.store.Open(s.ctx, handle)
	s.Require().NoError(err)
	defer reader.Close()

	data, err := io.ReadAll(reader)
	s.NoError(err)
	s.Equal("receipt content", string(data))
}

func (s *FSStoreSuite) TestOpen_UnknownHandle() {
	handle, _, err := s.store.Store(s.ctx, strings.NewReader("x"), "f", "")
	s.Require().NoError(err)
	s.Require().NoError(s.store.Delete(s.ctx, handle))

	_, err = s.store.Open(s.ctx, handle)
	s.ErrorIs(err, ErrBlobNotFound)
}

func (s *FSStoreSuite) TestOpen_InvalidHandle() {
	for _, handle := range []string{"", "../etc/passwd", "not-a-handle"} {
		_, err := s.store.Open(s.ctx, handle)
		s.ErrorIs(err, ErrInvalidHandle, "handle %q", handle)
	}
}

func (s *FSStoreSuite) TestDelete() {
	handle, _, err := s.store.Store(s.ctx, strings.NewReader("x"), "f", "")
	s.Require().NoError(err)

	s.NoError(s.store.Delete(s.ctx, handle))
	s.ErrorIs(s.store.Delete(s.ctx, handle), ErrBlobNotFound)
}

func (s *FSStoreSuite) TestDelete_InvalidHandle() {
	s.ErrorIs(s.store.Delete(s.ctx, "../../escape"), ErrInvalidHandle)
}

func (s *FSStoreSuite) TestList() {
	first, _, err := s.store.Store(s.ctx, strings.NewReader("aa"), "f", "")
	s.Require().NoError(err)
	second, _, err := s.store.Store(s.ctx, strings.NewReader("bbbb"), "f", "")
	s.Require().NoError(err)

	blobs, err := s.store.List(s.ctx)
	s.NoError(err)
	s.Len(blobs, 2)

	sizes := make(map[string]int64)
	for _, blob := range blobs {
		sizes[blob.Handle] = blob.SizeBytes
		s.False(blob.StoredAt.IsZero())
	}
	s.EqualValues(2, sizes[first])
	s.EqualValues(4, sizes[second])
}

func (s *FSStoreSuite) TestList_Empty() {
	blobs, err := s.store.List(s.ctx)
	s.NoError(err)
	s.Empty(blobs)
}
