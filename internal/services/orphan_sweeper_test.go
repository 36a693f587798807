package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"expense-ledger/internal/blobstore"
	"expense-ledger/internal/database"
	"expense-ledger/internal/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

func TestOrphanSweeper(t *testing.T) {
	suite.Run(t, new(OrphanSweeperSuite))
}

type OrphanSweeperSuite struct {
	suite.Suite
	ctx         context.Context
	index       *database.DB
	blobs       *blobstore.MemoryStore
	receiptRepo repositories.ReceiptRepositoryInterface
	metrics     *countingMetrics
	sweeper     *OrphanSweeper
}

func (s *OrphanSweeperSuite) SetupTest() {
	s.ctx = context.Background()
	s.index = database.SetupTestReceiptIndex(s.T())
	s.blobs = blobstore.NewMemoryStore()
	s.receiptRepo = repositories.NewReceiptRepository(s.index.DB)
	s.metrics = newCountingMetrics()
	s.sweeper = NewOrphanSweeper(s.receiptRepo, s.blobs, s.metrics, nil, time.Hour, 10*time.Minute, 1000)
}

func (s *OrphanSweeperSuite) TearDownTest() {
	database.CleanupTestDB(s.T(), s.index)
}

// storeBlob writes content and backdates it past the grace period.
func (s *OrphanSweeperSuite) storeBlob(content string) string {
	handle, _, err := s.blobs.Store(s.ctx, strings.NewReader(content), "f", "")
	s.Require().NoError(err)
	s.blobs.SetStoredAt(handle, time.Now().Add(-time.Hour))
	return handle
}

func (s *OrphanSweeperSuite) TestSweep_ReclaimsOrphans() {
	referenced := s.storeBlob("kept")
	orphan := s.storeBlob("leaked")
	database.CreateTestReceipt(s.T(), s.index, uuid.New(), nil, referenced)

	reclaimed, err := s.sweeper.SweepOnce(s.ctx)
	s.NoError(err)
	s.Equal(1, reclaimed)
	s.True(s.blobs.Contains(referenced))
	s.False(s.blobs.Contains(orphan))
	s.Equal(1, s.metrics.orphansReclaimed)
}

// A blob inside the grace period is never touched, even when unreferenced:
// its metadata write may still be in flight.
func (s *OrphanSweeperSuite) TestSweep_GracePeriodProtectsFreshBlobs() {
	fresh, _, err := s.blobs.Store(s.ctx, strings.NewReader("uploading"), "f", "")
	s.Require().NoError(err)

	reclaimed, err := s.sweeper.SweepOnce(s.ctx)
	s.NoError(err)
	s.Zero(reclaimed)
	s.True(s.blobs.Contains(fresh))
}

func (s *OrphanSweeperSuite) TestSweep_NothingToDo() {
	referenced := s.storeBlob("kept")
	database.CreateTestReceipt(s.T(), s.index, uuid.New(), nil, referenced)

	reclaimed, err := s.sweeper.SweepOnce(s.ctx)
	s.NoError(err)
	s.Zero(reclaimed)
	s.Zero(s.metrics.orphansReclaimed)
}

func (s *OrphanSweeperSuite) TestSweep_Repeatable() {
	s.storeBlob("leaked")

	reclaimed, err := s.sweeper.SweepOnce(s.ctx)
	s.NoError(err)
	s.Equal(1, reclaimed)

	reclaimed, err = s.sweeper.SweepOnce(s.ctx)
	s.NoError(err)
	s.Zero(reclaimed)
}
