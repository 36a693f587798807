package repositories

import (
	"context"
	"testing"

	"expense-ledger/internal/database"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

func TestReceiptRepository(t *testing.T) {
	suite.Run(t, new(ReceiptRepositorySuite))
}

type ReceiptRepositorySuite struct {
	suite.Suite
	ctx    context.Context
	db     *database.DB
	repo   ReceiptRepositoryInterface
	userID uuid.UUID
}

func (s *ReceiptRepositorySuite) SetupTest() {
	s.ctx = context.Background()
	s.db = database.SetupTestReceiptIndex(s.T())
	s.repo = NewReceiptRepository(s.db.DB)
	s.userID = uuid.New()
}

func (s *ReceiptRepositorySuite) TearDownTest() {
	database.CleanupTestDB(s.T(), s.db)
}

func (s *ReceiptRepositorySuite) TestCreateAndGet() {
	receipt := database.CreateTestReceipt(s.T(), s.db, s.userID, nil, "handle-1")

	found, err := s.repo.GetByID(s.ctx, receipt.ID)
	s.NoError(err)
	s.Equal(s.userID, found.UserID)
	s.Nil(found.ExpenseID)
	s.NotZero(found.UploadedAt)

	_, err = s.repo.GetByID(s.ctx, uuid.New())
	s.ErrorIs(err, ErrReceiptNotFound)
}

func (s *ReceiptRepositorySuite) TestUpdate() {
	receipt := database.CreateTestReceipt(s.T(), s.db, s.userID, nil, "handle-1")

	expenseID := uuid.New()
	receipt.ExpenseID = &expenseID
	receipt.Notes = "paid in cash"
	s.NoError(s.repo.Update(s.ctx, receipt))

	found, err := s.repo.GetByID(s.ctx, receipt.ID)
	s.NoError(err)
	s.NotNil(found.ExpenseID)
	s.Equal(expenseID, *found.ExpenseID)
	s.Equal("paid in cash", found.Notes)
}

func (s *ReceiptRepositorySuite) TestDelete() {
	receipt := database.CreateTestReceipt(s.T(), s.db, s.userID, nil, "handle-1")

	s.NoError(s.repo.Delete(s.ctx, receipt.ID))
	s.ErrorIs(s.repo.Delete(s.ctx, receipt.ID), ErrReceiptNotFound)
}

func (s *ReceiptRepositorySuite) TestGetByUserID() {
	database.CreateTestReceipt(s.T(), s.db, s.userID, nil, "handle-1")
	database.CreateTestReceipt(s.T(), s.db, s.userID, nil, "handle-2")
	database.CreateTestReceipt(s.T(), s.db, uuid.New(), nil, "handle-3")

	receipts, total, err := s.repo.GetByUserID(s.ctx, s.userID, 0, 50)
	s.NoError(err)
	s.EqualValues(2, total)
	s.Len(receipts, 2)
}

func (s *ReceiptRepositorySuite) TestGetByExpenseID() {
	expenseID := uuid.New()
	database.CreateTestReceipt(s.T(), s.db, s.userID, &expenseID, "handle-1")
	database.CreateTestReceipt(s.T(), s.db, s.userID, &expenseID, "handle-2")
	database.CreateTestReceipt(s.T(), s.db, s.userID, nil, "handle-3")

	receipts, err := s.repo.GetByExpenseID(s.ctx, expenseID)
	s.NoError(err)
	s.Len(receipts, 2)
}

func (s *ReceiptRepositorySuite) TestGetUnassigned() {
	expenseID := uuid.New()
	database.CreateTestReceipt(s.T(), s.db, s.userID, &expenseID, "handle-1")
	unassigned := database.CreateTestReceipt(s.T(), s.db, s.userID, nil, "handle-2")

	receipts, total, err := s.repo.GetUnassigned(s.ctx, s.userID, 0, 50)
	s.NoError(err)
	s.EqualValues(1, total)
	s.Equal(unassigned.ID, receipts[0].ID)
}

func (s *ReceiptRepositorySuite) TestClearExpenseRef() {
	expenseID := uuid.New()
	otherExpenseID := uuid.New()
	linked1 := database.CreateTestReceipt(s.T(), s.db, s.userID, &expenseID, "handle-1")
	linked2 := database.CreateTestReceipt(s.T(), s.db, s.userID, &expenseID, "handle-2")
	untouched := database.CreateTestReceipt(s.T(), s.db, s.userID, &otherExpenseID, "handle-3")

	cleared, err := s.repo.ClearExpenseRef(s.ctx, expenseID)
	s.NoError(err)
	s.Len(cleared, 2)
	s.Contains(cleared, linked1.ID)
	s.Contains(cleared, linked2.ID)

	for _, id := range cleared {
		receipt, err := s.repo.GetByID(s.ctx, id)
		s.NoError(err)
		s.Nil(receipt.ExpenseID)
	}

	// receipts linked to other expenses are untouched
	receipt, err := s.repo.GetByID(s.ctx, untouched.ID)
	s.NoError(err)
	s.NotNil(receipt.ExpenseID)
	s.Equal(otherExpenseID, *receipt.ExpenseID)
}

func (s *ReceiptRepositorySuite) TestClearExpenseRef_NoLinks() {
	cleared, err := s.repo.ClearExpenseRef(s.ctx, uuid.New())
	s.NoError(err)
	s.Empty(cleared)
}

func (s *ReceiptRepositorySuite) TestRelinkExpenseRef() {
	expenseID := uuid.New()
	receipt := database.CreateTestReceipt(s.T(), s.db, s.userID, &expenseID, "handle-1")

	cleared, err := s.repo.ClearExpenseRef(s.ctx, expenseID)
	s.NoError(err)
	s.Len(cleared, 1)

	s.NoError(s.repo.RelinkExpenseRef(s.ctx, cleared, expenseID))

	restored, err := s.repo.GetByID(s.ctx, receipt.ID)
	s.NoError(err)
	s.NotNil(restored.ExpenseID)
	s.Equal(expenseID, *restored.ExpenseID)
}

func (s *ReceiptRepositorySuite) TestAllBlobHandles() {
	database.CreateTestReceipt(s.T(), s.db, s.userID, nil, "handle-1")
	database.CreateTestReceipt(s.T(), s.db, s.userID, nil, "handle-2")
	database.CreateTestReceipt(s.T(), s.db, uuid.New(), nil, "handle-2")

	handles, err := s.repo.AllBlobHandles(s.ctx)
	s.NoError(err)
	s.Len(handles, 2)
	s.Contains(handles, "handle-1")
	s.Contains(handles, "handle-2")
}
