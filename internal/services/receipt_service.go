package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"expense-ledger/internal/blobstore"
	apperrors "expense-ledger/internal/errors"
	"expense-ledger/internal/models"
	"expense-ledger/internal/repositories"
	"expense-ledger/internal/validation"

	"github.com/google/uuid"
)

// receiptService coordinates the receipt index, the blob store, and the
// ledger. No transaction spans the stores, so every cross-store mutation
// follows a fixed, idempotent ordering:
//
//   - upload: blob first, metadata second. A metadata failure orphans the
//     blob (reclaimed by the sweeper) instead of losing content.
//   - delete: metadata first, blob second. A blob failure orphans the blob
//     instead of leaving metadata pointing at vanished content.
//
// Receipt state machine: Unlinked -> Linked (link), Linked -> Unlinked
// (unlink or expense-delete cascade), Linked -> Linked' (re-link), any ->
// Deleted (delete). Nothing else is valid.
type receiptService struct {
	receiptRepo repositories.ReceiptRepositoryInterface
	expenseRepo repositories.ExpenseRepositoryInterface
	userRepo    repositories.UserRepositoryInterface
	blobs       blobstore.Store
	metrics     MetricsRecorderInterface
	validator   *validation.Validator
	logger      *slog.Logger
}

// NewReceiptService creates a new receipt service
func NewReceiptService(
	receiptRepo repositories.ReceiptRepositoryInterface,
	expenseRepo repositories.ExpenseRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	blobs blobstore.Store,
	metrics MetricsRecorderInterface,
	logger *slog.Logger,
) ReceiptServiceInterface {
	if metrics == nil {
		metrics = NewNoopMetrics()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &receiptService{
		receiptRepo: receiptRepo,
		expenseRepo: expenseRepo,
		userRepo:    userRepo,
		blobs:       blobs,
		metrics:     metrics,
		validator:   validation.GetValidator(),
		logger:      logger,
	}
}

// UploadReceipt stores the content and creates its metadata. If an expense
// is named, its existence and ownership are checked before any byte is
// written, so a rejected upload never orphans a blob.
func (s *receiptService) UploadReceipt(ctx context.Context, userID uuid.UUID, input UploadReceiptInput) (*models.ReceiptMetadata, error) {
	if err := s.validator.ValidateStruct(input); err != nil {
		s.metrics.RecordReceiptOp("upload", "rejected")
		return nil, apperrors.Wrap(apperrors.ValidationFailed, err)
	}

	exists, err := s.userRepo.Exists(ctx, userID)
	if err != nil {
		s.metrics.RecordReceiptOp("upload", "error")
		return nil, apperrors.Wrap(apperrors.StorageTransient, err)
	}
	if !exists {
		s.metrics.RecordReceiptOp("upload", "rejected")
		return nil, apperrors.New(apperrors.UserNotFound)
	}

	if input.ExpenseID != nil {
		if _, err := s.getOwnedExpense(ctx, userID, *input.ExpenseID); err != nil {
			s.metrics.RecordReceiptOp("upload", "rejected")
			return nil, err
		}
	}

	handle, size, err := s.blobs.Store(ctx, input.Content, input.Filename, input.MimeType)
	if err != nil {
		s.metrics.RecordReceiptOp("upload", "error")
		return nil, apperrors.Wrap(apperrors.StorageTransient, fmt.Errorf("failed to store receipt content: %w", err))
	}

	receipt := &models.ReceiptMetadata{
		UserID:     userID,
		ExpenseID:  input.ExpenseID,
		Filename:   input.Filename,
		MimeType:   input.MimeType,
		SizeBytes:  size,
		Notes:      input.Notes,
		BlobHandle: handle,
	}

	if err := s.receiptRepo.Create(ctx, receipt); err != nil {
		// The blob is already durable. Leaving it orphaned loses nothing;
		// the sweeper reclaims it later.
		s.logger.Error("receipt metadata write failed after blob store, blob orphaned",
			"user_id", userID,
			"blob_handle", handle,
			"error", err)
		s.metrics.RecordReceiptOp("upload", "partial")
		return nil, apperrors.Wrap(apperrors.PartialConsistency,
			fmt.Errorf("receipt content stored as %s but metadata write failed: %w", handle, err))
	}

	s.metrics.RecordReceiptOp("upload", "ok")
	s.logger.Info("receipt uploaded",
		"receipt_id", receipt.ID,
		"user_id", userID,
		"size_bytes", size)
	return receipt, nil
}

func (s *receiptService) GetReceipt(ctx context.Context, userID, receiptID uuid.UUID) (*models.ReceiptMetadata, error) {
	return s.getOwnedReceipt(ctx, userID, receiptID)
}

// DownloadReceipt opens the content stream. The caller closes it.
func (s *receiptService) DownloadReceipt(ctx context.Context, userID, receiptID uuid.UUID) (io.ReadCloser, *models.ReceiptMetadata, error) {
	receipt, err := s.getOwnedReceipt(ctx, userID, receiptID)
	if err != nil {
		return nil, nil, err
	}

	content, err := s.blobs.Open(ctx, receipt.BlobHandle)
	if err != nil {
		if errors.Is(err, blobstore.ErrBlobNotFound) {
			return nil, nil, apperrors.New(apperrors.BlobNotFound)
		}
		return nil, nil, apperrors.Wrap(apperrors.StorageTransient, err)
	}

	return content, receipt, nil
}

func (s *receiptService) UpdateReceiptNotes(ctx context.Context, userID, receiptID uuid.UUID, notes string) (*models.ReceiptMetadata, error) {
	receipt, err := s.getOwnedReceipt(ctx, userID, receiptID)
	if err != nil {
		return nil, err
	}

	receipt.Notes = notes
	if err := s.receiptRepo.Update(ctx, receipt); err != nil {
		return nil, apperrors.Wrap(apperrors.StorageTransient, err)
	}
	return receipt, nil
}

// LinkReceipt points the receipt at the expense. Linking to the current
// target is a no-op success; linking elsewhere drops the previous link.
func (s *receiptService) LinkReceipt(ctx context.Context, userID, receiptID, expenseID uuid.UUID) (*models.ReceiptMetadata, error) {
	receipt, err := s.getOwnedReceipt(ctx, userID, receiptID)
	if err != nil {
		s.metrics.RecordReceiptOp("link", "rejected")
		return nil, err
	}

	if receipt.LinkedTo(expenseID) {
		s.metrics.RecordReceiptOp("link", "noop")
		return receipt, nil
	}

	if _, err := s.getOwnedExpense(ctx, userID, expenseID); err != nil {
		s.metrics.RecordReceiptOp("link", "rejected")
		return nil, err
	}

	receipt.ExpenseID = &expenseID
	if err := s.receiptRepo.Update(ctx, receipt); err != nil {
		s.metrics.RecordReceiptOp("link", "error")
		return nil, apperrors.Wrap(apperrors.StorageTransient, err)
	}

	s.metrics.RecordReceiptOp("link", "ok")
	s.logger.Info("receipt linked", "receipt_id", receiptID, "expense_id", expenseID)
	return receipt, nil
}

// UnlinkReceipt clears the expense reference. Unlinking an already-unlinked
// receipt succeeds silently.
func (s *receiptService) UnlinkReceipt(ctx context.Context, userID, receiptID uuid.UUID) (*models.ReceiptMetadata, error) {
	receipt, err := s.getOwnedReceipt(ctx, userID, receiptID)
	if err != nil {
		s.metrics.RecordReceiptOp("unlink", "rejected")
		return nil, err
	}

	if !receipt.IsLinked() {
		s.metrics.RecordReceiptOp("unlink", "noop")
		return receipt, nil
	}

	receipt.ExpenseID = nil
	if err := s.receiptRepo.Update(ctx, receipt); err != nil {
		s.metrics.RecordReceiptOp("unlink", "error")
		return nil, apperrors.Wrap(apperrors.StorageTransient, err)
	}

	s.metrics.RecordReceiptOp("unlink", "ok")
	return receipt, nil
}

// DeleteReceipt removes the metadata first and the content second. Deleting
// the blob first could leave metadata pointing at vanished content on a
// partial failure; the reverse order can only leave an orphaned blob, which
// the sweeper reclaims.
func (s *receiptService) DeleteReceipt(ctx context.Context, userID, receiptID uuid.UUID) error {
	receipt, err := s.getOwnedReceipt(ctx, userID, receiptID)
	if err != nil {
		s.metrics.RecordReceiptOp("delete", "rejected")
		return err
	}

	if err := s.receiptRepo.Delete(ctx, receipt.ID); err != nil {
		if errors.Is(err, repositories.ErrReceiptNotFound) {
			// Deleted concurrently; the end state is what we wanted.
			s.metrics.RecordReceiptOp("delete", "noop")
			return nil
		}
		s.metrics.RecordReceiptOp("delete", "error")
		return apperrors.Wrap(apperrors.StorageTransient, err)
	}

	if err := s.blobs.Delete(ctx, receipt.BlobHandle); err != nil && !errors.Is(err, blobstore.ErrBlobNotFound) {
		// Metadata is gone, so nothing references the blob. The invariant
		// holds; the orphan is a leak for the sweeper, not a failure.
		s.logger.Warn("blob delete failed after metadata delete, blob orphaned",
			"receipt_id", receiptID,
			"blob_handle", receipt.BlobHandle,
			"error", err)
		s.metrics.RecordReceiptOp("delete", "partial")
		return nil
	}

	s.metrics.RecordReceiptOp("delete", "ok")
	s.logger.Info("receipt deleted", "receipt_id", receiptID, "user_id", userID)
	return nil
}

func (s *receiptService) ListReceipts(ctx context.Context, userID uuid.UUID, offset, limit int) ([]models.ReceiptMetadata, int64, error) {
	receipts, total, err := s.receiptRepo.GetByUserID(ctx, userID, offset, limit)
	if err != nil {
		return nil, 0, apperrors.Wrap(apperrors.StorageTransient, err)
	}
	return receipts, total, nil
}

func (s *receiptService) ListReceiptsByExpense(ctx context.Context, userID, expenseID uuid.UUID) ([]models.ReceiptMetadata, error) {
	if _, err := s.getOwnedExpense(ctx, userID, expenseID); err != nil {
		return nil, err
	}

	receipts, err := s.receiptRepo.GetByExpenseID(ctx, expenseID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.StorageTransient, err)
	}
	return receipts, nil
}

func (s *receiptService) ListUnassignedReceipts(ctx context.Context, userID uuid.UUID, offset, limit int) ([]models.ReceiptMetadata, int64, error) {
	receipts, total, err := s.receiptRepo.GetUnassigned(ctx, userID, offset, limit)
	if err != nil {
		return nil, 0, apperrors.Wrap(apperrors.StorageTransient, err)
	}
	return receipts, total, nil
}

// getOwnedReceipt loads the receipt and applies the uniform authorization
// check: a receipt belonging to a different user is a fixed error, never
// silently re-scoped.
func (s *receiptService) getOwnedReceipt(ctx context.Context, userID, receiptID uuid.UUID) (*models.ReceiptMetadata, error) {
	receipt, err := s.receiptRepo.GetByID(ctx, receiptID)
	if err != nil {
		if errors.Is(err, repositories.ErrReceiptNotFound) {
			return nil, apperrors.New(apperrors.ReceiptNotFound)
		}
		return nil, apperrors.Wrap(apperrors.StorageTransient, err)
	}
	if receipt.UserID != userID {
		return nil, apperrors.New(apperrors.ReceiptNotOwned)
	}
	return receipt, nil
}

func (s *receiptService) getOwnedExpense(ctx context.Context, userID, expenseID uuid.UUID) (*models.Expense, error) {
	expense, err := s.expenseRepo.GetByID(ctx, expenseID)
	if err != nil {
		if errors.Is(err, repositories.ErrExpenseNotFound) {
			return nil, apperrors.New(apperrors.ExpenseNotFound)
		}
		return nil, apperrors.Wrap(apperrors.StorageTransient, err)
	}
	if expense.UserID != userID {
		return nil, apperrors.New(apperrors.ExpenseNotOwned)
	}
	return expense, nil
}
