package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"expense-ledger/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrReceiptNotFound = errors.New("receipt not found")

// receiptRepository runs against the receipt index database, never the
// ledger. ExpenseID values stored here are plain values with no foreign key
// behind them.
type receiptRepository struct {
	db *gorm.DB
}

// NewReceiptRepository creates a new receipt repository
func NewReceiptRepository(db *gorm.DB) ReceiptRepositoryInterface {
	return &receiptRepository{db: db}
}

func (r *receiptRepository) Create(ctx context.Context, receipt *models.ReceiptMetadata) error {
	if err := r.db.WithContext(ctx).Create(receipt).Error; err != nil {
		return fmt.Errorf("failed to create receipt metadata: %w", err)
	}
	return nil
}

func (r *receiptRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ReceiptMetadata, error) {
	var receipt models.ReceiptMetadata
	if err := r.db.WithContext(ctx).First(&receipt, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReceiptNotFound
		}
		return nil, fmt.Errorf("failed to get receipt metadata: %w", err)
	}
	return &receipt, nil
}

func (r *receiptRepository) Update(ctx context.Context, receipt *models.ReceiptMetadata) error {
	receipt.UpdatedAt = time.Now()
	if err := r.db.WithContext(ctx).Save(receipt).Error; err != nil {
		return fmt.Errorf("failed to update receipt metadata: %w", err)
	}
	return nil
}

func (r *receiptRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.ReceiptMetadata{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete receipt metadata: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrReceiptNotFound
	}
	return nil
}

func (r *receiptRepository) GetByUserID(ctx context.Context, userID uuid.UUID, offset, limit int) ([]models.ReceiptMetadata, int64, error) {
	return r.page(ctx, r.db.WithContext(ctx).Where("user_id = ?", userID), offset, limit)
}

func (r *receiptRepository) GetByExpenseID(ctx context.Context, expenseID uuid.UUID) ([]models.ReceiptMetadata, error) {
	var receipts []models.ReceiptMetadata
	if err := r.db.WithContext(ctx).
		Where("expense_id = ?", expenseID).
		Order("uploaded_at DESC").
		Find(&receipts).Error; err != nil {
		return nil, fmt.Errorf("failed to get receipts by expense: %w", err)
	}
	return receipts, nil
}

func (r *receiptRepository) GetUnassigned(ctx context.Context, userID uuid.UUID, offset, limit int) ([]models.ReceiptMetadata, int64, error) {
	return r.page(ctx, r.db.WithContext(ctx).Where("user_id = ? AND expense_id IS NULL", userID), offset, limit)
}

func (r *receiptRepository) page(ctx context.Context, query *gorm.DB, offset, limit int) ([]models.ReceiptMetadata, int64, error) {
	var receipts []models.ReceiptMetadata
	var total int64

	if err := query.Model(&models.ReceiptMetadata{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count receipts: %w", err)
	}

	query = query.Order("uploaded_at DESC")
	if offset > 0 {
		query = query.Offset(offset)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&receipts).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to get receipts: %w", err)
	}

	return receipts, total, nil
}

// ClearExpenseRef bulk-nulls the expense reference and reports which receipts
// were touched so a failed ledger delete can be compensated.
func (r *receiptRepository) ClearExpenseRef(ctx context.Context, expenseID uuid.UUID) ([]uuid.UUID, error) {
	var cleared []uuid.UUID

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var receipts []models.ReceiptMetadata
		if err := tx.Select("id").
			Where("expense_id = ?", expenseID).
			Find(&receipts).Error; err != nil {
			return err
		}

		if len(receipts) == 0 {
			return nil
		}

		for _, receipt := range receipts {
			cleared = append(cleared, receipt.ID)
		}

		return tx.Model(&models.ReceiptMetadata{}).
			Where("expense_id = ?", expenseID).
			Updates(map[string]any{
				"expense_id": nil,
				"updated_at": time.Now(),
			}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to clear expense references: %w", err)
	}

	return cleared, nil
}

// RelinkExpenseRef restores the reference on the given receipts. Used only as
// cascade compensation when the ledger-side delete fails.
func (r *receiptRepository) RelinkExpenseRef(ctx context.Context, receiptIDs []uuid.UUID, expenseID uuid.UUID) error {
	if len(receiptIDs) == 0 {
		return nil
	}

	if err := r.db.WithContext(ctx).Model(&models.ReceiptMetadata{}).
		Where("id IN ?", receiptIDs).
		Updates(map[string]any{
			"expense_id": expenseID,
			"updated_at": time.Now(),
		}).Error; err != nil {
		return fmt.Errorf("failed to relink expense references: %w", err)
	}
	return nil
}

// AllBlobHandles lists every content handle referenced by some metadata row.
func (r *receiptRepository) AllBlobHandles(ctx context.Context) ([]string, error) {
	var handles []string
	if err := r.db.WithContext(ctx).Model(&models.ReceiptMetadata{}).
		Distinct().
		Pluck("blob_handle", &handles).Error; err != nil {
		return nil, fmt.Errorf("failed to list blob handles: %w", err)
	}
	return handles, nil
}
