package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"expense-ledger/internal/cache"
	apperrors "expense-ledger/internal/errors"
	"expense-ledger/internal/models"
	"expense-ledger/internal/repositories"
	"expense-ledger/internal/validation"

	"github.com/google/uuid"
)

type expenseService struct {
	expenseRepo  repositories.ExpenseRepositoryInterface
	categoryRepo repositories.CategoryRepositoryInterface
	userRepo     repositories.UserRepositoryInterface
	receiptRepo  repositories.ReceiptRepositoryInterface
	reportCache  *cache.Client
	metrics      MetricsRecorderInterface
	validator    *validation.Validator
	logger       *slog.Logger
}

// NewExpenseService creates a new expense service. reportCache may be nil.
func NewExpenseService(
	expenseRepo repositories.ExpenseRepositoryInterface,
	categoryRepo repositories.CategoryRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	receiptRepo repositories.ReceiptRepositoryInterface,
	reportCache *cache.Client,
	metrics MetricsRecorderInterface,
	logger *slog.Logger,
) ExpenseServiceInterface {
	if metrics == nil {
		metrics = NewNoopMetrics()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &expenseService{
		expenseRepo:  expenseRepo,
		categoryRepo: categoryRepo,
		userRepo:     userRepo,
		receiptRepo:  receiptRepo,
		reportCache:  reportCache,
		metrics:      metrics,
		validator:    validation.GetValidator(),
		logger:       logger,
	}
}

// CreateExpense validates and persists a new expense. The currency code is
// uppercased before it is written so stored values and filter comparisons
// always agree.
func (s *expenseService) CreateExpense(ctx context.Context, userID uuid.UUID, input CreateExpenseInput) (*models.Expense, error) {
	if err := s.validator.ValidateStruct(input); err != nil {
		return nil, apperrors.Wrap(apperrors.ValidationFailed, err)
	}

	exists, err := s.userRepo.Exists(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.StorageTransient, err)
	}
	if !exists {
		return nil, apperrors.New(apperrors.UserNotFound)
	}

	if _, err := s.getOwnedCategory(ctx, userID, input.CategoryID); err != nil {
		return nil, err
	}

	expense := &models.Expense{
		UserID:      userID,
		CategoryID:  input.CategoryID,
		Amount:      input.Amount,
		Currency:    models.NormalizeCurrency(input.Currency),
		Date:        input.Date,
		Description: input.Description,
		Tags:        models.NormalizeTags(input.Tags),
	}

	if err := expense.Validate(time.Now()); err != nil {
		return nil, apperrors.Wrap(apperrors.ValidationFailed, err)
	}

	if err := s.expenseRepo.Create(ctx, expense); err != nil {
		return nil, apperrors.Wrap(apperrors.StorageTransient, err)
	}

	s.invalidateReports(ctx, userID)
	s.logger.Info("expense created", "expense_id", expense.ID, "user_id", userID)
	return expense, nil
}

// UpdateExpense applies the non-nil fields of the input. Changing the
// category re-checks ownership against the expense owner.
func (s *expenseService) UpdateExpense(ctx context.Context, userID, expenseID uuid.UUID, input UpdateExpenseInput) (*models.Expense, error) {
	if err := s.validator.ValidateStruct(input); err != nil {
		return nil, apperrors.Wrap(apperrors.ValidationFailed, err)
	}

	expense, err := s.getOwnedExpense(ctx, userID, expenseID)
	if err != nil {
		return nil, err
	}

	if input.CategoryID != nil {
		if _, err := s.getOwnedCategory(ctx, userID, *input.CategoryID); err != nil {
			return nil, err
		}
		expense.CategoryID = *input.CategoryID
	}
	if input.Amount != nil {
		expense.Amount = *input.Amount
	}
	if input.Currency != nil {
		expense.Currency = models.NormalizeCurrency(*input.Currency)
	}
	if input.Date != nil {
		expense.Date = *input.Date
	}
	if input.Description != nil {
		expense.Description = *input.Description
	}
	if input.Tags != nil {
		expense.Tags = models.NormalizeTags(input.Tags)
	}
	expense.UpdatedAt = time.Now()

	if err := expense.Validate(time.Now()); err != nil {
		return nil, apperrors.Wrap(apperrors.ValidationFailed, err)
	}

	if err := s.expenseRepo.Update(ctx, expense); err != nil {
		return nil, apperrors.Wrap(apperrors.StorageTransient, err)
	}

	s.invalidateReports(ctx, userID)
	return expense, nil
}

func (s *expenseService) GetExpense(ctx context.Context, userID, expenseID uuid.UUID) (*models.Expense, error) {
	return s.getOwnedExpense(ctx, userID, expenseID)
}

// DeleteExpense removes the expense and clears the expense reference on
// every receipt that pointed at it, so no receipt is ever left dangling
// across the store boundary.
//
// There is no transaction spanning both stores. The receipt references are
// cleared first; the ledger delete then runs inside its own transaction. If
// the ledger delete fails, the cleared references are restored. Only when
// that compensation also fails does the operation report partial
// consistency — at that point the receipts are unlinked but the expense
// still exists, which leaves no dangling reference, only lost links.
func (s *expenseService) DeleteExpense(ctx context.Context, userID, expenseID uuid.UUID) error {
	expense, err := s.getOwnedExpense(ctx, userID, expenseID)
	if err != nil {
		return err
	}

	cleared, err := s.receiptRepo.ClearExpenseRef(ctx, expense.ID)
	if err != nil {
		return apperrors.Wrap(apperrors.StorageTransient, err)
	}
	s.metrics.RecordCascadeCleared(len(cleared))

	if err := s.expenseRepo.Delete(ctx, expense.ID); err != nil {
		if errors.Is(err, repositories.ErrExpenseNotFound) {
			// Deleted concurrently; references are already cleared, which is
			// the required end state. Relinking here would recreate dangling
			// references.
			return nil
		}
		if relinkErr := s.receiptRepo.RelinkExpenseRef(ctx, cleared, expense.ID); relinkErr != nil {
			s.logger.Error("failed to restore receipt links after ledger delete failure",
				"expense_id", expense.ID,
				"receipt_count", len(cleared),
				"delete_error", err,
				"relink_error", relinkErr)
			return apperrors.Wrap(apperrors.PartialConsistency,
				fmt.Errorf("expense delete failed and %d receipt links were not restored: %w", len(cleared), err))
		}
		return apperrors.Wrap(apperrors.StorageTransient, err)
	}

	s.invalidateReports(ctx, userID)
	s.logger.Info("expense deleted",
		"expense_id", expense.ID,
		"user_id", userID,
		"receipts_unlinked", len(cleared))
	return nil
}

func (s *expenseService) getOwnedExpense(ctx context.Context, userID, expenseID uuid.UUID) (*models.Expense, error) {
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

func (s *expenseService) getOwnedCategory(ctx context.Context, userID, categoryID uuid.UUID) (*models.Category, error) {
	category, err := s.categoryRepo.GetByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, repositories.ErrCategoryNotFound) {
			return nil, apperrors.New(apperrors.CategoryNotFound)
		}
		return nil, apperrors.Wrap(apperrors.StorageTransient, err)
	}
	if category.UserID != userID {
		return nil, apperrors.New(apperrors.CategoryNotOwned)
	}
	return category, nil
}

func (s *expenseService) invalidateReports(ctx context.Context, userID uuid.UUID) {
	_ = s.reportCache.DeleteByPattern(ctx, reportCachePattern(userID))
}
