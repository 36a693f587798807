package services

import (
	"context"
	"errors"
	"time"

	apperrors "expense-ledger/internal/errors"
	"expense-ledger/internal/models"
	"expense-ledger/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	DefaultSearchLimit = 20
	MaxSearchLimit     = 1000
)

// searchService composes a single AND predicate from the supplied criteria
// and runs it against the ledger. The engine holds no state; validation
// happens here, at the caller boundary, before any storage access.
type searchService struct {
	expenseRepo  repositories.ExpenseRepositoryInterface
	categoryRepo repositories.CategoryRepositoryInterface
	userRepo     repositories.UserRepositoryInterface
	metrics      MetricsRecorderInterface
}

// NewSearchService creates a new search service
func NewSearchService(
	expenseRepo repositories.ExpenseRepositoryInterface,
	categoryRepo repositories.CategoryRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	metrics MetricsRecorderInterface,
) SearchServiceInterface {
	if metrics == nil {
		metrics = NewNoopMetrics()
	}
	return &searchService{
		expenseRepo:  expenseRepo,
		categoryRepo: categoryRepo,
		userRepo:     userRepo,
		metrics:      metrics,
	}
}

// SearchExpenses runs the composed predicate with pagination. With no
// criteria supplied, every expense of the user matches.
func (s *searchService) SearchExpenses(ctx context.Context, userID uuid.UUID, filters models.ExpenseFilters, offset, limit int) ([]models.Expense, int64, error) {
	start := time.Now()

	if err := s.validate(ctx, userID, filters); err != nil {
		s.metrics.RecordSearch(time.Since(start), "rejected")
		return nil, 0, err
	}

	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}
	if offset < 0 {
		offset = 0
	}

	expenses, total, err := s.expenseRepo.GetWithFilters(ctx, userID, filters, offset, limit)
	if err != nil {
		s.metrics.RecordSearch(time.Since(start), "error")
		return nil, 0, apperrors.Wrap(apperrors.StorageTransient, err)
	}

	s.metrics.RecordSearch(time.Since(start), "ok")
	return expenses, total, nil
}

// SumExpenses totals the amounts matching the composed predicate. Amounts
// are never converted, so the caller should constrain the filters to one
// currency for a meaningful sum.
func (s *searchService) SumExpenses(ctx context.Context, userID uuid.UUID, filters models.ExpenseFilters) (decimal.Decimal, error) {
	if err := s.validate(ctx, userID, filters); err != nil {
		return decimal.Zero, err
	}

	total, err := s.expenseRepo.SumWithFilters(ctx, userID, filters)
	if err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.StorageTransient, err)
	}
	return total, nil
}

// validate fails fast on inverted ranges before touching expense storage,
// then checks that the user and any referenced category exist and agree on
// ownership.
func (s *searchService) validate(ctx context.Context, userID uuid.UUID, filters models.ExpenseFilters) error {
	if err := filters.Validate(); err != nil {
		switch {
		case errors.Is(err, models.ErrInvertedDateRange):
			return apperrors.New(apperrors.InvalidDateRange)
		case errors.Is(err, models.ErrInvertedAmountRange):
			return apperrors.New(apperrors.InvalidAmountRange)
		default:
			return apperrors.Wrap(apperrors.ValidationFailed, err)
		}
	}

	exists, err := s.userRepo.Exists(ctx, userID)
	if err != nil {
		return apperrors.Wrap(apperrors.StorageTransient, err)
	}
	if !exists {
		return apperrors.New(apperrors.UserNotFound)
	}

	if filters.CategoryID != nil {
		category, err := s.categoryRepo.GetByID(ctx, *filters.CategoryID)
		if err != nil {
			if errors.Is(err, repositories.ErrCategoryNotFound) {
				return apperrors.New(apperrors.CategoryNotFound)
			}
			return apperrors.Wrap(apperrors.StorageTransient, err)
		}
		if category.UserID != userID {
			return apperrors.New(apperrors.CategoryNotOwned)
		}
	}

	return nil
}
