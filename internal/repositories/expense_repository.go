package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"expense-ledger/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var ErrExpenseNotFound = errors.New("expense not found")

type expenseRepository struct {
	db *gorm.DB
}

// NewExpenseRepository creates a new expense repository
func NewExpenseRepository(db *gorm.DB) ExpenseRepositoryInterface {
	return &expenseRepository{db: db}
}

// Create persists an expense together with its tag set.
func (r *expenseRepository) Create(ctx context.Context, expense *models.Expense) error {
	if err := r.db.WithContext(ctx).Create(expense).Error; err != nil {
		return fmt.Errorf("failed to create expense: %w", err)
	}
	return nil
}

func (r *expenseRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Expense, error) {
	var expense models.Expense
	if err := r.db.WithContext(ctx).
		Preload("Tags").
		Preload("Category").
		First(&expense, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrExpenseNotFound
		}
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	return &expense, nil
}

// Update saves the expense and replaces its tag set in one transaction.
func (r *expenseRepository) Update(ctx context.Context, expense *models.Expense) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("expense_id = ?", expense.ID).
			Delete(&models.ExpenseTag{}).Error; err != nil {
			return err
		}

		tags := expense.Tags
		expense.Tags = nil
		if err := tx.Omit("Tags").Save(expense).Error; err != nil {
			return err
		}

		for i := range tags {
			tags[i].ID = uuid.Nil
			tags[i].ExpenseID = expense.ID
		}
		if len(tags) > 0 {
			if err := tx.Create(&tags).Error; err != nil {
				return err
			}
		}
		expense.Tags = tags
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	return nil
}

// Delete removes the expense and its tags in one ledger transaction. The
// caller is responsible for the cross-store receipt cascade.
func (r *expenseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	var affected int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("expense_id = ?", id).
			Delete(&models.ExpenseTag{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Expense{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		affected = result.RowsAffected
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if affected == 0 {
		return ErrExpenseNotFound
	}
	return nil
}

// applyFilters translates the composed filter value into WHERE clauses.
// Absent criteria contribute nothing. The SQL semantics must stay in lockstep
// with models.ExpenseFilters.Matches.
func (r *expenseRepository) applyFilters(db *gorm.DB, userID uuid.UUID, filters models.ExpenseFilters) *gorm.DB {
	query := db.Model(&models.Expense{}).Where("expenses.user_id = ?", userID)

	if filters.FromDate != nil {
		query = query.Where("expenses.date >= ?", *filters.FromDate)
	}
	if filters.ToDate != nil {
		query = query.Where("expenses.date <= ?", *filters.ToDate)
	}
	if filters.CategoryID != nil {
		query = query.Where("expenses.category_id = ?", *filters.CategoryID)
	}
	if filters.MinAmount != nil {
		query = query.Where("expenses.amount >= ?", *filters.MinAmount)
	}
	if filters.MaxAmount != nil {
		query = query.Where("expenses.amount <= ?", *filters.MaxAmount)
	}
	if currency := strings.TrimSpace(filters.Currency); currency != "" {
		query = query.Where("UPPER(expenses.currency) = ?", models.NormalizeCurrency(currency))
	}
	if tag := strings.TrimSpace(filters.Tag); tag != "" {
		query = query.Where(
			"EXISTS (SELECT 1 FROM expense_tags WHERE expense_tags.expense_id = expenses.id AND LOWER(expense_tags.name) = LOWER(?))",
			tag,
		)
	}
	if text := strings.TrimSpace(filters.SearchText); text != "" {
		like := "%" + strings.ToLower(text) + "%"
		query = query.Where(
			`(LOWER(expenses.description) LIKE ?
				OR EXISTS (SELECT 1 FROM expense_tags WHERE expense_tags.expense_id = expenses.id AND LOWER(expense_tags.name) LIKE ?)
				OR EXISTS (SELECT 1 FROM categories WHERE categories.id = expenses.category_id AND LOWER(categories.name) LIKE ?))`,
			like, like, like,
		)
	}

	return query
}

// GetWithFilters retrieves expenses matching the composed filter predicate
// with pagination.
func (r *expenseRepository) GetWithFilters(ctx context.Context, userID uuid.UUID, filters models.ExpenseFilters, offset, limit int) ([]models.Expense, int64, error) {
	var expenses []models.Expense
	var total int64

	base := r.applyFilters(r.db.WithContext(ctx), userID, filters)

	if err := base.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count expenses: %w", err)
	}

	query := r.applyFilters(r.db.WithContext(ctx), userID, filters).
		Preload("Tags").
		Preload("Category").
		Order("expenses.date DESC, expenses.created_at DESC")

	if offset > 0 {
		query = query.Offset(offset)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&expenses).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to get expenses: %w", err)
	}

	return expenses, total, nil
}

// SumWithFilters returns the summed amount over the matching expenses.
// Callers must constrain the filters to a single currency for the sum to be
// meaningful; the repository does not convert.
func (r *expenseRepository) SumWithFilters(ctx context.Context, userID uuid.UUID, filters models.ExpenseFilters) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}

	if err := r.applyFilters(r.db.WithContext(ctx), userID, filters).
		Select("COALESCE(SUM(expenses.amount), 0) AS total").
		Scan(&result).Error; err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum expenses: %w", err)
	}

	return result.Total, nil
}

// FindByYear retrieves the expenses dated within the given calendar year,
// with tags omitted. Used by the monthly report rollup.
func (r *expenseRepository) FindByYear(ctx context.Context, userID uuid.UUID, year int) ([]models.Expense, error) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)

	var expenses []models.Expense
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND date >= ? AND date < ?", userID, start, end).
		Find(&expenses).Error; err != nil {
		return nil, fmt.Errorf("failed to get expenses for year: %w", err)
	}
	return expenses, nil
}

// GetCategoryTotals retrieves per-category totals over the inclusive date range
func (r *expenseRepository) GetCategoryTotals(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]models.CategoryTotal, error) {
	var totals []models.CategoryTotal

	query := `
		SELECT
			categories.id AS category_id,
			categories.name AS category_name,
			SUM(expenses.amount) AS total_amount,
			COUNT(*) AS expense_count
		FROM expenses
		JOIN categories ON categories.id = expenses.category_id
		WHERE expenses.user_id = ?
			AND expenses.date >= ?
			AND expenses.date <= ?
		GROUP BY categories.id, categories.name
	`

	if err := r.db.WithContext(ctx).Raw(query, userID, from, to).
		Scan(&totals).Error; err != nil {
		return nil, fmt.Errorf("failed to get category totals: %w", err)
	}

	return totals, nil
}

func (r *expenseRepository) CountByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Expense{}).
		Where("category_id = ?", categoryID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count expenses by category: %w", err)
	}
	return count, nil
}
