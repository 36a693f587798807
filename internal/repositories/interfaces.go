package repositories

import (
	"context"
	"time"

	"expense-ledger/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UserRepositoryInterface defines the contract for user storage in the ledger
type UserRepositoryInterface interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// CategoryRepositoryInterface defines the contract for category storage in the ledger
type CategoryRepositoryInterface interface {
	Create(ctx context.Context, category *models.Category) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]models.Category, error)
	Update(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, id uuid.UUID) error
	ExistsByName(ctx context.Context, userID uuid.UUID, name string) (bool, error)
}

// ExpenseRepositoryInterface defines the contract for expense storage in the ledger
type ExpenseRepositoryInterface interface {
	Create(ctx context.Context, expense *models.Expense) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Expense, error)
	Update(ctx context.Context, expense *models.Expense) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetWithFilters(ctx context.Context, userID uuid.UUID, filters models.ExpenseFilters, offset, limit int) ([]models.Expense, int64, error)
	SumWithFilters(ctx context.Context, userID uuid.UUID, filters models.ExpenseFilters) (decimal.Decimal, error)
	FindByYear(ctx context.Context, userID uuid.UUID, year int) ([]models.Expense, error)
	GetCategoryTotals(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]models.CategoryTotal, error)
	CountByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error)
}

// ReceiptRepositoryInterface defines the contract for the receipt index. It
// runs against its own database; nothing here can enforce that ExpenseID
// points at a live ledger row — that is the coordinator's job.
type ReceiptRepositoryInterface interface {
	Create(ctx context.Context, receipt *models.ReceiptMetadata) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ReceiptMetadata, error)
	Update(ctx context.Context, receipt *models.ReceiptMetadata) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetByUserID(ctx context.Context, userID uuid.UUID, offset, limit int) ([]models.ReceiptMetadata, int64, error)
	GetByExpenseID(ctx context.Context, expenseID uuid.UUID) ([]models.ReceiptMetadata, error)
	GetUnassigned(ctx context.Context, userID uuid.UUID, offset, limit int) ([]models.ReceiptMetadata, int64, error)

	// ClearExpenseRef nulls the expense reference on every receipt linked to
	// the expense and returns the affected receipt IDs, for compensation.
	ClearExpenseRef(ctx context.Context, expenseID uuid.UUID) ([]uuid.UUID, error)
	// RelinkExpenseRef restores a previously cleared reference.
	RelinkExpenseRef(ctx context.Context, receiptIDs []uuid.UUID, expenseID uuid.UUID) error
	// AllBlobHandles lists every referenced content handle, for orphan sweeps.
	AllBlobHandles(ctx context.Context) ([]string, error)
}
