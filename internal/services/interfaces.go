package services

import (
	"context"
	"io"
	"time"

	"expense-ledger/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UserServiceInterface defines the contract for user lifecycle operations
type UserServiceInterface interface {
	Register(ctx context.Context, email, displayName, credentialHash string) (*models.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// CategoryServiceInterface defines the contract for category lifecycle operations
type CategoryServiceInterface interface {
	CreateCategory(ctx context.Context, userID uuid.UUID, input CategoryInput) (*models.Category, error)
	UpdateCategory(ctx context.Context, userID, categoryID uuid.UUID, input CategoryInput) (*models.Category, error)
	DeleteCategory(ctx context.Context, userID, categoryID uuid.UUID) error
	ListCategories(ctx context.Context, userID uuid.UUID) ([]models.Category, error)
}

// ExpenseServiceInterface defines the contract for expense lifecycle
// operations, including the cross-store delete cascade.
type ExpenseServiceInterface interface {
	CreateExpense(ctx context.Context, userID uuid.UUID, input CreateExpenseInput) (*models.Expense, error)
	UpdateExpense(ctx context.Context, userID, expenseID uuid.UUID, input UpdateExpenseInput) (*models.Expense, error)
	GetExpense(ctx context.Context, userID, expenseID uuid.UUID) (*models.Expense, error)
	DeleteExpense(ctx context.Context, userID, expenseID uuid.UUID) error
}

// SearchServiceInterface composes filter predicates and runs them against the ledger
type SearchServiceInterface interface {
	SearchExpenses(ctx context.Context, userID uuid.UUID, filters models.ExpenseFilters, offset, limit int) ([]models.Expense, int64, error)
	SumExpenses(ctx context.Context, userID uuid.UUID, filters models.ExpenseFilters) (decimal.Decimal, error)
}

// ReportServiceInterface computes monthly and category rollups
type ReportServiceInterface interface {
	MonthlyReport(ctx context.Context, userID uuid.UUID, year int) ([]models.MonthlyReportRow, error)
	CategoryReport(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]models.CategoryReportRow, error)
}

// ReceiptServiceInterface is the cross-store protocol for receipt mutations.
// Every operation verifies that the receipt belongs to the calling user.
type ReceiptServiceInterface interface {
	UploadReceipt(ctx context.Context, userID uuid.UUID, input UploadReceiptInput) (*models.ReceiptMetadata, error)
	GetReceipt(ctx context.Context, userID, receiptID uuid.UUID) (*models.ReceiptMetadata, error)
	DownloadReceipt(ctx context.Context, userID, receiptID uuid.UUID) (io.ReadCloser, *models.ReceiptMetadata, error)
	UpdateReceiptNotes(ctx context.Context, userID, receiptID uuid.UUID, notes string) (*models.ReceiptMetadata, error)
	LinkReceipt(ctx context.Context, userID, receiptID, expenseID uuid.UUID) (*models.ReceiptMetadata, error)
	UnlinkReceipt(ctx context.Context, userID, receiptID uuid.UUID) (*models.ReceiptMetadata, error)
	DeleteReceipt(ctx context.Context, userID, receiptID uuid.UUID) error
	ListReceipts(ctx context.Context, userID uuid.UUID, offset, limit int) ([]models.ReceiptMetadata, int64, error)
	ListReceiptsByExpense(ctx context.Context, userID, expenseID uuid.UUID) ([]models.ReceiptMetadata, error)
	ListUnassignedReceipts(ctx context.Context, userID uuid.UUID, offset, limit int) ([]models.ReceiptMetadata, int64, error)
}

// MetricsRecorderInterface records operational metrics for the core engines
type MetricsRecorderInterface interface {
	RecordSearch(duration time.Duration, status string)
	RecordReport(kind string, duration time.Duration, status string)
	RecordReceiptOp(operation, status string)
	RecordCascadeCleared(count int)
	RecordOrphansReclaimed(count int)
}

// CategoryInput carries category create/update fields.
type CategoryInput struct {
	Name  string `validate:"required,min=2,max=50"`
	Color string `validate:"omitempty,max=20"`
	Icon  string `validate:"omitempty,max=50"`
}

// CreateExpenseInput carries expense creation fields. Amount and currency are
// validated and normalized at the service boundary.
type CreateExpenseInput struct {
	CategoryID  uuid.UUID
	Amount      decimal.Decimal
	Currency    string `validate:"required,currency_code"`
	Date        time.Time
	Description string   `validate:"omitempty,max=500"`
	Tags        []string `validate:"omitempty,dive,min=1,max=100"`
}

// UpdateExpenseInput carries optional expense updates; nil fields are left
// unchanged.
type UpdateExpenseInput struct {
	CategoryID  *uuid.UUID
	Amount      *decimal.Decimal
	Currency    *string `validate:"omitempty,currency_code"`
	Date        *time.Time
	Description *string  `validate:"omitempty,max=500"`
	Tags        []string `validate:"omitempty,dive,min=1,max=100"`
}

// UploadReceiptInput carries a receipt upload. ExpenseID is optional;
// receipts may exist unlinked.
type UploadReceiptInput struct {
	Content   io.Reader
	Filename  string `validate:"required,max=255"`
	MimeType  string `validate:"omitempty,max=100"`
	Notes     string
	ExpenseID *uuid.UUID
}
