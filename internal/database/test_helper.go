package database

import (
	"fmt"
	"testing"
	"time"

	"expense-ledger/internal/config"
	"expense-ledger/internal/models"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(sqlite.Open(":memory:"), gormConfig)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	return &DB{
		DB: db,
		config: &config.DatabaseConfig{
			MaxConnections: 1,
			MaxIdleConns:   1,
		},
	}
}

// SetupTestLedger opens an in-memory ledger store with the full schema.
func SetupTestLedger(t *testing.T) *DB {
	t.Helper()

	db := openTestDB(t)
	if err := db.AutoMigrateLedger(); err != nil {
		t.Fatalf("failed to migrate test ledger: %v", err)
	}
	return db
}

// SetupTestReceiptIndex opens an in-memory receipt index. It is a separate
// database from the ledger, as in production.
func SetupTestReceiptIndex(t *testing.T) *DB {
	t.Helper()

	db := openTestDB(t)
	if err := db.AutoMigrateReceiptIndex(); err != nil {
		t.Fatalf("failed to migrate test receipt index: %v", err)
	}
	return db
}

// NewFaker returns a deterministic fixture generator. Tests pass the seeded
// faker around explicitly rather than relying on process-global state.
func NewFaker(seed uint64) *gofakeit.Faker {
	return gofakeit.New(seed)
}

func CreateTestUser(t *testing.T, db *DB, faker *gofakeit.Faker) *models.User {
	t.Helper()

	user := &models.User{
		Email:          faker.Email(),
		DisplayName:    faker.Name(),
		CredentialHash: "hashed_credential",
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}

	return user
}

func CreateTestCategory(t *testing.T, db *DB, user *models.User, name string) *models.Category {
	t.Helper()

	category := &models.Category{
		UserID: user.ID,
		Name:   name,
	}

	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}

	return category
}

// CreateTestExpense persists an expense with the given amount, currency, and
// date, plus optional tags.
func CreateTestExpense(t *testing.T, db *DB, user *models.User, category *models.Category, amount string, currency string, date time.Time, tags ...string) *models.Expense {
	t.Helper()

	value, err := decimal.NewFromString(amount)
	if err != nil {
		t.Fatalf("invalid test amount %q: %v", amount, err)
	}

	expense := &models.Expense{
		UserID:      user.ID,
		CategoryID:  category.ID,
		Amount:      value,
		Currency:    currency,
		Date:        date,
		Description: fmt.Sprintf("%s expense", category.Name),
		Tags:        models.NormalizeTags(tags),
	}

	if err := db.Create(expense).Error; err != nil {
		t.Fatalf("failed to create test expense: %v", err)
	}

	return expense
}

func CreateTestReceipt(t *testing.T, db *DB, userID uuid.UUID, expenseID *uuid.UUID, blobHandle string) *models.ReceiptMetadata {
	t.Helper()

	receipt := &models.ReceiptMetadata{
		UserID:     userID,
		ExpenseID:  expenseID,
		Filename:   "receipt.pdf",
		MimeType:   "application/pdf",
		SizeBytes:  128,
		BlobHandle: blobHandle,
	}

	if err := db.Create(receipt).Error; err != nil {
		t.Fatalf("failed to create test receipt: %v", err)
	}

	return receipt
}

// CleanupTestDB truncates every table of either store.
func CleanupTestDB(t *testing.T, db *DB) {
	t.Helper()

	tables := []string{
		"expense_tags",
		"expenses",
		"categories",
		"users",
		"receipt_metadata",
	}

	for _, table := range tables {
		if err := db.Exec(fmt.Sprintf("DELETE FROM %s", table)).Error; err != nil {
			t.Logf("failed to cleanup table %s: %v", table, err)
		}
	}
}
