package database

import (
	"fmt"
	"time"

	"expense-ledger/internal/config"
	"expense-ledger/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB wraps a gorm connection to one of the two stores. The ledger and the
// receipt index are opened separately and stay independently consistent;
// nothing at this layer enforces references between them.
type DB struct {
	*gorm.DB
	config *config.DatabaseConfig
}

func open(cfg *config.DatabaseConfig) (*DB, error) {
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxConnections)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{
		DB:     db,
		config: cfg,
	}, nil
}

// OpenLedger connects to the strongly-consistent relational store holding
// users, categories, and expenses.
func OpenLedger(cfg *config.DatabaseConfig) (*DB, error) {
	return open(cfg)
}

// OpenReceiptIndex connects to the receipt metadata store.
func OpenReceiptIndex(cfg *config.DatabaseConfig) (*DB, error) {
	return open(cfg)
}

// AutoMigrateLedger creates the ledger schema.
func (db *DB) AutoMigrateLedger() error {
	return db.DB.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Expense{},
		&models.ExpenseTag{},
	)
}

// AutoMigrateReceiptIndex creates the receipt index schema.
func (db *DB) AutoMigrateReceiptIndex() error {
	return db.DB.AutoMigrate(
		&models.ReceiptMetadata{},
	)
}

func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
