package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReceiptMetadata lives in the receipt index, a store with no foreign keys
// into the ledger. ExpenseID is a cross-store reference whose integrity is
// maintained by the coordinator, never by the storage engines.
//
// A receipt is either unlinked (ExpenseID nil) or linked to exactly one
// expense owned by the same user. BlobHandle addresses the binary content in
// the blob store; the metadata row is the only thing keeping that content
// reachable.
type ReceiptMetadata struct {
	ID         uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	UserID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	ExpenseID  *uuid.UUID `gorm:"type:uuid;index" json:"expense_id,omitempty"`
	Filename   string     `gorm:"type:varchar(255);not null" json:"filename"`
	MimeType   string     `gorm:"type:varchar(100)" json:"mime_type,omitempty"`
	SizeBytes  int64      `gorm:"not null" json:"size_bytes"`
	Notes      string     `gorm:"type:text" json:"notes,omitempty"`
	BlobHandle string     `gorm:"type:varchar(255);not null;index" json:"-"`
	UploadedAt time.Time  `gorm:"not null" json:"uploaded_at"`
	UpdatedAt  time.Time  `gorm:"not null" json:"updated_at"`
}

// TableName keeps the receipt index table name explicit since the struct name
// does not pluralize cleanly.
func (ReceiptMetadata) TableName() string {
	return "receipt_metadata"
}

// IsLinked reports whether the receipt references an expense.
func (r *ReceiptMetadata) IsLinked() bool {
	return r.ExpenseID != nil
}

// LinkedTo reports whether the receipt references the given expense.
func (r *ReceiptMetadata) LinkedTo(expenseID uuid.UUID) bool {
	return r.ExpenseID != nil && *r.ExpenseID == expenseID
}

// BeforeCreate hook for ReceiptMetadata
func (r *ReceiptMetadata) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}

	now := time.Now()
	if r.UploadedAt.IsZero() {
		r.UploadedAt = now
	}
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = now
	}

	return nil
}
