package models

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

	ErrInvalidEmail       = errors.New("invalid email address")
	ErrMissingDisplayName = errors.New("display name is required")
)

// User owns categories, expenses, and receipts. Email is unique
// case-insensitively and immutable after creation.
type User struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Email          string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	DisplayName    string    `gorm:"type:varchar(100);not null" json:"display_name"`
	CredentialHash string    `gorm:"type:varchar(255);not null" json:"-"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null" json:"updated_at"`

	Categories []Category `gorm:"foreignKey:UserID" json:"-"`
	Expenses   []Expense  `gorm:"foreignKey:UserID" json:"-"`
}

// NormalizedEmail returns the email lowered for case-insensitive uniqueness checks.
func (u *User) NormalizedEmail() string {
	return strings.ToLower(strings.TrimSpace(u.Email))
}

// Validate checks the user fields before persistence.
func (u *User) Validate() error {
	if !emailRegex.MatchString(strings.TrimSpace(u.Email)) {
		return ErrInvalidEmail
	}
	if strings.TrimSpace(u.DisplayName) == "" {
		return ErrMissingDisplayName
	}
	return nil
}

// BeforeCreate hook for User
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}

	// Set timestamps if not already set (for tests)
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = now
	}

	return nil
}
