package models

import (
	"errors"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	CategoryNameMinLength = 2
	CategoryNameMaxLength = 50
)

var ErrInvalidCategoryName = errors.New("category name must be between 2 and 50 characters")

// Category groups expenses for a single user. The name is unique per owner,
// case-sensitively.
type Category struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_categories_owner_name" json:"user_id"`
	Name      string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_categories_owner_name" json:"name"`
	Color     string    `gorm:"type:varchar(20)" json:"color,omitempty"`
	Icon      string    `gorm:"type:varchar(50)" json:"icon,omitempty"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

// Validate checks the category fields before persistence.
func (c *Category) Validate() error {
	n := utf8.RuneCountInString(c.Name)
	if n < CategoryNameMinLength || n > CategoryNameMaxLength {
		return ErrInvalidCategoryName
	}
	return nil
}

// BeforeCreate hook for Category
func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}

	now := time.Now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = now
	}

	return nil
}
