package models

import (
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	DescriptionMaxLength = 500
	AmountMaxIntDigits   = 10
	AmountFractionDigits = 2
)

var (
	currencyRegex = regexp.MustCompile(`^[A-Za-z]{3}$`)

	// amountUpperBound is the smallest value with more than ten integer digits.
	amountUpperBound = decimal.New(1, AmountMaxIntDigits)

	ErrNonPositiveAmount  = errors.New("expense amount must be positive")
	ErrAmountTooLarge     = errors.New("expense amount exceeds 10 integer digits")
	ErrAmountTooPrecise   = errors.New("expense amount must have at most 2 fraction digits")
	ErrInvalidCurrency    = errors.New("currency must be a 3-letter ISO-4217 code")
	ErrFutureDate         = errors.New("expense date cannot be in the future")
	ErrDescriptionTooLong = errors.New("description exceeds 500 characters")
)

// Expense is a single ledger entry owned by a user and assigned to exactly one
// of the user's categories. Amounts are opaque per-currency; nothing ever
// converts between currencies.
type Expense struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	UserID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	CategoryID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"category_id"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Currency    string          `gorm:"type:varchar(3);not null" json:"currency"`
	Date        time.Time       `gorm:"type:date;not null;index" json:"date"`
	Description string          `gorm:"type:varchar(500)" json:"description,omitempty"`
	CreatedAt   time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"not null" json:"updated_at"`

	Tags []ExpenseTag `gorm:"foreignKey:ExpenseID" json:"tags,omitempty"`

	User     User     `gorm:"foreignKey:UserID" json:"-"`
	Category Category `gorm:"foreignKey:CategoryID" json:"-"`
}

// ExpenseTag is one element of an expense's unordered tag set.
type ExpenseTag struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"-"`
	ExpenseID uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
}

// BeforeCreate hook for ExpenseTag
func (t *ExpenseTag) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// Validate checks the expense fields before persistence. Currency is expected
// to be uppercase-normalized already (see NormalizeCurrency).
func (e *Expense) Validate(now time.Time) error {
	if !e.Amount.IsPositive() {
		return ErrNonPositiveAmount
	}
	if e.Amount.Cmp(amountUpperBound) >= 0 {
		return ErrAmountTooLarge
	}
	if e.Amount.Exponent() < -AmountFractionDigits {
		return ErrAmountTooPrecise
	}
	if !currencyRegex.MatchString(e.Currency) {
		return ErrInvalidCurrency
	}
	if e.Date.After(now) {
		return ErrFutureDate
	}
	if utf8.RuneCountInString(e.Description) > DescriptionMaxLength {
		return ErrDescriptionTooLong
	}
	return nil
}

// TagNames returns the tag set as plain strings.
func (e *Expense) TagNames() []string {
	names := make([]string, 0, len(e.Tags))
	for _, tag := range e.Tags {
		names = append(names, tag.Name)
	}
	return names
}

// HasTag reports case-insensitive membership in the expense's tag set.
func (e *Expense) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if strings.EqualFold(t.Name, tag) {
			return true
		}
	}
	return false
}

// NormalizeCurrency uppercases a currency code at write time so that stored
// values and filter comparisons agree.
func NormalizeCurrency(currency string) string {
	return strings.ToUpper(strings.TrimSpace(currency))
}

// NormalizeTags trims, drops empties, and deduplicates tags case-insensitively
// while preserving the first-seen spelling.
func NormalizeTags(tags []string) []ExpenseTag {
	seen := make(map[string]struct{}, len(tags))
	result := make([]ExpenseTag, 0, len(tags))
	for _, tag := range tags {
		trimmed := strings.TrimSpace(tag)
		if trimmed == "" {
			continue
		}
		key := strings.ToLower(trimmed)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, ExpenseTag{Name: trimmed})
	}
	return result
}

// BeforeCreate hook for Expense
func (e *Expense) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}

	now := time.Now()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = now
	}

	return nil
}
