package models

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrInvertedDateRange   = errors.New("from date cannot be after to date")
	ErrInvertedAmountRange = errors.New("minimum amount cannot be greater than maximum amount")
)

// ExpenseFilters contains the optional search criteria for expense queries.
// A zero-value criterion is neutral: it contributes nothing to the composed
// predicate. Supplied criteria combine as a logical AND.
type ExpenseFilters struct {
	FromDate   *time.Time
	ToDate     *time.Time
	CategoryID *uuid.UUID
	MinAmount  *decimal.Decimal
	MaxAmount  *decimal.Decimal
	SearchText string
	Currency   string
	Tag        string
}

// Validate rejects inverted ranges. It runs at the caller boundary, before
// any storage access.
func (f ExpenseFilters) Validate() error {
	if f.FromDate != nil && f.ToDate != nil && f.FromDate.After(*f.ToDate) {
		return ErrInvertedDateRange
	}
	if f.MinAmount != nil && f.MaxAmount != nil && f.MinAmount.GreaterThan(*f.MaxAmount) {
		return ErrInvertedAmountRange
	}
	return nil
}

// IsEmpty reports whether no criterion is supplied, in which case the
// composed predicate matches every expense of the user.
func (f ExpenseFilters) IsEmpty() bool {
	return f.FromDate == nil && f.ToDate == nil && f.CategoryID == nil &&
		f.MinAmount == nil && f.MaxAmount == nil &&
		strings.TrimSpace(f.SearchText) == "" &&
		strings.TrimSpace(f.Currency) == "" &&
		strings.TrimSpace(f.Tag) == ""
}

// Matches evaluates the composed predicate against a single expense. The
// expense must have its Tags and Category loaded. Matches is pure: it never
// mutates the expense or the filters, and identical inputs always agree.
//
// Semantics mirror the storage-side translation in the expense repository:
// inclusive one- or two-sided ranges, case-insensitive currency equality,
// case-insensitive exact tag membership, and case-insensitive substring text
// search across description, tags, and category name.
func (f ExpenseFilters) Matches(e *Expense) bool {
	if f.FromDate != nil && e.Date.Before(*f.FromDate) {
		return false
	}
	if f.ToDate != nil && e.Date.After(*f.ToDate) {
		return false
	}
	if f.CategoryID != nil && e.CategoryID != *f.CategoryID {
		return false
	}
	if f.MinAmount != nil && e.Amount.LessThan(*f.MinAmount) {
		return false
	}
	if f.MaxAmount != nil && e.Amount.GreaterThan(*f.MaxAmount) {
		return false
	}
	if currency := strings.TrimSpace(f.Currency); currency != "" {
		if !strings.EqualFold(e.Currency, currency) {
			return false
		}
	}
	if tag := strings.TrimSpace(f.Tag); tag != "" {
		if !e.HasTag(tag) {
			return false
		}
	}
	if text := strings.TrimSpace(f.SearchText); text != "" {
		if !f.matchesText(e, text) {
			return false
		}
	}
	return true
}

// matchesText is the OR across description, any tag, and category name.
func (f ExpenseFilters) matchesText(e *Expense, text string) bool {
	needle := strings.ToLower(text)
	if strings.Contains(strings.ToLower(e.Description), needle) {
		return true
	}
	for _, tag := range e.Tags {
		if strings.Contains(strings.ToLower(tag.Name), needle) {
			return true
		}
	}
	return strings.Contains(strings.ToLower(e.Category.Name), needle)
}
