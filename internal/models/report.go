package models

import "github.com/shopspring/decimal"

// MonthlyReportRow is one sparse (month, currency) aggregate for a year.
// Amounts in different currencies are never summed together.
type MonthlyReportRow struct {
	Year         int             `json:"year"`
	Month        int             `json:"month"`
	Currency     string          `json:"currency"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	ExpenseCount int64           `json:"expense_count"`
}

// CategoryTotal is the raw GROUP BY result scanned from the ledger.
type CategoryTotal struct {
	CategoryID   string          `json:"category_id"`
	CategoryName string          `json:"category_name"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	ExpenseCount int64           `json:"expense_count"`
}

// CategoryReportRow is a category aggregate with its share of the grand total
// for the requested date range. Percentage is 0.0 when the grand total is
// zero. Row order carries no contract.
type CategoryReportRow struct {
	CategoryID   string          `json:"category_id"`
	CategoryName string          `json:"category_name"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	ExpenseCount int64           `json:"expense_count"`
	Percentage   float64         `json:"percentage"`
}
