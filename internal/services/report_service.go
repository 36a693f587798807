package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"expense-ledger/internal/cache"
	apperrors "expense-ledger/internal/errors"
	"expense-ledger/internal/models"
	"expense-ledger/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	ReportMinYear = 1900
	ReportMaxYear = 2100

	// percentageScale is the quotient scale used when allocating a
	// category's share of the grand total.
	percentageScale = 6
)

var ErrYearOutOfRange = errors.New("year must be between 1900 and 2100")

var oneHundred = decimal.NewFromInt(100)

// reportService computes monthly and category rollups over the ledger.
// Results are cached fail-safe in Redis; expense writes invalidate the
// owner's cached reports.
type reportService struct {
	expenseRepo repositories.ExpenseRepositoryInterface
	userRepo    repositories.UserRepositoryInterface
	reportCache *cache.Client
	cacheTTL    time.Duration
	metrics     MetricsRecorderInterface
}

// NewReportService creates a new report service. reportCache may be nil.
func NewReportService(
	expenseRepo repositories.ExpenseRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	reportCache *cache.Client,
	cacheTTL time.Duration,
	metrics MetricsRecorderInterface,
) ReportServiceInterface {
	if metrics == nil {
		metrics = NewNoopMetrics()
	}
	return &reportService{
		expenseRepo: expenseRepo,
		userRepo:    userRepo,
		reportCache: reportCache,
		cacheTTL:    cacheTTL,
		metrics:     metrics,
	}
}

// MonthlyReport returns one row per (month, currency) pair with at least one
// expense in the year. Amounts in different currencies are never summed
// together, and months without expenses produce no row.
func (s *reportService) MonthlyReport(ctx context.Context, userID uuid.UUID, year int) ([]models.MonthlyReportRow, error) {
	start := time.Now()

	if year < ReportMinYear || year > ReportMaxYear {
		s.metrics.RecordReport("monthly", time.Since(start), "rejected")
		return nil, apperrors.Wrap(apperrors.InvalidYear, ErrYearOutOfRange)
	}

	if err := s.requireUser(ctx, userID); err != nil {
		s.metrics.RecordReport("monthly", time.Since(start), "rejected")
		return nil, err
	}

	cacheKey := fmt.Sprintf("report:%s:monthly:%d", userID, year)
	var rows []models.MonthlyReportRow
	if s.cacheGet(ctx, cacheKey, &rows) {
		s.metrics.RecordReport("monthly", time.Since(start), "cached")
		return rows, nil
	}

	expenses, err := s.expenseRepo.FindByYear(ctx, userID, year)
	if err != nil {
		s.metrics.RecordReport("monthly", time.Since(start), "error")
		return nil, apperrors.Wrap(apperrors.StorageTransient, err)
	}

	rows = rollupMonthly(year, expenses)
	s.cacheSet(ctx, cacheKey, rows)
	s.metrics.RecordReport("monthly", time.Since(start), "ok")
	return rows, nil
}

// CategoryReport returns per-category totals over the inclusive date range
// with each category's percentage of the grand total. When the grand total
// is zero every percentage is 0.0. Row order carries no contract.
func (s *reportService) CategoryReport(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]models.CategoryReportRow, error) {
	start := time.Now()

	if from.After(to) {
		s.metrics.RecordReport("category", time.Since(start), "rejected")
		return nil, apperrors.New(apperrors.InvalidDateRange)
	}

	if err := s.requireUser(ctx, userID); err != nil {
		s.metrics.RecordReport("category", time.Since(start), "rejected")
		return nil, err
	}

	cacheKey := fmt.Sprintf("report:%s:category:%s:%s",
		userID, from.Format("2006-01-02"), to.Format("2006-01-02"))
	var rows []models.CategoryReportRow
	if s.cacheGet(ctx, cacheKey, &rows) {
		s.metrics.RecordReport("category", time.Since(start), "cached")
		return rows, nil
	}

	totals, err := s.expenseRepo.GetCategoryTotals(ctx, userID, from, to)
	if err != nil {
		s.metrics.RecordReport("category", time.Since(start), "error")
		return nil, apperrors.Wrap(apperrors.StorageTransient, err)
	}

	rows = allocatePercentages(totals)
	s.cacheSet(ctx, cacheKey, rows)
	s.metrics.RecordReport("category", time.Since(start), "ok")
	return rows, nil
}

// rollupMonthly groups the year's expenses by (month, currency). Rows come
// back sorted by month then currency for deterministic output.
func rollupMonthly(year int, expenses []models.Expense) []models.MonthlyReportRow {
	type key struct {
		month    int
		currency string
	}

	buckets := make(map[key]*models.MonthlyReportRow)
	for _, expense := range expenses {
		k := key{month: int(expense.Date.Month()), currency: expense.Currency}
		row, ok := buckets[k]
		if !ok {
			row = &models.MonthlyReportRow{
				Year:        year,
				Month:       k.month,
				Currency:    k.currency,
				TotalAmount: decimal.Zero,
			}
			buckets[k] = row
		}
		row.TotalAmount = row.TotalAmount.Add(expense.Amount)
		row.ExpenseCount++
	}

	rows := make([]models.MonthlyReportRow, 0, len(buckets))
	for _, row := range buckets {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Month != rows[j].Month {
			return rows[i].Month < rows[j].Month
		}
		return rows[i].Currency < rows[j].Currency
	})
	return rows
}

// allocatePercentages computes each category's share of the grand total.
// The quotient is rounded half-up at a fixed scale before scaling to 100;
// the resulting percentage is not re-rounded.
func allocatePercentages(totals []models.CategoryTotal) []models.CategoryReportRow {
	grandTotal := decimal.Zero
	for _, t := range totals {
		grandTotal = grandTotal.Add(t.TotalAmount)
	}

	rows := make([]models.CategoryReportRow, 0, len(totals))
	for _, t := range totals {
		percentage := 0.0
		if grandTotal.IsPositive() {
			percentage = t.TotalAmount.
				DivRound(grandTotal, percentageScale).
				Mul(oneHundred).
				InexactFloat64()
		}
		rows = append(rows, models.CategoryReportRow{
			CategoryID:   t.CategoryID,
			CategoryName: t.CategoryName,
			TotalAmount:  t.TotalAmount,
			ExpenseCount: t.ExpenseCount,
			Percentage:   percentage,
		})
	}
	return rows
}

func (s *reportService) requireUser(ctx context.Context, userID uuid.UUID) error {
	exists, err := s.userRepo.Exists(ctx, userID)
	if err != nil {
		return apperrors.Wrap(apperrors.StorageTransient, err)
	}
	if !exists {
		return apperrors.New(apperrors.UserNotFound)
	}
	return nil
}

func (s *reportService) cacheGet(ctx context.Context, key string, target any) bool {
	data, err := s.reportCache.Get(ctx, key)
	if err != nil || data == nil {
		return false
	}
	if err := json.Unmarshal(data, target); err != nil {
		slog.Warn("discarding undecodable cached report", "key", key, "error", err)
		return false
	}
	return true
}

func (s *reportService) cacheSet(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = s.reportCache.Set(ctx, key, data, s.cacheTTL)
}

// reportCachePattern matches every cached report of one user. Expense writes
// use it to invalidate.
func reportCachePattern(userID uuid.UUID) string {
	return fmt.Sprintf("report:%s:*", userID)
}
