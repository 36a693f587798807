package repositories

import (
	"context"
	"testing"
	"time"

	"expense-ledger/internal/database"
	"expense-ledger/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

func TestExpenseRepository(t *testing.T) {
	suite.Run(t, new(ExpenseRepositorySuite))
}

type ExpenseRepositorySuite struct {
	suite.Suite
	ctx       context.Context
	db        *database.DB
	repo      ExpenseRepositoryInterface
	user      *models.User
	food      *models.Category
	transport *models.Category
}

func (s *ExpenseRepositorySuite) SetupTest() {
	s.ctx = context.Background()
	s.db = database.SetupTestLedger(s.T())
	s.repo = NewExpenseRepository(s.db.DB)
	s.user = database.CreateTestUser(s.T(), s.db, database.NewFaker(21))
	s.food = database.CreateTestCategory(s.T(), s.db, s.user, "Food")
	s.transport = database.CreateTestCategory(s.T(), s.db, s.user, "Transport")
}

func (s *ExpenseRepositorySuite) TearDownTest() {
	database.CleanupTestDB(s.T(), s.db)
}

func (s *ExpenseRepositorySuite) date(month time.Month, day int) time.Time {
	return time.Date(2024, month, day, 0, 0, 0, 0, time.UTC)
}

func (s *ExpenseRepositorySuite) TestCreateAndGet() {
	expense := database.CreateTestExpense(s.T(), s.db, s.user, s.food, "12.34", "USD", s.date(time.March, 1), "lunch")

	found, err := s.repo.GetByID(s.ctx, expense.ID)
	s.NoError(err)
	s.True(found.Amount.Equal(decimal.RequireFromString("12.34")))
	s.Equal("Food", found.Category.Name)
	s.Len(found.Tags, 1)

	_, err = s.repo.GetByID(s.ctx, uuid.New())
	s.ErrorIs(err, ErrExpenseNotFound)
}

func (s *ExpenseRepositorySuite) TestUpdate_ReplacesTagSet() {
	expense := database.CreateTestExpense(s.T(), s.db, s.user, s.food, "10.00", "USD", s.date(time.March, 1), "old", "stale")

	expense.Description = "groceries"
	expense.Tags = models.NormalizeTags([]string{"fresh"})
	s.NoError(s.repo.Update(s.ctx, expense))

	found, err := s.repo.GetByID(s.ctx, expense.ID)
	s.NoError(err)
	s.Equal("groceries", found.Description)
	s.Len(found.Tags, 1)
	s.Equal("fresh", found.Tags[0].Name)
}

func (s *ExpenseRepositorySuite) TestDelete() {
	expense := database.CreateTestExpense(s.T(), s.db, s.user, s.food, "10.00", "USD", s.date(time.March, 1), "tagged")

	s.NoError(s.repo.Delete(s.ctx, expense.ID))
	s.ErrorIs(s.repo.Delete(s.ctx, expense.ID), ErrExpenseNotFound)

	var tagCount int64
	s.NoError(s.db.Model(&models.ExpenseTag{}).Where("expense_id = ?", expense.ID).Count(&tagCount).Error)
	s.Zero(tagCount)
}

// With no criteria the filter is the identity predicate: every expense of
// the user comes back, and nobody else's.
func (s *ExpenseRepositorySuite) TestGetWithFilters_EmptyReturnsAll() {
	database.CreateTestExpense(s.T(), s.db, s.user, s.food, "10.00", "USD", s.date(time.January, 5))
	database.CreateTestExpense(s.T(), s.db, s.user, s.transport, "20.00", "USD", s.date(time.February, 5))

	other := database.CreateTestUser(s.T(), s.db, database.NewFaker(22))
	otherCat := database.CreateTestCategory(s.T(), s.db, other, "Other")
	database.CreateTestExpense(s.T(), s.db, other, otherCat, "99.00", "USD", s.date(time.January, 5))

	expenses, total, err := s.repo.GetWithFilters(s.ctx, s.user.ID, models.ExpenseFilters{}, 0, 50)
	s.NoError(err)
	s.EqualValues(2, total)
	s.Len(expenses, 2)
}

func (s *ExpenseRepositorySuite) TestGetWithFilters_DateRangeInclusive() {
	database.CreateTestExpense(s.T(), s.db, s.user, s.food, "10.00", "USD", s.date(time.January, 1))
	inRange := database.CreateTestExpense(s.T(), s.db, s.user, s.food, "20.00", "USD", s.date(time.February, 15))
	database.CreateTestExpense(s.T(), s.db, s.user, s.food, "30.00", "USD", s.date(time.April, 1))

	from := s.date(time.February, 15)
	to := s.date(time.March, 31)
	expenses, total, err := s.repo.GetWithFilters(s.ctx, s.user.ID,
		models.ExpenseFilters{FromDate: &from, ToDate: &to}, 0, 50)
	s.NoError(err)
	s.EqualValues(1, total)
	s.Equal(inRange.ID, expenses[0].ID)
}

func (s *ExpenseRepositorySuite) TestGetWithFilters_AmountRangeInclusive() {
	database.CreateTestExpense(s.T(), s.db, s.user, s.food, "9.99", "USD", s.date(time.March, 1))
	database.CreateTestExpense(s.T(), s.db, s.user, s.food, "10.00", "USD", s.date(time.March, 2))
	database.CreateTestExpense(s.T(), s.db, s.user, s.food, "50.00", "USD", s.date(time.March, 3))
	database.CreateTestExpense(s.T(), s.db, s.user, s.food, "50.01", "USD", s.date(time.March, 4))

	minAmount := decimal.RequireFromString("10.00")
	maxAmount := decimal.RequireFromString("50.00")
	_, total, err := s.repo.GetWithFilters(s.ctx, s.user.ID,
		models.ExpenseFilters{MinAmount: &minAmount, MaxAmount: &maxAmount}, 0, 50)
	s.NoError(err)
	s.EqualValues(2, total)
}

func (s *ExpenseRepositorySuite) TestGetWithFilters_CurrencyCaseInsensitive() {
	database.CreateTestExpense(s.T(), s.db, s.user, s.food, "10.00", "USD", s.date(time.March, 1))
	database.CreateTestExpense(s.T(), s.db, s.user, s.food, "20.00", "EUR", s.date(time.March, 2))

	_, total, err := s.repo.GetWithFilters(s.ctx, s.user.ID,
		models.ExpenseFilters{Currency: "usd"}, 0, 50)
	s.NoError(err)
	s.EqualValues(1, total)
}

func (s *ExpenseRepositorySuite) TestGetWithFilters_Category() {
	database.CreateTestExpense(s.T(), s.db, s.user, s.food, "10.00", "USD", s.date(time.March, 1))
	database.CreateTestExpense(s.T(), s.db, s.user, s.transport, "20.00", "USD", s.date(time.March, 2))

	_, total, err := s.repo.GetWithFilters(s.ctx, s.user.ID,
		models.ExpenseFilters{CategoryID: &s.transport.ID}, 0, 50)
	s.NoError(err)
	s.EqualValues(1, total)
}

func (s *ExpenseRepositorySuite) TestGetWithFilters_TagExactMatch() {
	database.CreateTestExpense(s.T(), s.db, s.user, s.food, "10.00", "USD", s.date(time.March, 1), "Restaurant")
	database.CreateTestExpense(s.T(), s.db, s.user, s.food, "20.00", "USD", s.date(time.March, 2), "groceries")

	_, total, err := s.repo.GetWithFilters(s.ctx, s.user.ID,
		models.ExpenseFilters{Tag: "restaurant"}, 0, 50)
	s.NoError(err)
	s.EqualValues(1, total)

	// exact membership, not substring
	_, total, err = s.repo.GetWithFilters(s.ctx, s.user.ID,
		models.ExpenseFilters{Tag: "restaur"}, 0, 50)
	s.NoError(err)
	s.EqualValues(0, total)
}

func (s *ExpenseRepositorySuite) TestGetWithFilters_TextAcrossFields() {
	byDescription := database.CreateTestExpense(s.T(), s.db, s.user, s.transport, "10.00", "USD", s.date(time.March, 1))
	byDescription.Description = "Harbor dinner"
	s.NoError(s.repo.Update(s.ctx, byDescription))

	database.CreateTestExpense(s.T(), s.db, s.user, s.transport, "20.00", "USD", s.date(time.March, 2), "harborfront")
	database.CreateTestExpense(s.T(), s.db, s.user, s.transport, "30.00", "USD", s.date(time.March, 3))

	// matches description of one, tag of another
	_, total, err := s.repo.GetWithFilters(s.ctx, s.user.ID,
		models.ExpenseFilters{SearchText: "HARBOR"}, 0, 50)
	s.NoError(err)
	s.EqualValues(2, total)

	// matches category name of all three
	_, total, err = s.repo.GetWithFilters(s.ctx, s.user.ID,
		models.ExpenseFilters{SearchText: "transp"}, 0, 50)
	s.NoError(err)
	s.EqualValues(3, total)
}

func (s *ExpenseRepositorySuite) TestGetWithFilters_Pagination() {
	for day := 1; day <= 5; day++ {
		database.CreateTestExpense(s.T(), s.db, s.user, s.food, "10.00", "USD", s.date(time.March, day))
	}

	expenses, total, err := s.repo.GetWithFilters(s.ctx, s.user.ID, models.ExpenseFilters{}, 2, 2)
	s.NoError(err)
	s.EqualValues(5, total)
	s.Len(expenses, 2)
	// ordered by date descending
	s.True(expenses[0].Date.Equal(s.date(time.March, 3)), "got %s", expenses[0].Date)
}

func (s *ExpenseRepositorySuite) TestSumWithFilters() {
	database.CreateTestExpense(s.T(), s.db, s.user, s.food, "10.50", "USD", s.date(time.March, 1))
	database.CreateTestExpense(s.T(), s.db, s.user, s.food, "20.25", "USD", s.date(time.March, 2))
	database.CreateTestExpense(s.T(), s.db, s.user, s.food, "5.00", "EUR", s.date(time.March, 3))

	total, err := s.repo.SumWithFilters(s.ctx, s.user.ID, models.ExpenseFilters{Currency: "USD"})
	s.NoError(err)
	s.True(total.Equal(decimal.RequireFromString("30.75")), "got %s", total)
}

func (s *ExpenseRepositorySuite) TestSumWithFilters_NoMatchesIsZero() {
	total, err := s.repo.SumWithFilters(s.ctx, s.user.ID, models.ExpenseFilters{Currency: "JPY"})
	s.NoError(err)
	s.True(total.IsZero())
}

func (s *ExpenseRepositorySuite) TestFindByYear_Boundaries() {
	database.CreateTestExpense(s.T(), s.db, s.user, s.food, "1.00", "USD",
		time.Date(2023, time.December, 31, 23, 59, 59, 0, time.UTC))
	jan1 := database.CreateTestExpense(s.T(), s.db, s.user, s.food, "2.00", "USD",
		time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC))
	dec31 := database.CreateTestExpense(s.T(), s.db, s.user, s.food, "3.00", "USD",
		time.Date(2024, time.December, 31, 12, 0, 0, 0, time.UTC))
	database.CreateTestExpense(s.T(), s.db, s.user, s.food, "4.00", "USD",
		time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC))

	expenses, err := s.repo.FindByYear(s.ctx, s.user.ID, 2024)
	s.NoError(err)
	s.Len(expenses, 2)

	ids := []uuid.UUID{expenses[0].ID, expenses[1].ID}
	s.Contains(ids, jan1.ID)
	s.Contains(ids, dec31.ID)
}

func (s *ExpenseRepositorySuite) TestGetCategoryTotals() {
	database.CreateTestExpense(s.T(), s.db, s.user, s.food, "30.00", "USD", s.date(time.March, 1))
	database.CreateTestExpense(s.T(), s.db, s.user, s.food, "20.00", "USD", s.date(time.March, 5))
	database.CreateTestExpense(s.T(), s.db, s.user, s.transport, "15.00", "USD", s.date(time.March, 10))
	// outside the range
	database.CreateTestExpense(s.T(), s.db, s.user, s.food, "99.00", "USD", s.date(time.May, 1))

	totals, err := s.repo.GetCategoryTotals(s.ctx, s.user.ID, s.date(time.March, 1), s.date(time.March, 31))
	s.NoError(err)
	s.Len(totals, 2)

	byName := make(map[string]models.CategoryTotal)
	for _, t := range totals {
		byName[t.CategoryName] = t
	}
	s.True(byName["Food"].TotalAmount.Equal(decimal.RequireFromString("50.00")))
	s.EqualValues(2, byName["Food"].ExpenseCount)
	s.True(byName["Transport"].TotalAmount.Equal(decimal.RequireFromString("15.00")))
	s.EqualValues(1, byName["Transport"].ExpenseCount)
}

func (s *ExpenseRepositorySuite) TestCountByCategory() {
	database.CreateTestExpense(s.T(), s.db, s.user, s.food, "10.00", "USD", s.date(time.March, 1))
	database.CreateTestExpense(s.T(), s.db, s.user, s.food, "20.00", "USD", s.date(time.March, 2))

	count, err := s.repo.CountByCategory(s.ctx, s.food.ID)
	s.NoError(err)
	s.EqualValues(2, count)

	count, err = s.repo.CountByCategory(s.ctx, s.transport.ID)
	s.NoError(err)
	s.Zero(count)
}
