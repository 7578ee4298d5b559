package core

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"spendbox-backend-go/internal/models"
)

type ExpenseServiceTestSuite struct {
	suite.Suite
	userRepo    *fakeUserRepo
	expenseRepo *fakeExpenseRepo
	publisher   *fakePublisher
	service     ExpenseService
	ctx         context.Context

	ownerID string
}

func (s *ExpenseServiceTestSuite) SetupTest() {
	s.userRepo = newFakeUserRepo()
	s.expenseRepo = newFakeExpenseRepo()
	s.publisher = &fakePublisher{}
	s.service = NewExpenseService(s.expenseRepo, s.userRepo, s.publisher)
	s.ctx = context.Background()
	s.ownerID = s.addUser("owner@example.com")
}

func (s *ExpenseServiceTestSuite) addUser(email string) string {
	id, err := s.userRepo.Create(s.ctx, &models.User{
		Email:        email,
		Subscription: models.DefaultSubscription(time.Now().UTC()),
		Preferences:  models.DefaultPreferences(),
	})
	require.NoError(s.T(), err)
	return id
}

func (s *ExpenseServiceTestSuite) addExpense(userID string, amount float64, category string, date time.Time) *models.Expense {
	expense, err := s.service.Create(s.ctx, userID, models.CreateExpenseRequest{
		Amount:        amount,
		Description:   fmt.Sprintf("%s %.0f", category, amount),
		Category:      category,
		Date:          &date,
		PaymentMethod: models.PaymentMethod{Type: "card"},
	})
	require.NoError(s.T(), err)
	return expense
}

func (s *ExpenseServiceTestSuite) TestCreateDefaults() {
	expense, err := s.service.Create(s.ctx, s.ownerID, models.CreateExpenseRequest{
		Amount:        12.5,
		Description:   "Lunch",
		Category:      "Food & Dining",
		PaymentMethod: models.PaymentMethod{Type: "cash"},
	})
	require.NoError(s.T(), err)

	assert.NotEmpty(s.T(), expense.ID)
	assert.Equal(s.T(), s.ownerID, expense.UserID)
	assert.Equal(s.T(), "USD", expense.Currency, "currency defaults to the user preference")
	assert.WithinDuration(s.T(), time.Now().UTC(), expense.Date, 5*time.Second, "date defaults to now")
	assert.Equal(s.T(), "confirmed", expense.Status)
}

func (s *ExpenseServiceTestSuite) TestCreateIncrementsUsage() {
	s.addExpense(s.ownerID, 10, "Food & Dining", time.Now().UTC())
	s.addExpense(s.ownerID, 20, "Shopping", time.Now().UTC())

	user, err := s.userRepo.GetByID(s.ctx, s.ownerID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 2, user.Subscription.UsedTransactions)

	events := s.publisher.published()
	require.Len(s.T(), events, 2)
	assert.Equal(s.T(), EventExpenseAdded, events[0].event)
	assert.Equal(s.T(), s.ownerID, events[0].userID)
}

func (s *ExpenseServiceTestSuite) TestCreateAtLimitFailsWithoutPersisting() {
	user, err := s.userRepo.GetByID(s.ctx, s.ownerID)
	require.NoError(s.T(), err)
	user.Subscription.UsedTransactions = user.Subscription.TransactionLimit
	require.NoError(s.T(), s.userRepo.Update(s.ctx, user))

	_, err = s.service.Create(s.ctx, s.ownerID, models.CreateExpenseRequest{
		Amount:        10,
		Description:   "over quota",
		Category:      "Other",
		PaymentMethod: models.PaymentMethod{Type: "card"},
	})
	assert.ErrorIs(s.T(), err, ErrTransactionLimitReached)

	listed, _, err := s.service.List(s.ctx, s.ownerID, ListQuery{})
	require.NoError(s.T(), err)
	assert.Empty(s.T(), listed, "nothing persisted when the quota blocks creation")
	assert.Empty(s.T(), s.publisher.published())
}

func (s *ExpenseServiceTestSuite) TestListOwnershipIsolation() {
	otherID := s.addUser("other@example.com")
	s.addExpense(s.ownerID, 10, "Food & Dining", time.Now().UTC())
	s.addExpense(s.ownerID, 20, "Shopping", time.Now().UTC())
	s.addExpense(otherID, 99, "Travel", time.Now().UTC())

	mine, _, err := s.service.List(s.ctx, s.ownerID, ListQuery{})
	require.NoError(s.T(), err)
	require.Len(s.T(), mine, 2)
	for _, e := range mine {
		assert.Equal(s.T(), s.ownerID, e.UserID)
	}

	theirs, _, err := s.service.List(s.ctx, otherID, ListQuery{})
	require.NoError(s.T(), err)
	require.Len(s.T(), theirs, 1)
	assert.Equal(s.T(), otherID, theirs[0].UserID)
}

func (s *ExpenseServiceTestSuite) TestListPagination() {
	base := time.Now().UTC().Add(-48 * time.Hour)
	for i := 0; i < 45; i++ {
		s.addExpense(s.ownerID, float64(i+1), "Other", base.Add(time.Duration(i)*time.Minute))
	}

	page1, pagination, err := s.service.List(s.ctx, s.ownerID, ListQuery{Page: 1, Limit: 20})
	require.NoError(s.T(), err)
	assert.Len(s.T(), page1, 20)
	assert.Equal(s.T(), 45, pagination.Total)
	assert.Equal(s.T(), 3, pagination.Pages)

	page3, _, err := s.service.List(s.ctx, s.ownerID, ListQuery{Page: 3, Limit: 20})
	require.NoError(s.T(), err)
	assert.Len(s.T(), page3, 5)

	page4, _, err := s.service.List(s.ctx, s.ownerID, ListQuery{Page: 4, Limit: 20})
	require.NoError(s.T(), err)
	assert.Empty(s.T(), page4)
}

func (s *ExpenseServiceTestSuite) TestListLimitCap() {
	_, pagination, err := s.service.List(s.ctx, s.ownerID, ListQuery{Limit: 500})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 100, pagination.Limit)
}

func (s *ExpenseServiceTestSuite) TestListAmountFilterAndSort() {
	now := time.Now().UTC()
	s.addExpense(s.ownerID, 5, "Other", now.Add(-3*time.Hour))
	s.addExpense(s.ownerID, 50, "Other", now.Add(-2*time.Hour))
	s.addExpense(s.ownerID, 500, "Other", now.Add(-1*time.Hour))

	min, max := 10.0, 100.0
	filtered, _, err := s.service.List(s.ctx, s.ownerID, ListQuery{MinAmount: &min, MaxAmount: &max})
	require.NoError(s.T(), err)
	require.Len(s.T(), filtered, 1)
	assert.Equal(s.T(), 50.0, filtered[0].Amount)

	byAmountAsc, _, err := s.service.List(s.ctx, s.ownerID, ListQuery{SortBy: "amount", SortOrder: "asc"})
	require.NoError(s.T(), err)
	require.Len(s.T(), byAmountAsc, 3)
	assert.Equal(s.T(), 5.0, byAmountAsc[0].Amount)
	assert.Equal(s.T(), 500.0, byAmountAsc[2].Amount)

	defaultOrder, _, err := s.service.List(s.ctx, s.ownerID, ListQuery{})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 500.0, defaultOrder[0].Amount, "default sort is date descending")
}

func (s *ExpenseServiceTestSuite) TestGetForeignExpenseIsNotFound() {
	otherID := s.addUser("other@example.com")
	expense := s.addExpense(otherID, 10, "Other", time.Now().UTC())

	_, err := s.service.Get(s.ctx, s.ownerID, expense.ID)
	assert.ErrorIs(s.T(), err, ErrExpenseNotFound)
}

func (s *ExpenseServiceTestSuite) TestUpdatePartial() {
	expense := s.addExpense(s.ownerID, 10, "Other", time.Now().UTC())

	amount := 25.0
	notes := "team lunch"
	updated, err := s.service.Update(s.ctx, s.ownerID, expense.ID, models.UpdateExpenseRequest{
		Amount: &amount,
		Notes:  &notes,
	})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 25.0, updated.Amount)
	assert.Equal(s.T(), "team lunch", updated.Notes)
	assert.Equal(s.T(), "Other", updated.Category, "untouched fields survive")
}

func (s *ExpenseServiceTestSuite) TestDelete() {
	expense := s.addExpense(s.ownerID, 10, "Other", time.Now().UTC())

	require.NoError(s.T(), s.service.Delete(s.ctx, s.ownerID, expense.ID))

	_, err := s.service.Get(s.ctx, s.ownerID, expense.ID)
	assert.ErrorIs(s.T(), err, ErrExpenseNotFound)

	events := s.publisher.published()
	assert.Equal(s.T(), EventExpenseDeleted, events[len(events)-1].event)
}

func (s *ExpenseServiceTestSuite) TestShareResolvesAndDropsUnknown() {
	friendID := s.addUser("friend@example.com")
	expense := s.addExpense(s.ownerID, 60, "Food & Dining", time.Now().UTC())

	shared, err := s.service.Share(s.ctx, s.ownerID, expense.ID, models.ShareExpenseRequest{
		Shares: []models.ShareEntry{
			{Email: "friend@example.com", Amount: 30},
			{Email: "nobody@example.com", Amount: 30},
		},
	})
	require.NoError(s.T(), err)

	require.Len(s.T(), shared.SharedWith, 1, "unknown emails are dropped silently")
	assert.Equal(s.T(), friendID, shared.SharedWith[0].UserID)
	assert.Equal(s.T(), "pending", shared.SharedWith[0].Status)
	assert.Equal(s.T(), []string{friendID}, shared.SharedUserIDs)
}

func (s *ExpenseServiceTestSuite) TestShareReplacesNotAppends() {
	s.addUser("friend@example.com")
	expense := s.addExpense(s.ownerID, 60, "Food & Dining", time.Now().UTC())

	req := models.ShareExpenseRequest{
		Shares: []models.ShareEntry{{Email: "friend@example.com", Amount: 30}},
	}
	first, err := s.service.Share(s.ctx, s.ownerID, expense.ID, req)
	require.NoError(s.T(), err)
	second, err := s.service.Share(s.ctx, s.ownerID, expense.ID, req)
	require.NoError(s.T(), err)

	assert.Equal(s.T(), first.SharedWith, second.SharedWith)
	assert.Len(s.T(), second.SharedWith, 1)
}

func (s *ExpenseServiceTestSuite) TestSharedWithMe() {
	friendID := s.addUser("friend@example.com")
	expense := s.addExpense(s.ownerID, 60, "Food & Dining", time.Now().UTC())

	_, err := s.service.Share(s.ctx, s.ownerID, expense.ID, models.ShareExpenseRequest{
		Shares: []models.ShareEntry{{Email: "friend@example.com", Amount: 30}},
	})
	require.NoError(s.T(), err)

	shared, err := s.service.SharedWithMe(s.ctx, friendID)
	require.NoError(s.T(), err)
	require.Len(s.T(), shared, 1)
	assert.Equal(s.T(), expense.ID, shared[0].ID)
}

func (s *ExpenseServiceTestSuite) TestAnalyticsSumInvariant() {
	now := time.Now().UTC()
	s.addExpense(s.ownerID, 10, "Food & Dining", now)
	s.addExpense(s.ownerID, 30, "Food & Dining", now)
	s.addExpense(s.ownerID, 60, "Shopping", now)

	analytics, err := s.service.Analytics(s.ctx, s.ownerID, "month", nil, nil)
	require.NoError(s.T(), err)

	var breakdownTotal float64
	for _, amount := range analytics.CategoryBreakdown {
		breakdownTotal += amount
	}
	assert.InDelta(s.T(), analytics.TotalAmount, breakdownTotal, 1e-9)
	assert.Equal(s.T(), 3, analytics.TotalExpenses)
	assert.InDelta(s.T(), 100.0/3, analytics.AverageAmount, 1e-9)
}

func (s *ExpenseServiceTestSuite) TestAnalyticsCustomRequiresBothBounds() {
	start := time.Now().UTC().Add(-24 * time.Hour)
	_, err := s.service.Analytics(s.ctx, s.ownerID, "custom", &start, nil)
	assert.ErrorIs(s.T(), err, ErrCustomRangeRequired)
}

func (s *ExpenseServiceTestSuite) TestAnalyticsUnknownPeriod() {
	_, err := s.service.Analytics(s.ctx, s.ownerID, "fortnight", nil, nil)
	assert.ErrorIs(s.T(), err, ErrInvalidPeriod)
}

func (s *ExpenseServiceTestSuite) TestResolvePeriodWeekStartsSunday() {
	// 2026-08-26 is a Wednesday; the containing week starts Sunday 08-23.
	now := time.Date(2026, 8, 26, 15, 0, 0, 0, time.UTC)
	from, to, err := resolvePeriod("week", nil, nil, now)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), time.Date(2026, 8, 23, 0, 0, 0, 0, time.UTC), from)
	assert.True(s.T(), to.Before(time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)))
	assert.True(s.T(), to.After(time.Date(2026, 8, 29, 23, 59, 59, 0, time.UTC)))
}

func (s *ExpenseServiceTestSuite) TestTopMerchantsDeterministicTieBreak() {
	totals := map[string]float64{
		"Zeta Cafe":  40,
		"Acme Mart":  40,
		"Big Spend":  100,
		"Tiny Kiosk": 1,
	}
	ranked := topMerchants(totals, 3)
	require.Len(s.T(), ranked, 3)
	assert.Equal(s.T(), "Big Spend", ranked[0].Merchant)
	assert.Equal(s.T(), "Acme Mart", ranked[1].Merchant, "ties break by name ascending")
	assert.Equal(s.T(), "Zeta Cafe", ranked[2].Merchant)
}

func TestExpenseServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ExpenseServiceTestSuite))
}
