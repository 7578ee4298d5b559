package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"spendbox-backend-go/internal/db"
	"spendbox-backend-go/internal/models"
)

// Custom errors for the ExpenseService
var (
	ErrExpenseNotFound         = errors.New("expense not found")
	ErrTransactionLimitReached = errors.New("transaction limit reached, please upgrade to premium")
	ErrInvalidPeriod           = errors.New("invalid analytics period")
	ErrCustomRangeRequired     = errors.New("start date and end date are required for custom period")
)

// Pagination bounds.
const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Expense mutation events pushed over the real-time channel.
const (
	EventExpenseAdded   = "expense-added"
	EventExpenseUpdated = "expense-updated"
	EventExpenseDeleted = "expense-deleted"
	EventExpenseShared  = "expense-shared"
)

// expenseService implements the ExpenseService interface.
type expenseService struct {
	expenseRepo db.ExpenseRepository
	userRepo    db.UserRepository
	publisher   EventPublisher
}

// NewExpenseService creates a new ExpenseService instance.
func NewExpenseService(expenseRepo db.ExpenseRepository, userRepo db.UserRepository, publisher EventPublisher) ExpenseService {
	return &expenseService{
		expenseRepo: expenseRepo,
		userRepo:    userRepo,
		publisher:   publisher,
	}
}

// List returns one page of the user's expenses. Category and date range are
// pushed down to the repository query; the amount range, sort and page slice
// are applied here because Firestore rejects range filters on a second field
// and cross-field order-by without a matching composite index.
func (s *expenseService) List(ctx context.Context, userID string, q ListQuery) ([]*models.Expense, Pagination, error) {
	expenses, err := s.expenseRepo.GetByOwner(ctx, userID, db.ExpenseFilter{
		Category:  q.Category,
		StartDate: q.StartDate,
		EndDate:   q.EndDate,
	})
	if err != nil {
		return nil, Pagination{}, fmt.Errorf("failed to list expenses for user '%s': %w", userID, err)
	}

	if q.MinAmount != nil || q.MaxAmount != nil {
		filtered := expenses[:0]
		for _, e := range expenses {
			if q.MinAmount != nil && e.Amount < *q.MinAmount {
				continue
			}
			if q.MaxAmount != nil && e.Amount > *q.MaxAmount {
				continue
			}
			filtered = append(filtered, e)
		}
		expenses = filtered
	}

	sortExpenses(expenses, q.SortBy, q.SortOrder)

	page := q.Page
	if page < 1 {
		page = 1
	}
	limit := q.Limit
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	total := len(expenses)
	pages := (total + limit - 1) / limit

	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	items := expenses[start:end]
	if items == nil {
		items = []*models.Expense{}
	}

	return items, Pagination{Page: page, Limit: limit, Total: total, Pages: pages}, nil
}

// sortExpenses orders in place by date, amount or category. Default is date
// descending. The sort is stable so equal keys keep repository order.
func sortExpenses(expenses []*models.Expense, sortBy, sortOrder string) {
	if sortBy == "" {
		sortBy = "date"
	}
	desc := sortOrder != "asc"

	less := func(a, b *models.Expense) bool { return a.Date.Before(b.Date) }
	switch sortBy {
	case "amount":
		less = func(a, b *models.Expense) bool { return a.Amount < b.Amount }
	case "category":
		less = func(a, b *models.Expense) bool { return a.Category < b.Category }
	}

	sort.SliceStable(expenses, func(i, j int) bool {
		if desc {
			return less(expenses[j], expenses[i])
		}
		return less(expenses[i], expenses[j])
	})
}

// Get retrieves a single expense, enforcing ownership. A foreign expense is
// reported as not found rather than forbidden, so existence never leaks.
func (s *expenseService) Get(ctx context.Context, userID, expenseID string) (*models.Expense, error) {
	expense, err := s.expenseRepo.GetByID(ctx, expenseID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: expense with ID '%s'", ErrExpenseNotFound, expenseID)
		}
		return nil, fmt.Errorf("failed to get expense '%s': %w", expenseID, err)
	}
	if expense.UserID != userID {
		return nil, fmt.Errorf("%w: expense with ID '%s'", ErrExpenseNotFound, expenseID)
	}
	return expense, nil
}

// Create records a new expense for the user. Fails with
// ErrTransactionLimitReached before anything is persisted when the quota is
// exhausted. On success the owner's usage counter is bumped with the
// repository's atomic increment and an expense-added event is published.
func (s *expenseService) Create(ctx context.Context, userID string, req models.CreateExpenseRequest) (*models.Expense, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: user with ID '%s'", ErrUserNotFound, userID)
		}
		return nil, fmt.Errorf("failed to get user for expense creation: %w", err)
	}

	if user.Subscription.UsedTransactions >= user.Subscription.TransactionLimit {
		return nil, ErrTransactionLimitReached
	}

	now := time.Now().UTC()
	date := now
	if req.Date != nil {
		date = req.Date.UTC()
	}
	currency := req.Currency
	if currency == "" {
		currency = user.Preferences.Currency
	}
	status := "confirmed"

	expense := &models.Expense{
		UserID:        userID,
		Amount:        req.Amount,
		Currency:      currency,
		Description:   req.Description,
		Category:      req.Category,
		Subcategory:   req.Subcategory,
		Merchant:      req.Merchant,
		Location:      req.Location,
		Date:          date,
		PaymentMethod: req.PaymentMethod,
		Receipt:       req.Receipt,
		Voice:         req.Voice,
		Tags:          req.Tags,
		Notes:         req.Notes,
		IsRecurring:   req.IsRecurring,
		Recurrence:    req.Recurrence,
		AI:            req.AI,
		Status:        status,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	expenseID, err := s.expenseRepo.Create(ctx, expense)
	if err != nil {
		return nil, fmt.Errorf("failed to create expense in repository: %w", err)
	}
	expense.ID = expenseID

	// Not transactional with the create: a crash here under-counts usage,
	// which is acceptable for a soft quota.
	if err := s.userRepo.IncrementUsedTransactions(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to increment transaction usage: %w", err)
	}

	s.publish(userID, EventExpenseAdded, expense)
	return expense, nil
}

// Update applies a partial update to an owned expense.
func (s *expenseService) Update(ctx context.Context, userID, expenseID string, req models.UpdateExpenseRequest) (*models.Expense, error) {
	expense, err := s.Get(ctx, userID, expenseID)
	if err != nil {
		return nil, err
	}

	if req.Amount != nil {
		expense.Amount = *req.Amount
	}
	if req.Currency != nil {
		expense.Currency = *req.Currency
	}
	if req.Description != nil {
		expense.Description = *req.Description
	}
	if req.Category != nil {
		expense.Category = *req.Category
	}
	if req.Subcategory != nil {
		expense.Subcategory = *req.Subcategory
	}
	if req.Merchant != nil {
		expense.Merchant = *req.Merchant
	}
	if req.Location != nil {
		expense.Location = *req.Location
	}
	if req.Date != nil {
		expense.Date = req.Date.UTC()
	}
	if req.PaymentMethod != nil {
		expense.PaymentMethod = *req.PaymentMethod
	}
	if req.Tags != nil {
		expense.Tags = *req.Tags
	}
	if req.Notes != nil {
		expense.Notes = *req.Notes
	}
	if req.Status != nil {
		expense.Status = *req.Status
	}
	expense.UpdatedAt = time.Now().UTC()

	if err := s.expenseRepo.Update(ctx, expense); err != nil {
		return nil, fmt.Errorf("failed to update expense '%s': %w", expenseID, err)
	}

	s.publish(userID, EventExpenseUpdated, expense)
	return expense, nil
}

// Delete removes an owned expense and publishes an expense-deleted event.
func (s *expenseService) Delete(ctx context.Context, userID, expenseID string) error {
	if _, err := s.Get(ctx, userID, expenseID); err != nil {
		return err
	}
	if err := s.expenseRepo.Delete(ctx, expenseID); err != nil {
		return fmt.Errorf("failed to delete expense '%s': %w", expenseID, err)
	}

	s.publish(userID, EventExpenseDeleted, map[string]string{"id": expenseID})
	return nil
}

// Share replaces the expense's share list with the entries that resolve to
// known users, all marked pending. Emails without an account are silently
// dropped; repeating the call with the same input is idempotent.
func (s *expenseService) Share(ctx context.Context, userID, expenseID string, req models.ShareExpenseRequest) (*models.Expense, error) {
	expense, err := s.Get(ctx, userID, expenseID)
	if err != nil {
		return nil, err
	}

	shares := make([]models.Share, 0, len(req.Shares))
	for _, entry := range req.Shares {
		target, err := s.userRepo.GetByEmail(ctx, entry.Email)
		if err != nil {
			if errors.Is(err, db.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("failed to resolve share target '%s': %w", entry.Email, err)
		}
		shares = append(shares, models.Share{
			UserID: target.ID,
			Amount: entry.Amount,
			Status: "pending",
		})
	}

	expense.SharedWith = shares
	expense.SyncSharedUserIDs()
	expense.UpdatedAt = time.Now().UTC()

	if err := s.expenseRepo.Update(ctx, expense); err != nil {
		return nil, fmt.Errorf("failed to save shares for expense '%s': %w", expenseID, err)
	}

	s.publish(userID, EventExpenseShared, expense)
	return expense, nil
}

// SharedWithMe lists expenses other users have shared with the caller.
func (s *expenseService) SharedWithMe(ctx context.Context, userID string) ([]*models.Expense, error) {
	expenses, err := s.expenseRepo.GetSharedWith(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shared expenses for user '%s': %w", userID, err)
	}
	if expenses == nil {
		expenses = []*models.Expense{}
	}
	return expenses, nil
}

// Analytics aggregates the user's expenses over a period in a single pass:
// total and average, per-category sums, top-5 merchants and a per-day trend.
func (s *expenseService) Analytics(ctx context.Context, userID, period string, startDate, endDate *time.Time) (*Analytics, error) {
	from, to, err := resolvePeriod(period, startDate, endDate, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	expenses, err := s.expenseRepo.GetByOwner(ctx, userID, db.ExpenseFilter{
		StartDate: &from,
		EndDate:   &to,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load expenses for analytics: %w", err)
	}

	result := &Analytics{
		Period:            period,
		TotalExpenses:     len(expenses),
		CategoryBreakdown: make(map[string]float64),
		DailyTrend:        make(map[string]float64),
	}

	merchantTotals := make(map[string]float64)
	for _, e := range expenses {
		result.TotalAmount += e.Amount
		result.CategoryBreakdown[e.Category] += e.Amount
		if e.Merchant != "" {
			merchantTotals[e.Merchant] += e.Amount
		}
		result.DailyTrend[e.Date.Format("2006-01-02")] += e.Amount
	}
	if len(expenses) > 0 {
		result.AverageAmount = result.TotalAmount / float64(len(expenses))
	}
	result.TopMerchants = topMerchants(merchantTotals, 5)

	return result, nil
}

// resolvePeriod maps a named period onto a concrete calendar-aligned range
// around now. Weeks start on Sunday. "custom" requires both bounds.
func resolvePeriod(period string, startDate, endDate *time.Time, now time.Time) (time.Time, time.Time, error) {
	switch period {
	case "custom":
		if startDate == nil || endDate == nil {
			return time.Time{}, time.Time{}, ErrCustomRangeRequired
		}
		return startDate.UTC(), endDate.UTC(), nil
	case "day":
		from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		return from, from.AddDate(0, 0, 1).Add(-time.Nanosecond), nil
	case "week":
		midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		from := midnight.AddDate(0, 0, -int(now.Weekday()))
		return from, from.AddDate(0, 0, 7).Add(-time.Nanosecond), nil
	case "month":
		from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		return from, from.AddDate(0, 1, 0).Add(-time.Nanosecond), nil
	case "year":
		from := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
		return from, from.AddDate(1, 0, 0).Add(-time.Nanosecond), nil
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("%w: '%s'", ErrInvalidPeriod, period)
	}
}

// topMerchants returns the n largest entries, amount descending with name
// ascending as the tie-break so truncation is deterministic.
func topMerchants(totals map[string]float64, n int) []MerchantTotal {
	ranked := make([]MerchantTotal, 0, len(totals))
	for merchant, amount := range totals {
		ranked = append(ranked, MerchantTotal{Merchant: merchant, Amount: amount})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Amount != ranked[j].Amount {
			return ranked[i].Amount > ranked[j].Amount
		}
		return ranked[i].Merchant < ranked[j].Merchant
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// publish is fire-and-forget; a nil publisher (tests, workers) is a no-op.
func (s *expenseService) publish(userID, event string, payload any) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(userID, event, payload)
}
