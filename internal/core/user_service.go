package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"spendbox-backend-go/internal/db"
	"spendbox-backend-go/internal/models"
)

// Custom errors for the UserService
var (
	ErrUserNotFound   = errors.New("user not found")
	ErrAlreadyPremium = errors.New("user is already on premium plan")
)

// premiumTerm is the billing period granted on upgrade.
const premiumTerm = 30 * 24 * time.Hour

// userService implements the UserService interface.
type userService struct {
	userRepo    db.UserRepository
	expenseRepo db.ExpenseRepository
}

// NewUserService creates a new UserService instance.
func NewUserService(userRepo db.UserRepository, expenseRepo db.ExpenseRepository) UserService {
	return &userService{
		userRepo:    userRepo,
		expenseRepo: expenseRepo,
	}
}

// GetByID retrieves a user by their ID.
func (s *userService) GetByID(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: user with ID '%s'", ErrUserNotFound, userID)
		}
		return nil, fmt.Errorf("failed to get user by ID '%s' from repository: %w", userID, err)
	}
	return user, nil
}

// UpdatePreferences applies a partial preferences update and returns the user.
func (s *userService) UpdatePreferences(ctx context.Context, userID string, req models.PreferencesUpdate) (*models.User, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	applyPreferences(&user.Preferences, req)
	user.UpdatedAt = time.Now().UTC()

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update preferences for user '%s': %w", userID, err)
	}
	return user, nil
}

// Upgrade moves the user to the premium plan with an effectively unlimited
// transaction quota. Payment processing is out of scope; the caller is
// expected to have settled billing upstream.
func (s *userService) Upgrade(ctx context.Context, userID string) (*models.Subscription, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Subscription.Plan == "premium" {
		return nil, ErrAlreadyPremium
	}

	now := time.Now().UTC()
	end := now.Add(premiumTerm)
	user.Subscription.Plan = "premium"
	user.Subscription.TransactionLimit = models.PremiumTransactionLimit
	user.Subscription.StartDate = now
	user.Subscription.EndDate = &end
	user.UpdatedAt = now

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to upgrade user '%s': %w", userID, err)
	}
	sub := user.Subscription
	return &sub, nil
}

// Stats aggregates account statistics across the user's expenses.
func (s *userService) Stats(ctx context.Context, userID string) (*UserStats, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	expenses, err := s.expenseRepo.GetByOwner(ctx, userID, db.ExpenseFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load expenses for stats: %w", err)
	}

	var total float64
	categoryCounts := make(map[string]int)
	for _, e := range expenses {
		total += e.Amount
		categoryCounts[e.Category]++
	}

	var topCategory string
	var topCount int
	for category, count := range categoryCounts {
		if count > topCount || (count == topCount && category < topCategory) {
			topCategory = category
			topCount = count
		}
	}

	var average float64
	if len(expenses) > 0 {
		average = total / float64(len(expenses))
	}

	var usagePct float64
	if user.Subscription.TransactionLimit > 0 {
		usagePct = float64(user.Subscription.UsedTransactions) / float64(user.Subscription.TransactionLimit) * 100
	}

	return &UserStats{
		TotalExpenses:    len(expenses),
		TotalAmount:      total,
		AverageExpense:   average,
		MostUsedCategory: topCategory,
		SubscriptionUsage: SubscriptionUsage{
			Used:       user.Subscription.UsedTransactions,
			Limit:      user.Subscription.TransactionLimit,
			Percentage: usagePct,
		},
		AccountAgeDays: int(time.Since(user.CreatedAt).Hours() / 24),
	}, nil
}
