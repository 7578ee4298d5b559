package db

import (
	"context"
	"errors"
	"time"

	"spendbox-backend-go/internal/models"
)

// ErrNotFound is returned when a document does not exist in Firestore.
var ErrNotFound = errors.New("document not found")

// ExpenseFilter narrows an owner-scoped expense query. Category and the date
// range are applied in the Firestore query; amount filtering happens in the
// service layer because Firestore rejects range filters on a second field.
type ExpenseFilter struct {
	Category  string
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int // 0 means no cap
}

// UserRepository defines the interface for user data storage operations.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) (string, error) // Returns new user ID
	GetByID(ctx context.Context, userID string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByVerificationToken(ctx context.Context, token string) (*models.User, error)
	GetByResetToken(ctx context.Context, token string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	// IncrementUsedTransactions bumps the usage counter with the persistence
	// layer's atomic increment so concurrent creations cannot lose updates.
	IncrementUsedTransactions(ctx context.Context, userID string) error
}

// ExpenseRepository defines the interface for expense data storage operations.
type ExpenseRepository interface {
	Create(ctx context.Context, expense *models.Expense) (string, error) // Returns new expense ID
	GetByID(ctx context.Context, expenseID string) (*models.Expense, error)
	GetByOwner(ctx context.Context, ownerID string, filter ExpenseFilter) ([]*models.Expense, error)
	GetSharedWith(ctx context.Context, userID string) ([]*models.Expense, error)
	Update(ctx context.Context, expense *models.Expense) error
	Delete(ctx context.Context, expenseID string) error
}
