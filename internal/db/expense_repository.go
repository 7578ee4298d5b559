package db

import (
	"context"
	"errors"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"spendbox-backend-go/internal/models"
)

const expensesCollection = "expenses"

// firestoreExpenseRepository implements the ExpenseRepository interface using Firestore.
type firestoreExpenseRepository struct {
	client *firestore.Client
}

// NewFirestoreExpenseRepository creates a new instance of firestoreExpenseRepository.
func NewFirestoreExpenseRepository(client *firestore.Client) ExpenseRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for ExpenseRepository.")
	}
	return &firestoreExpenseRepository{client: client}
}

// Create adds a new expense document with an auto-generated ID.
func (r *firestoreExpenseRepository) Create(ctx context.Context, expense *models.Expense) (string, error) {
	docRef := r.client.Collection(expensesCollection).NewDoc()
	expense.ID = docRef.ID

	_, err := docRef.Create(ctx, expense)
	if err != nil {
		return "", fmt.Errorf("failed to create expense: %w", err)
	}
	return docRef.ID, nil
}

// GetByID retrieves an expense document by its ID. Ownership is checked by
// the service layer; the repository only resolves the document.
func (r *firestoreExpenseRepository) GetByID(ctx context.Context, expenseID string) (*models.Expense, error) {
	if expenseID == "" {
		return nil, errors.New("expenseID cannot be empty for GetByID operation")
	}
	docSnap, err := r.client.Collection(expensesCollection).Doc(expenseID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("expense with ID '%s' not found: %w", expenseID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get expense with ID '%s': %w", expenseID, err)
	}

	var expense models.Expense
	if err := docSnap.DataTo(&expense); err != nil {
		return nil, fmt.Errorf("failed to decode expense data for ID '%s': %w", expenseID, err)
	}
	expense.ID = docSnap.Ref.ID

	return &expense, nil
}

// GetByOwner retrieves expenses owned by a user, optionally narrowed by
// category and date range. Results are ordered by date descending, which is
// also the service's default sort.
func (r *firestoreExpenseRepository) GetByOwner(ctx context.Context, ownerID string, filter ExpenseFilter) ([]*models.Expense, error) {
	if ownerID == "" {
		return nil, errors.New("ownerID cannot be empty for GetByOwner operation")
	}

	query := r.client.Collection(expensesCollection).Where("userId", "==", ownerID)
	if filter.Category != "" {
		query = query.Where("category", "==", filter.Category)
	}
	if filter.StartDate != nil {
		query = query.Where("date", ">=", *filter.StartDate)
	}
	if filter.EndDate != nil {
		query = query.Where("date", "<=", *filter.EndDate)
	}
	query = query.OrderBy("date", firestore.Desc)
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	return r.collect(ctx, query, ownerID)
}

// GetSharedWith retrieves expenses whose share list references the given user.
// The query runs against the sharedUserIds mirror field because Firestore
// cannot match a field inside an array of maps.
func (r *firestoreExpenseRepository) GetSharedWith(ctx context.Context, userID string) ([]*models.Expense, error) {
	if userID == "" {
		return nil, errors.New("userID cannot be empty for GetSharedWith operation")
	}
	query := r.client.Collection(expensesCollection).Where("sharedUserIds", "array-contains", userID)
	return r.collect(ctx, query, userID)
}

func (r *firestoreExpenseRepository) collect(ctx context.Context, query firestore.Query, subject string) ([]*models.Expense, error) {
	iter := query.Documents(ctx)
	defer iter.Stop()

	var expenses []*models.Expense
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate expenses for '%s': %w", subject, err)
		}

		var expense models.Expense
		if err := doc.DataTo(&expense); err != nil {
			log.Printf("Error decoding expense data (ID: %s) for '%s': %v. Skipping.", doc.Ref.ID, subject, err)
			continue
		}
		expense.ID = doc.Ref.ID
		expenses = append(expenses, &expense)
	}

	return expenses, nil
}

// Update overwrites an expense document with the given state.
func (r *firestoreExpenseRepository) Update(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		return errors.New("expense ID cannot be empty for Update operation")
	}
	_, err := r.client.Collection(expensesCollection).Doc(expense.ID).Set(ctx, expense)
	if err != nil {
		return fmt.Errorf("failed to update expense with ID '%s': %w", expense.ID, err)
	}
	return nil
}

// Delete removes an expense document.
func (r *firestoreExpenseRepository) Delete(ctx context.Context, expenseID string) error {
	if expenseID == "" {
		return errors.New("expenseID cannot be empty for Delete operation")
	}
	_, err := r.client.Collection(expensesCollection).Doc(expenseID).Delete(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("expense with ID '%s' not found for deletion: %w", expenseID, ErrNotFound)
		}
		return fmt.Errorf("failed to delete expense with ID '%s': %w", expenseID, err)
	}
	return nil
}
