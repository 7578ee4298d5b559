package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"spendbox-backend-go/internal/models"
)

const usersCollection = "users"

// firestoreUserRepository implements the UserRepository interface using Firestore.
type firestoreUserRepository struct {
	client *firestore.Client
}

// NewFirestoreUserRepository creates a new instance of firestoreUserRepository.
func NewFirestoreUserRepository(client *firestore.Client) UserRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for UserRepository.")
	}
	return &firestoreUserRepository{client: client}
}

// Create adds a new user document with an auto-generated ID. The email is
// stored lowercased so uniqueness checks stay case-insensitive.
func (r *firestoreUserRepository) Create(ctx context.Context, user *models.User) (string, error) {
	docRef := r.client.Collection(usersCollection).NewDoc()
	user.ID = docRef.ID
	user.Email = strings.ToLower(user.Email)

	_, err := docRef.Create(ctx, user)
	if err != nil {
		return "", fmt.Errorf("failed to create user: %w", err)
	}
	return docRef.ID, nil
}

// GetByID retrieves a user document by its document ID.
func (r *firestoreUserRepository) GetByID(ctx context.Context, userID string) (*models.User, error) {
	if userID == "" {
		return nil, errors.New("userID cannot be empty for GetByID operation")
	}
	docSnap, err := r.client.Collection(usersCollection).Doc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("user with ID '%s' not found: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user with ID '%s': %w", userID, err)
	}

	var user models.User
	if err := docSnap.DataTo(&user); err != nil {
		return nil, fmt.Errorf("failed to decode user data for ID '%s': %w", userID, err)
	}
	user.ID = docSnap.Ref.ID

	return &user, nil
}

// GetByEmail retrieves a user by email, compared case-insensitively.
func (r *firestoreUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if email == "" {
		return nil, errors.New("email cannot be empty for GetByEmail operation")
	}
	return r.getByField(ctx, "email", strings.ToLower(email))
}

// GetByVerificationToken retrieves the user holding a given email-verification token.
func (r *firestoreUserRepository) GetByVerificationToken(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, errors.New("token cannot be empty for GetByVerificationToken operation")
	}
	return r.getByField(ctx, "emailVerificationToken", token)
}

// GetByResetToken retrieves the user holding a given password-reset token.
// Token expiry is checked by the service layer, not here.
func (r *firestoreUserRepository) GetByResetToken(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, errors.New("token cannot be empty for GetByResetToken operation")
	}
	return r.getByField(ctx, "passwordResetToken", token)
}

func (r *firestoreUserRepository) getByField(ctx context.Context, field, value string) (*models.User, error) {
	iter := r.client.Collection(usersCollection).Where(field, "==", value).Limit(1).Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, fmt.Errorf("user with %s '%s' not found: %w", field, value, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query users by %s: %w", field, err)
	}

	var user models.User
	if err := doc.DataTo(&user); err != nil {
		return nil, fmt.Errorf("failed to decode user data (ID: %s): %w", doc.Ref.ID, err)
	}
	user.ID = doc.Ref.ID
	return &user, nil
}

// Update overwrites the user document with the given state. The service layer
// fetches before mutating, so the struct is always a complete representation.
func (r *firestoreUserRepository) Update(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		return errors.New("user ID cannot be empty for Update operation")
	}
	user.Email = strings.ToLower(user.Email)
	_, err := r.client.Collection(usersCollection).Doc(user.ID).Set(ctx, user)
	if err != nil {
		return fmt.Errorf("failed to update user with ID '%s': %w", user.ID, err)
	}
	return nil
}

// IncrementUsedTransactions bumps subscription.usedTransactions by one using
// Firestore's atomic increment, so concurrent creations by the same user
// cannot lose updates.
func (r *firestoreUserRepository) IncrementUsedTransactions(ctx context.Context, userID string) error {
	if userID == "" {
		return errors.New("userID cannot be empty for IncrementUsedTransactions operation")
	}
	_, err := r.client.Collection(usersCollection).Doc(userID).Update(ctx, []firestore.Update{
		{Path: "subscription.usedTransactions", Value: firestore.Increment(1)},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("user with ID '%s' not found: %w", userID, ErrNotFound)
		}
		return fmt.Errorf("failed to increment usage for user '%s': %w", userID, err)
	}
	return nil
}
