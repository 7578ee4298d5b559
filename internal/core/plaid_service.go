package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"spendbox-backend-go/internal/crypto"
	"spendbox-backend-go/internal/db"
	"spendbox-backend-go/internal/models"
)

// Custom errors for the PlaidService
var (
	ErrAccountNotLinked = errors.New("account not linked")
)

// plaidService implements the PlaidService interface. Access tokens returned
// by the provider are encrypted with the service key before persisting.
type plaidService struct {
	provider BankingProvider
	userRepo db.UserRepository
	key      []byte
}

// NewPlaidService creates a new PlaidService instance.
func NewPlaidService(provider BankingProvider, userRepo db.UserRepository, encryptionKey []byte) PlaidService {
	return &plaidService{
		provider: provider,
		userRepo: userRepo,
		key:      encryptionKey,
	}
}

// CreateLinkToken starts a Plaid Link flow for the user.
func (s *plaidService) CreateLinkToken(ctx context.Context, userID string) (string, error) {
	token, err := s.provider.CreateLinkToken(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to create link token: %w", err)
	}
	return token, nil
}

// ExchangeToken swaps the public token from Plaid Link for an access token,
// encrypts it and appends the linked accounts to the user's profile.
func (s *plaidService) ExchangeToken(ctx context.Context, userID, publicToken string) ([]models.LinkedAccount, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	accessToken, accounts, err := s.provider.ExchangePublicToken(ctx, publicToken)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange public token: %w", err)
	}

	sealed, err := crypto.Seal(accessToken, s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt access token: %w", err)
	}

	for i := range accounts {
		accounts[i].AccessToken = sealed
	}
	user.LinkedAccounts = append(user.LinkedAccounts, accounts...)
	user.UpdatedAt = time.Now().UTC()

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to save linked accounts: %w", err)
	}
	return user.LinkedAccounts, nil
}

// Accounts lists the user's linked bank accounts.
func (s *plaidService) Accounts(ctx context.Context, userID string) ([]models.LinkedAccount, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.LinkedAccounts == nil {
		return []models.LinkedAccount{}, nil
	}
	return user.LinkedAccounts, nil
}

// RemoveAccount unlinks one bank account and returns the remaining list.
func (s *plaidService) RemoveAccount(ctx context.Context, userID, accountID string) ([]models.LinkedAccount, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	remaining := make([]models.LinkedAccount, 0, len(user.LinkedAccounts))
	found := false
	for _, account := range user.LinkedAccounts {
		if account.AccountID == accountID {
			found = true
			continue
		}
		remaining = append(remaining, account)
	}
	if !found {
		return nil, fmt.Errorf("%w: account with ID '%s'", ErrAccountNotLinked, accountID)
	}

	user.LinkedAccounts = remaining
	user.UpdatedAt = time.Now().UTC()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to remove linked account: %w", err)
	}
	return remaining, nil
}

// Institutions lists the banks available through the provider.
func (s *plaidService) Institutions(ctx context.Context) ([]Institution, error) {
	institutions, err := s.provider.ListInstitutions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list institutions: %w", err)
	}
	return institutions, nil
}

// SyncTransactions acknowledges a sync request for the user's linked
// accounts. Transaction ingestion itself runs out of band.
func (s *plaidService) SyncTransactions(ctx context.Context, userID string) error {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}
	if len(user.LinkedAccounts) == 0 {
		return ErrAccountNotLinked
	}
	return nil
}

func (s *plaidService) getUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: user with ID '%s'", ErrUserNotFound, userID)
		}
		return nil, fmt.Errorf("failed to get user '%s': %w", userID, err)
	}
	return user, nil
}
