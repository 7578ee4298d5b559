package core

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"spendbox-backend-go/internal/db"
	"spendbox-backend-go/internal/models"
)

// Custom errors for the AuthService
var (
	ErrEmailTaken         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrInvalidToken       = errors.New("invalid or expired reset token")
	ErrAlreadyVerified    = errors.New("email is already verified")
)

// bcryptCost is deliberately above the library default.
const bcryptCost = 12

// resetTokenTTL bounds how long a password-reset token is accepted.
const resetTokenTTL = 10 * time.Minute

// authService implements the AuthService interface.
type authService struct {
	userRepo  db.UserRepository
	jwtSecret []byte
	jwtExpire time.Duration
}

// NewAuthService creates a new AuthService instance.
func NewAuthService(userRepo db.UserRepository, jwtSecret string, jwtExpire time.Duration) AuthService {
	return &authService{
		userRepo:  userRepo,
		jwtSecret: []byte(jwtSecret),
		jwtExpire: jwtExpire,
	}
}

// Register creates a new user with a bcrypt-hashed password and returns a
// signed token. Fails with ErrEmailTaken when the email is already registered.
func (s *authService) Register(ctx context.Context, req models.RegisterRequest) (string, *models.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return "", nil, fmt.Errorf("%w: %s", ErrEmailTaken, email)
	} else if !errors.Is(err, db.ErrNotFound) {
		return "", nil, fmt.Errorf("failed to check for existing user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return "", nil, fmt.Errorf("failed to hash password: %w", err)
	}

	verificationToken := uuid.NewString()

	now := time.Now().UTC()
	user := &models.User{
		Email:                  email,
		PasswordHash:           string(hash),
		FirstName:              strings.TrimSpace(req.FirstName),
		LastName:               strings.TrimSpace(req.LastName),
		Role:                   "user",
		Subscription:           models.DefaultSubscription(now),
		Preferences:            models.DefaultPreferences(),
		EmailVerificationToken: verificationToken,
		CreatedAt:              now,
		UpdatedAt:              now,
	}

	userID, err := s.userRepo.Create(ctx, user)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create user in repository: %w", err)
	}
	user.ID = userID

	// TODO: send verification email once a mailer is wired up.

	token, err := s.signToken(user.ID)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// Login verifies credentials and returns a signed token. Unknown email and
// wrong password are indistinguishable to the caller to avoid account
// enumeration. Updates lastLogin as a side effect.
func (s *authService) Login(ctx context.Context, req models.LoginRequest) (string, *models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("failed to look up user for login: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return "", nil, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	user.LastLogin = &now
	user.UpdatedAt = now
	if err := s.userRepo.Update(ctx, user); err != nil {
		return "", nil, fmt.Errorf("failed to record last login: %w", err)
	}

	token, err := s.signToken(user.ID)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// ChangePassword replaces the password after verifying the current one.
func (s *authService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return fmt.Errorf("%w: user with ID '%s'", ErrUserNotFound, userID)
		}
		return fmt.Errorf("failed to get user for password change: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)) != nil {
		return ErrWrongPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.PasswordHash = string(hash)
	user.UpdatedAt = time.Now().UTC()

	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// ForgotPassword stores a short-lived reset token. It returns nil whether or
// not the email exists so callers cannot probe for accounts.
func (s *authService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to look up user for password reset: %w", err)
	}

	token, err := randomToken()
	if err != nil {
		return err
	}
	expires := time.Now().UTC().Add(resetTokenTTL)
	user.PasswordResetToken = token
	user.PasswordResetExpires = &expires
	user.UpdatedAt = time.Now().UTC()

	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	// TODO: send the reset email once a mailer is wired up.
	return nil
}

// ResetPassword consumes a reset token exactly once. Expired or unknown
// tokens fail with ErrInvalidToken.
func (s *authService) ResetPassword(ctx context.Context, token, newPassword string) error {
	user, err := s.userRepo.GetByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return ErrInvalidToken
		}
		return fmt.Errorf("failed to look up reset token: %w", err)
	}
	if user.PasswordResetExpires == nil || time.Now().UTC().After(*user.PasswordResetExpires) {
		return ErrInvalidToken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.PasswordHash = string(hash)
	user.PasswordResetToken = ""
	user.PasswordResetExpires = nil
	user.UpdatedAt = time.Now().UTC()

	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}
	return nil
}

// VerifyEmail marks the account verified and consumes the verification token.
func (s *authService) VerifyEmail(ctx context.Context, token string) error {
	user, err := s.userRepo.GetByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return ErrInvalidToken
		}
		return fmt.Errorf("failed to look up verification token: %w", err)
	}

	user.IsEmailVerified = true
	user.EmailVerificationToken = ""
	user.UpdatedAt = time.Now().UTC()

	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to mark email verified: %w", err)
	}
	return nil
}

// ResendVerification issues a fresh verification token for an unverified account.
func (s *authService) ResendVerification(ctx context.Context, userID string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return fmt.Errorf("%w: user with ID '%s'", ErrUserNotFound, userID)
		}
		return fmt.Errorf("failed to get user for verification resend: %w", err)
	}
	if user.IsEmailVerified {
		return ErrAlreadyVerified
	}

	user.EmailVerificationToken = uuid.NewString()
	user.UpdatedAt = time.Now().UTC()

	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to store verification token: %w", err)
	}

	// TODO: send the verification email once a mailer is wired up.
	return nil
}

// UpdateProfile applies partial name and preference changes.
func (s *authService) UpdateProfile(ctx context.Context, userID string, req models.UpdateProfileRequest) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: user with ID '%s'", ErrUserNotFound, userID)
		}
		return nil, fmt.Errorf("failed to get user for profile update: %w", err)
	}

	if req.FirstName != nil {
		user.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		user.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Preferences != nil {
		applyPreferences(&user.Preferences, *req.Preferences)
	}
	user.UpdatedAt = time.Now().UTC()

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return user, nil
}

// signToken issues an HS256 JWT with the user ID as the "id" claim.
func (s *authService) signToken(userID string) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"id":  userID,
		"iat": now.Unix(),
		"exp": now.Add(s.jwtExpire).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// randomToken returns 32 bytes of entropy hex encoded, for reset tokens.
func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// applyPreferences merges a partial preferences update into prefs.
func applyPreferences(prefs *models.Preferences, upd models.PreferencesUpdate) {
	if upd.Currency != nil {
		prefs.Currency = strings.ToUpper(*upd.Currency)
	}
	if upd.Timezone != nil {
		prefs.Timezone = *upd.Timezone
	}
	if upd.Notifications != nil {
		if upd.Notifications.Email != nil {
			prefs.Notifications.Email = *upd.Notifications.Email
		}
		if upd.Notifications.Push != nil {
			prefs.Notifications.Push = *upd.Notifications.Push
		}
		if upd.Notifications.SMS != nil {
			prefs.Notifications.SMS = *upd.Notifications.SMS
		}
	}
	if upd.Categories != nil {
		prefs.Categories = *upd.Categories
	}
}
