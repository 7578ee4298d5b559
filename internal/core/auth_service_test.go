package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"spendbox-backend-go/internal/models"
)

const testJWTSecret = "test-secret-do-not-use-in-prod"

type AuthServiceTestSuite struct {
	suite.Suite
	userRepo *fakeUserRepo
	service  AuthService
	ctx      context.Context
}

func (s *AuthServiceTestSuite) SetupTest() {
	s.userRepo = newFakeUserRepo()
	s.service = NewAuthService(s.userRepo, testJWTSecret, time.Hour)
	s.ctx = context.Background()
}

func (s *AuthServiceTestSuite) register(email string) (string, *models.User) {
	token, user, err := s.service.Register(s.ctx, models.RegisterRequest{
		Email:     email,
		Password:  "correct-horse",
		FirstName: "Ada",
		LastName:  "Lovelace",
	})
	require.NoError(s.T(), err)
	return token, user
}

func (s *AuthServiceTestSuite) TestRegisterHashesPassword() {
	token, user := s.register("ada@example.com")

	assert.NotEmpty(s.T(), token)
	assert.NotEmpty(s.T(), user.ID)
	assert.Equal(s.T(), "ada@example.com", user.Email)

	stored, err := s.userRepo.GetByID(s.ctx, user.ID)
	require.NoError(s.T(), err)
	assert.NotEmpty(s.T(), stored.PasswordHash)
	assert.NotEqual(s.T(), "correct-horse", stored.PasswordHash)
	assert.Equal(s.T(), "free", stored.Subscription.Plan)
	assert.Equal(s.T(), models.FreeTransactionLimit, stored.Subscription.TransactionLimit)
	assert.NotEmpty(s.T(), stored.EmailVerificationToken)
	assert.False(s.T(), stored.IsEmailVerified)
}

func (s *AuthServiceTestSuite) TestRegisterLowercasesEmail() {
	_, user := s.register("Ada@Example.COM")
	assert.Equal(s.T(), "ada@example.com", user.Email)
}

func (s *AuthServiceTestSuite) TestRegisterDuplicateEmail() {
	s.register("ada@example.com")

	_, _, err := s.service.Register(s.ctx, models.RegisterRequest{
		Email:     "ada@example.com",
		Password:  "another-pass",
		FirstName: "Ada",
		LastName:  "Lovelace",
	})
	assert.ErrorIs(s.T(), err, ErrEmailTaken)
}

func (s *AuthServiceTestSuite) TestLogin() {
	s.register("ada@example.com")

	token, user, err := s.service.Login(s.ctx, models.LoginRequest{
		Email:    "ada@example.com",
		Password: "correct-horse",
	})
	require.NoError(s.T(), err)
	assert.NotEmpty(s.T(), token)
	require.NotNil(s.T(), user.LastLogin)
}

func (s *AuthServiceTestSuite) TestLoginWrongPassword() {
	s.register("ada@example.com")

	_, _, err := s.service.Login(s.ctx, models.LoginRequest{
		Email:    "ada@example.com",
		Password: "correct-horsf",
	})
	assert.ErrorIs(s.T(), err, ErrInvalidCredentials)
}

func (s *AuthServiceTestSuite) TestLoginUnknownEmailIndistinguishable() {
	s.register("ada@example.com")

	_, _, wrongPass := s.service.Login(s.ctx, models.LoginRequest{
		Email:    "ada@example.com",
		Password: "nope",
	})
	_, _, unknown := s.service.Login(s.ctx, models.LoginRequest{
		Email:    "ghost@example.com",
		Password: "nope",
	})
	// Same sentinel either way, so callers cannot enumerate accounts.
	assert.ErrorIs(s.T(), wrongPass, ErrInvalidCredentials)
	assert.ErrorIs(s.T(), unknown, ErrInvalidCredentials)
}

func (s *AuthServiceTestSuite) TestChangePassword() {
	_, user := s.register("ada@example.com")

	err := s.service.ChangePassword(s.ctx, user.ID, "correct-horse", "battery-staple")
	require.NoError(s.T(), err)

	_, _, err = s.service.Login(s.ctx, models.LoginRequest{Email: "ada@example.com", Password: "correct-horse"})
	assert.ErrorIs(s.T(), err, ErrInvalidCredentials)
	_, _, err = s.service.Login(s.ctx, models.LoginRequest{Email: "ada@example.com", Password: "battery-staple"})
	assert.NoError(s.T(), err)
}

func (s *AuthServiceTestSuite) TestChangePasswordWrongCurrent() {
	_, user := s.register("ada@example.com")
	err := s.service.ChangePassword(s.ctx, user.ID, "wrong", "battery-staple")
	assert.ErrorIs(s.T(), err, ErrWrongPassword)
}

func (s *AuthServiceTestSuite) TestForgotPasswordUnknownEmailSilent() {
	err := s.service.ForgotPassword(s.ctx, "ghost@example.com")
	assert.NoError(s.T(), err)
}

func (s *AuthServiceTestSuite) TestResetPasswordFlow() {
	_, user := s.register("ada@example.com")

	require.NoError(s.T(), s.service.ForgotPassword(s.ctx, "ada@example.com"))

	stored, err := s.userRepo.GetByID(s.ctx, user.ID)
	require.NoError(s.T(), err)
	require.NotEmpty(s.T(), stored.PasswordResetToken)
	require.NotNil(s.T(), stored.PasswordResetExpires)

	require.NoError(s.T(), s.service.ResetPassword(s.ctx, stored.PasswordResetToken, "battery-staple"))

	_, _, err = s.service.Login(s.ctx, models.LoginRequest{Email: "ada@example.com", Password: "battery-staple"})
	assert.NoError(s.T(), err)

	// The token is consumed on use.
	err = s.service.ResetPassword(s.ctx, stored.PasswordResetToken, "third-password")
	assert.ErrorIs(s.T(), err, ErrInvalidToken)
}

func (s *AuthServiceTestSuite) TestResetPasswordExpiredToken() {
	_, user := s.register("ada@example.com")
	require.NoError(s.T(), s.service.ForgotPassword(s.ctx, "ada@example.com"))

	stored, err := s.userRepo.GetByID(s.ctx, user.ID)
	require.NoError(s.T(), err)
	expired := time.Now().UTC().Add(-time.Minute)
	stored.PasswordResetExpires = &expired
	require.NoError(s.T(), s.userRepo.Update(s.ctx, stored))

	err = s.service.ResetPassword(s.ctx, stored.PasswordResetToken, "battery-staple")
	assert.ErrorIs(s.T(), err, ErrInvalidToken)
}

func (s *AuthServiceTestSuite) TestVerifyEmail() {
	_, user := s.register("ada@example.com")

	stored, err := s.userRepo.GetByID(s.ctx, user.ID)
	require.NoError(s.T(), err)

	require.NoError(s.T(), s.service.VerifyEmail(s.ctx, stored.EmailVerificationToken))

	verified, err := s.userRepo.GetByID(s.ctx, user.ID)
	require.NoError(s.T(), err)
	assert.True(s.T(), verified.IsEmailVerified)
	assert.Empty(s.T(), verified.EmailVerificationToken)
}

func (s *AuthServiceTestSuite) TestVerifyEmailBadToken() {
	err := s.service.VerifyEmail(s.ctx, "no-such-token")
	assert.ErrorIs(s.T(), err, ErrInvalidToken)
}

func (s *AuthServiceTestSuite) TestResendVerificationAlreadyVerified() {
	_, user := s.register("ada@example.com")
	stored, _ := s.userRepo.GetByID(s.ctx, user.ID)
	require.NoError(s.T(), s.service.VerifyEmail(s.ctx, stored.EmailVerificationToken))

	err := s.service.ResendVerification(s.ctx, user.ID)
	assert.ErrorIs(s.T(), err, ErrAlreadyVerified)
}

func (s *AuthServiceTestSuite) TestUpdateProfile() {
	_, user := s.register("ada@example.com")

	first := "Augusta"
	currency := "EUR"
	updated, err := s.service.UpdateProfile(s.ctx, user.ID, models.UpdateProfileRequest{
		FirstName:   &first,
		Preferences: &models.PreferencesUpdate{Currency: &currency},
	})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "Augusta", updated.FirstName)
	assert.Equal(s.T(), "Lovelace", updated.LastName)
	assert.Equal(s.T(), "EUR", updated.Preferences.Currency)
}

func TestAuthServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}
