package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendbox-backend-go/internal/core"
	"spendbox-backend-go/internal/models"
)

var testSecret = []byte("unit-test-secret")

func signTestToken(t *testing.T, userID string, secret []byte, ttl time.Duration) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":  userID,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(ttl).Unix(),
	})
	signed, err := token.SignedString(secret)
	require.NoError(t, err)
	return signed
}

func TestParseUserID(t *testing.T) {
	token := signTestToken(t, "user-1", testSecret, time.Hour)

	userID, err := ParseUserID(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestParseUserIDExpired(t *testing.T) {
	token := signTestToken(t, "user-1", testSecret, -time.Minute)
	_, err := ParseUserID(token, testSecret)
	assert.ErrorIs(t, err, ErrBadToken)
}

func TestParseUserIDWrongSecret(t *testing.T) {
	token := signTestToken(t, "user-1", []byte("other-secret"), time.Hour)
	_, err := ParseUserID(token, testSecret)
	assert.ErrorIs(t, err, ErrBadToken)
}

func TestParseUserIDMissingClaim(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString(testSecret)
	require.NoError(t, err)

	_, err = ParseUserID(signed, testSecret)
	assert.ErrorIs(t, err, ErrBadToken)
}

// stubUserService serves a single known user.
type stubUserService struct {
	user *models.User
}

func (s *stubUserService) GetByID(_ context.Context, userID string) (*models.User, error) {
	if s.user != nil && s.user.ID == userID {
		return s.user, nil
	}
	return nil, core.ErrUserNotFound
}

func (s *stubUserService) UpdatePreferences(context.Context, string, models.PreferencesUpdate) (*models.User, error) {
	panic("not used")
}

func (s *stubUserService) Upgrade(context.Context, string) (*models.Subscription, error) {
	panic("not used")
}

func (s *stubUserService) Stats(context.Context, string) (*core.UserStats, error) {
	panic("not used")
}

func protectedRouter(users core.UserService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/secure", Protect(users, testSecret), func(c *gin.Context) {
		userID, _ := c.Get(ContextUserIDKey)
		c.JSON(http.StatusOK, gin.H{"userID": userID})
	})
	return router
}

func TestProtectAllowsValidToken(t *testing.T) {
	users := &stubUserService{user: &models.User{ID: "user-1", Role: "user"}}
	router := protectedRouter(users)

	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Bearer "+signTestToken(t, "user-1", testSecret, time.Hour))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "user-1")
}

func TestProtectRejectsMissingHeader(t *testing.T) {
	router := protectedRouter(&stubUserService{})

	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProtectRejectsDeletedUser(t *testing.T) {
	router := protectedRouter(&stubUserService{})

	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Bearer "+signTestToken(t, "ghost", testSecret, time.Hour))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthorize(t *testing.T) {
	gin.SetMode(gin.TestMode)
	users := &stubUserService{user: &models.User{ID: "user-1", Role: "user"}}
	router := gin.New()
	router.GET("/admin", Protect(users, testSecret), Authorize("admin"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+signTestToken(t, "user-1", testSecret, time.Hour))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
