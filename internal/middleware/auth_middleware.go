package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"spendbox-backend-go/internal/core"
	"spendbox-backend-go/internal/models"
)

// Context keys set by Protect.
const (
	ContextUserIDKey = "userID"
	ContextUserKey   = "user"
)

var (
	ErrMissingToken = errors.New("authorization token required")
	ErrBadToken     = errors.New("invalid or expired token")
)

// ParseUserID validates a signed token and returns the user ID claim. Shared
// by the HTTP middleware and the websocket handshake, which carries the token
// as a query parameter instead of a header.
func ParseUserID(tokenString string, secret []byte) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrBadToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrBadToken
	}
	userID, ok := claims["id"].(string)
	if !ok || userID == "" {
		return "", ErrBadToken
	}
	return userID, nil
}

// Protect requires a valid bearer token and loads the account it names.
// Sets ContextUserIDKey and ContextUserKey for downstream handlers.
func Protect(userService core.UserService, secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		parts := strings.Fields(header)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abortUnauthorized(c, ErrMissingToken.Error())
			return
		}

		userID, err := ParseUserID(parts[1], secret)
		if err != nil {
			abortUnauthorized(c, err.Error())
			return
		}

		// The token may outlive the account.
		user, err := userService.GetByID(c.Request.Context(), userID)
		if err != nil {
			abortUnauthorized(c, ErrBadToken.Error())
			return
		}

		c.Set(ContextUserIDKey, userID)
		c.Set(ContextUserKey, user)
		c.Next()
	}
}

// Authorize requires one of the given roles. Must run after Protect.
func Authorize(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := CurrentUser(c)
		if err != nil {
			abortUnauthorized(c, ErrMissingToken.Error())
			return
		}
		for _, role := range roles {
			if user.Role == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"success": false,
			"message": "insufficient permissions",
		})
	}
}

// CurrentUser returns the authenticated user loaded by Protect.
func CurrentUser(c *gin.Context) (*models.User, error) {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil, ErrMissingToken
	}
	user, ok := value.(*models.User)
	if !ok {
		return nil, ErrMissingToken
	}
	return user, nil
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"message": message,
	})
}
