package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"spendbox-backend-go/internal/core"
	"spendbox-backend-go/internal/models"
)

// Response is the uniform API envelope. Auth endpoints also carry the token
// and user at the top level for the client's convenience.
type Response struct {
	Success    bool             `json:"success"`
	Data       any              `json:"data,omitempty"`
	Message    string           `json:"message,omitempty"`
	Token      string           `json:"token,omitempty"`
	User       *models.User     `json:"user,omitempty"`
	Pagination *core.Pagination `json:"pagination,omitempty"`
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, Response{Success: true, Data: data})
}

func respondMessage(c *gin.Context, message string) {
	c.JSON(http.StatusOK, Response{Success: true, Message: message})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, Response{Success: false, Message: message})
}

func respondBadRequest(c *gin.Context, err error) {
	respondError(c, http.StatusBadRequest, "Invalid request payload: "+err.Error())
}

// mapServiceError converts service errors into the API error taxonomy.
// Everything unrecognized is a 500 with a generic body; the real error stays
// in the server log only.
func mapServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, core.ErrInvalidCredentials),
		errors.Is(err, core.ErrWrongPassword):
		respondError(c, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, core.ErrEmailTaken):
		respondError(c, http.StatusConflict, core.ErrEmailTaken.Error())
	case errors.Is(err, core.ErrInvalidToken):
		respondError(c, http.StatusBadRequest, core.ErrInvalidToken.Error())
	case errors.Is(err, core.ErrAlreadyVerified):
		respondError(c, http.StatusBadRequest, core.ErrAlreadyVerified.Error())
	case errors.Is(err, core.ErrTransactionLimitReached):
		respondError(c, http.StatusForbidden, core.ErrTransactionLimitReached.Error())
	case errors.Is(err, core.ErrExpenseNotFound):
		respondError(c, http.StatusNotFound, core.ErrExpenseNotFound.Error())
	case errors.Is(err, core.ErrUserNotFound):
		respondError(c, http.StatusNotFound, core.ErrUserNotFound.Error())
	case errors.Is(err, core.ErrAlreadyPremium):
		respondError(c, http.StatusBadRequest, core.ErrAlreadyPremium.Error())
	case errors.Is(err, core.ErrInvalidPeriod),
		errors.Is(err, core.ErrCustomRangeRequired):
		respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, core.ErrInvalidImageData),
		errors.Is(err, core.ErrInvalidAudioData):
		respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, core.ErrAccountNotLinked):
		respondError(c, http.StatusNotFound, core.ErrAccountNotLinked.Error())
	default:
		log.Printf("Internal Server Error: %v", err)
		respondError(c, http.StatusInternalServerError, "An unexpected internal server error occurred")
	}
}

// currentUserID reads the user ID set by the auth middleware.
func currentUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get("userID")
	if !exists {
		respondError(c, http.StatusUnauthorized, "User ID not found in context")
		return "", false
	}
	return userID.(string), true
}
