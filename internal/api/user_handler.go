package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"spendbox-backend-go/internal/core"
	"spendbox-backend-go/internal/models"
)

// UserHandler handles profile, preferences and subscription endpoints.
type UserHandler struct {
	userService core.UserService
	authService core.AuthService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(us core.UserService, as core.AuthService) *UserHandler {
	return &UserHandler{userService: us, authService: as}
}

// Profile handles GET /api/users/profile
func (h *UserHandler) Profile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), userID)
	if err != nil {
		mapServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, User: user})
}

// UpdateProfile handles PUT /api/users/profile
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	user, err := h.authService.UpdateProfile(c.Request.Context(), userID, req)
	if err != nil {
		mapServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, User: user})
}

// Preferences handles GET /api/users/preferences
func (h *UserHandler) Preferences(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), userID)
	if err != nil {
		mapServiceError(c, err)
		return
	}
	respondOK(c, user.Preferences)
}

// UpdatePreferences handles PUT /api/users/preferences
func (h *UserHandler) UpdatePreferences(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req models.PreferencesUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	user, err := h.userService.UpdatePreferences(c.Request.Context(), userID, req)
	if err != nil {
		mapServiceError(c, err)
		return
	}
	respondOK(c, user.Preferences)
}

// Subscription handles GET /api/users/subscription
func (h *UserHandler) Subscription(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), userID)
	if err != nil {
		mapServiceError(c, err)
		return
	}
	respondOK(c, user.Subscription)
}

// Upgrade handles POST /api/users/upgrade
func (h *UserHandler) Upgrade(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	subscription, err := h.userService.Upgrade(c.Request.Context(), userID)
	if err != nil {
		mapServiceError(c, err)
		return
	}
	respondOK(c, subscription)
}

// Stats handles GET /api/users/stats
func (h *UserHandler) Stats(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	stats, err := h.userService.Stats(c.Request.Context(), userID)
	if err != nil {
		mapServiceError(c, err)
		return
	}
	respondOK(c, stats)
}
