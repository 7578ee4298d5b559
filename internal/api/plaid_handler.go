package api

import (
	"github.com/gin-gonic/gin"

	"spendbox-backend-go/internal/core"
	"spendbox-backend-go/internal/models"
)

// PlaidHandler handles the linked bank account endpoints.
type PlaidHandler struct {
	plaidService core.PlaidService
}

// NewPlaidHandler creates a new PlaidHandler.
func NewPlaidHandler(ps core.PlaidService) *PlaidHandler {
	return &PlaidHandler{plaidService: ps}
}

// CreateLinkToken handles POST /api/plaid/create-link-token
func (h *PlaidHandler) CreateLinkToken(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	token, err := h.plaidService.CreateLinkToken(c.Request.Context(), userID)
	if err != nil {
		mapServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"linkToken": token})
}

// ExchangeToken handles POST /api/plaid/exchange-token
func (h *PlaidHandler) ExchangeToken(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req models.ExchangeTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	accounts, err := h.plaidService.ExchangeToken(c.Request.Context(), userID, req.PublicToken)
	if err != nil {
		mapServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"accounts": accounts})
}

// Accounts handles GET /api/plaid/accounts
func (h *PlaidHandler) Accounts(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	accounts, err := h.plaidService.Accounts(c.Request.Context(), userID)
	if err != nil {
		mapServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"accounts": accounts})
}

// RemoveAccount handles DELETE /api/plaid/accounts/:accountId
func (h *PlaidHandler) RemoveAccount(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	accounts, err := h.plaidService.RemoveAccount(c.Request.Context(), userID, c.Param("accountId"))
	if err != nil {
		mapServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"accounts": accounts})
}

// Institutions handles GET /api/plaid/institutions
func (h *PlaidHandler) Institutions(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}

	institutions, err := h.plaidService.Institutions(c.Request.Context())
	if err != nil {
		mapServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"institutions": institutions})
}

// SyncTransactions handles POST /api/plaid/sync-transactions
func (h *PlaidHandler) SyncTransactions(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.plaidService.SyncTransactions(c.Request.Context(), userID); err != nil {
		mapServiceError(c, err)
		return
	}
	respondMessage(c, "Transaction sync started")
}
