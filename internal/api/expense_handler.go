package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"spendbox-backend-go/internal/core"
	"spendbox-backend-go/internal/models"
)

// ExpenseHandler handles expense CRUD, sharing and analytics endpoints.
type ExpenseHandler struct {
	expenseService core.ExpenseService
	aiService      core.AIService
}

// NewExpenseHandler creates a new ExpenseHandler.
func NewExpenseHandler(es core.ExpenseService, ai core.AIService) *ExpenseHandler {
	return &ExpenseHandler{expenseService: es, aiService: ai}
}

// List handles GET /api/expenses
func (h *ExpenseHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	q := core.ListQuery{
		Category:  c.Query("category"),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
	}
	q.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	q.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))

	var err error
	if q.StartDate, err = parseDateQuery(c.Query("startDate")); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid startDate")
		return
	}
	if q.EndDate, err = parseDateQuery(c.Query("endDate")); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid endDate")
		return
	}
	if q.MinAmount, err = parseFloatQuery(c.Query("minAmount")); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid minAmount")
		return
	}
	if q.MaxAmount, err = parseFloatQuery(c.Query("maxAmount")); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid maxAmount")
		return
	}

	expenses, pagination, err := h.expenseService.List(c.Request.Context(), userID, q)
	if err != nil {
		mapServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: expenses, Pagination: &pagination})
}

// Get handles GET /api/expenses/:id
func (h *ExpenseHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	expense, err := h.expenseService.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		mapServiceError(c, err)
		return
	}
	respondOK(c, expense)
}

// Create handles POST /api/expenses
func (h *ExpenseHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req models.CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	expense, err := h.expenseService.Create(c.Request.Context(), userID, req)
	if err != nil {
		mapServiceError(c, err)
		return
	}
	respondCreated(c, expense)
}

// Update handles PUT /api/expenses/:id
func (h *ExpenseHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req models.UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	expense, err := h.expenseService.Update(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		mapServiceError(c, err)
		return
	}
	respondOK(c, expense)
}

// Delete handles DELETE /api/expenses/:id
func (h *ExpenseHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.expenseService.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		mapServiceError(c, err)
		return
	}
	respondMessage(c, "Expense deleted successfully")
}

// Share handles POST /api/expenses/:id/share
func (h *ExpenseHandler) Share(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req models.ShareExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	expense, err := h.expenseService.Share(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		mapServiceError(c, err)
		return
	}
	respondOK(c, expense)
}

// Shared handles GET /api/expenses/shared
func (h *ExpenseHandler) Shared(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	expenses, err := h.expenseService.SharedWithMe(c.Request.Context(), userID)
	if err != nil {
		mapServiceError(c, err)
		return
	}
	respondOK(c, expenses)
}

// Analytics handles GET /api/expenses/analytics
func (h *ExpenseHandler) Analytics(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	period := c.DefaultQuery("period", "month")
	startDate, err := parseDateQuery(c.Query("startDate"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid startDate")
		return
	}
	endDate, err := parseDateQuery(c.Query("endDate"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid endDate")
		return
	}

	analytics, err := h.expenseService.Analytics(c.Request.Context(), userID, period, startDate, endDate)
	if err != nil {
		mapServiceError(c, err)
		return
	}
	respondOK(c, analytics)
}

// ProcessReceipt handles POST /api/expenses/process-receipt
func (h *ExpenseHandler) ProcessReceipt(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}

	var req models.ProcessReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	result, err := h.aiService.RecognizeReceipt(c.Request.Context(), req.ImageData)
	if err != nil {
		mapServiceError(c, err)
		return
	}
	respondOK(c, result)
}

// parseDateQuery accepts RFC 3339 or a bare YYYY-MM-DD date.
func parseDateQuery(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t, err = time.Parse("2006-01-02", value)
		if err != nil {
			return nil, err
		}
	}
	t = t.UTC()
	return &t, nil
}

func parseFloatQuery(value string) (*float64, error) {
	if value == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}
