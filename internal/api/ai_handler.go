package api

import (
	"github.com/gin-gonic/gin"

	"spendbox-backend-go/internal/core"
	"spendbox-backend-go/internal/models"
)

// AIHandler handles the AI assist endpoints.
type AIHandler struct {
	aiService core.AIService
}

// NewAIHandler creates a new AIHandler.
func NewAIHandler(ai core.AIService) *AIHandler {
	return &AIHandler{aiService: ai}
}

// Categorize handles POST /api/ai/categorize
// Always succeeds; downstream failures surface as the fallback categorization.
func (h *AIHandler) Categorize(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}

	var req models.CategorizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	result := h.aiService.Categorize(c.Request.Context(), req.Description, req.Amount, req.Merchant)
	respondOK(c, result)
}

// Insights handles POST /api/ai/insights
// When the body carries no expenses, the caller's stored history for the
// period is used instead.
func (h *AIHandler) Insights(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req models.InsightsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	insights := h.aiService.SpendingInsights(c.Request.Context(), userID, req.Expenses, req.Period)
	respondOK(c, gin.H{"insights": insights})
}

// Predict handles POST /api/ai/predict
func (h *AIHandler) Predict(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req models.PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	months := req.Months
	if months == 0 {
		months = 3
	}

	prediction, err := h.aiService.PredictSpending(c.Request.Context(), userID, months)
	if err != nil {
		mapServiceError(c, err)
		return
	}
	respondOK(c, prediction)
}

// ProcessReceipt handles POST /api/ai/process-receipt
func (h *AIHandler) ProcessReceipt(c *gin.Context) {
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

// ProcessVoice handles POST /api/ai/process-voice
func (h *AIHandler) ProcessVoice(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}

	var req models.ProcessVoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	result, err := h.aiService.TranscribeVoice(c.Request.Context(), req.AudioData)
	if err != nil {
		mapServiceError(c, err)
		return
	}
	respondOK(c, result)
}

// Suggestions handles POST /api/ai/suggestions
func (h *AIHandler) Suggestions(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req models.SuggestionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	suggestions, err := h.aiService.Suggest(c.Request.Context(), userID, req.Description, req.Amount)
	if err != nil {
		mapServiceError(c, err)
		return
	}
	respondOK(c, suggestions)
}

// Patterns handles GET /api/ai/patterns
func (h *AIHandler) Patterns(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	patterns, err := h.aiService.Patterns(c.Request.Context(), userID)
	if err != nil {
		mapServiceError(c, err)
		return
	}
	respondOK(c, patterns)
}
