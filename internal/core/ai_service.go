package core

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"spendbox-backend-go/internal/db"
	"spendbox-backend-go/internal/models"
)

// Custom errors for the AIService
var (
	ErrInvalidImageData = errors.New("invalid image data")
	ErrInvalidAudioData = errors.New("invalid audio data")
	ErrRecognitionFail  = errors.New("recognition failed")
)

const (
	// Transcripts carry no per-word scores, so a single vendor-level figure.
	transcriptionConfidence = 0.9

	llmTemperature = 0.2
	llmMaxTokens   = 500

	patternsSampleSize = 1000
)

// Responses returned verbatim when the language model is unavailable or
// answers off-schema. Clients render these directly.
var (
	fallbackCategorization = Categorization{
		Category:    "Other",
		Confidence:  0.5,
		Suggestions: []string{"Food & Dining", "Shopping"},
		Insights:    []string{"Unable to categorize automatically. Please review and categorize manually."},
	}
	fallbackInsights = []string{"Unable to generate insights at this time."}
)

// aiService implements the AIService interface on top of an OCR client and
// a chat/speech model.
type aiService struct {
	ocr         OCRClient
	assistant   AssistantClient
	expenseRepo db.ExpenseRepository
}

// NewAIService creates a new AIService instance.
func NewAIService(ocr OCRClient, assistant AssistantClient, expenseRepo db.ExpenseRepository) AIService {
	return &aiService{
		ocr:         ocr,
		assistant:   assistant,
		expenseRepo: expenseRepo,
	}
}

// RecognizeReceipt runs OCR over a base64-encoded receipt image and asks the
// model to pull out the structured fields. OCR failure is a hard error;
// extraction failure degrades to the raw text with empty extracted data.
func (s *aiService) RecognizeReceipt(ctx context.Context, imageData string) (*RecognitionResult, error) {
	image, err := decodePayload(imageData)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImageData, err)
	}

	text, confidence, err := s.ocr.ExtractText(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecognitionFail, err)
	}

	return &RecognitionResult{
		Text:          text,
		Confidence:    confidence,
		ExtractedData: s.extractExpense(ctx, text),
	}, nil
}

// TranscribeVoice transcribes a base64-encoded recording and extracts the
// expense fields from the transcript.
func (s *aiService) TranscribeVoice(ctx context.Context, audioData string) (*RecognitionResult, error) {
	audio, err := decodePayload(audioData)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAudioData, err)
	}

	transcript, err := s.assistant.Transcribe(ctx, audio)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecognitionFail, err)
	}

	return &RecognitionResult{
		Text:          transcript,
		Confidence:    transcriptionConfidence,
		ExtractedData: s.extractExpense(ctx, transcript),
	}, nil
}

// decodePayload strips an optional data-URL prefix and base64-decodes the rest.
func decodePayload(data string) ([]byte, error) {
	if idx := strings.Index(data, ";base64,"); idx >= 0 {
		data = data[idx+len(";base64,"):]
	}
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, err
	}
	if len(decoded) == 0 {
		return nil, errors.New("empty payload")
	}
	return decoded, nil
}

// extractExpense asks the model for the amount, merchant, date and line items
// found in free text. Any failure yields an empty extraction.
func (s *aiService) extractExpense(ctx context.Context, text string) ExtractedExpense {
	if strings.TrimSpace(text) == "" {
		return ExtractedExpense{}
	}

	system := "You extract expense data from receipts and spoken descriptions. " +
		"Respond with JSON only, no prose, in the shape " +
		`{"amount": number or null, "merchant": string, "date": "YYYY-MM-DD", "items": [{"name": string, "price": number}]}. ` +
		"Omit fields you cannot determine."
	prompt := "Extract the expense data from this text:\n\n" + text

	raw, err := s.assistant.Complete(ctx, system, prompt, llmTemperature, llmMaxTokens)
	if err != nil {
		return ExtractedExpense{}
	}

	var extracted ExtractedExpense
	if err := decodeModelJSON(raw, &extracted); err != nil {
		return ExtractedExpense{}
	}
	return extracted
}

// Categorize asks the model to place an expense into one of the standard
// categories. Off-schema answers, unknown categories and out-of-range
// confidences all collapse to the fixed fallback.
func (s *aiService) Categorize(ctx context.Context, description string, amount float64, merchant string) Categorization {
	categories := models.DefaultCategories()

	system := "You categorize personal expenses. Respond with JSON only, no prose, in the shape " +
		`{"category": string, "confidence": number, "suggestions": [string], "insights": [string]}. ` +
		"The category and every suggestion must be one of: " + strings.Join(categories, ", ") + "."
	prompt := fmt.Sprintf("Categorize this expense.\nDescription: %s\nAmount: %.2f", description, amount)
	if merchant != "" {
		prompt += "\nMerchant: " + merchant
	}

	raw, err := s.assistant.Complete(ctx, system, prompt, llmTemperature, llmMaxTokens)
	if err != nil {
		return fallbackCategorization
	}

	var result Categorization
	if err := decodeModelJSON(raw, &result); err != nil {
		return fallbackCategorization
	}
	if !containsString(categories, result.Category) {
		return fallbackCategorization
	}
	if result.Confidence < 0 || result.Confidence > 1 {
		return fallbackCategorization
	}
	if result.Suggestions == nil {
		result.Suggestions = []string{}
	}
	if result.Insights == nil {
		result.Insights = []string{}
	}
	return result
}

// Insights summarizes a period of spending into short observations. The
// prompt carries the totals, category breakdown and the ten most recent
// entries rather than the full list.
func (s *aiService) Insights(ctx context.Context, expenses []models.InsightExpense, period string) []string {
	if len(expenses) == 0 {
		return fallbackInsights
	}

	var total float64
	breakdown := make(map[string]float64)
	for _, e := range expenses {
		total += e.Amount
		breakdown[e.Category] += e.Amount
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Period: %s\nTotal spent: %.2f across %d expenses\n\nBy category:\n", period, total, len(expenses))
	for category, amount := range breakdown {
		fmt.Fprintf(&sb, "- %s: %.2f\n", category, amount)
	}
	sb.WriteString("\nMost recent expenses:\n")
	recent := expenses
	if len(recent) > 10 {
		recent = recent[len(recent)-10:]
	}
	for _, e := range recent {
		fmt.Fprintf(&sb, "- %s: %.2f (%s, %s)\n", e.Description, e.Amount, e.Category, e.Date.Format("2006-01-02"))
	}

	system := "You are a personal finance advisor. Given a spending summary, respond with JSON only: " +
		"an array of 3 to 5 short, actionable insight strings."

	raw, err := s.assistant.Complete(ctx, system, sb.String(), llmTemperature, llmMaxTokens)
	if err != nil {
		return fallbackInsights
	}

	var insights []string
	if err := decodeModelJSON(raw, &insights); err != nil || len(insights) == 0 {
		return fallbackInsights
	}
	return insights
}

// SpendingInsights generates insights over the caller's stored history when
// the request carries no expense list of its own.
func (s *aiService) SpendingInsights(ctx context.Context, userID string, expenses []models.InsightExpense, period string) []string {
	if len(expenses) == 0 {
		expenses = s.loadInsightWindow(ctx, userID, period)
	}
	return s.Insights(ctx, expenses, period)
}

// loadInsightWindow fetches the user's expenses for the trailing period,
// counting back from now rather than from a calendar boundary.
func (s *aiService) loadInsightWindow(ctx context.Context, userID, period string) []models.InsightExpense {
	now := time.Now().UTC()
	var start time.Time
	switch period {
	case "week":
		start = now.AddDate(0, 0, -7)
	case "quarter":
		start = now.AddDate(0, -3, 0)
	case "year":
		start = now.AddDate(-1, 0, 0)
	default:
		start = now.AddDate(0, -1, 0)
	}

	stored, err := s.expenseRepo.GetByOwner(ctx, userID, db.ExpenseFilter{StartDate: &start})
	if err != nil {
		return nil
	}

	expenses := make([]models.InsightExpense, 0, len(stored))
	for _, e := range stored {
		expenses = append(expenses, models.InsightExpense{
			Amount:      e.Amount,
			Category:    e.Category,
			Description: e.Description,
			Date:        e.Date,
		})
	}
	return expenses
}

// Predict projects per-category spend over the coming months from the
// user's history. No model call involved, the forecast is a plain monthly
// average. Confidence grows with the observed span and caps at 0.9.
func (s *aiService) Predict(history []*models.Expense, months int) Prediction {
	if months < 1 {
		months = 1
	}
	if len(history) == 0 {
		return Prediction{Months: months, Predictions: map[string]float64{}, Confidence: 0.5}
	}

	oldest := history[0].Date
	totals := make(map[string]float64)
	for _, e := range history {
		if e.Date.Before(oldest) {
			oldest = e.Date
		}
		totals[e.Category] += e.Amount
	}

	days := time.Now().UTC().Sub(oldest).Hours() / 24
	monthsOfData := math.Max(1, math.Ceil(days/30))

	predictions := make(map[string]float64, len(totals))
	for category, total := range totals {
		predictions[category] = total / monthsOfData * float64(months)
	}

	return Prediction{
		Months:               months,
		Predictions:          predictions,
		Confidence:           math.Min(0.9, monthsOfData/6),
		HistoricalDataPoints: len(history),
	}
}

// PredictSpending runs Predict over the user's stored history.
func (s *aiService) PredictSpending(ctx context.Context, userID string, months int) (Prediction, error) {
	history, err := s.expenseRepo.GetByOwner(ctx, userID, db.ExpenseFilter{})
	if err != nil {
		return Prediction{}, fmt.Errorf("failed to load expense history for prediction: %w", err)
	}
	return s.Predict(history, months), nil
}

// Suggest combines a categorization with up to five past expenses that look
// like the described one, plus standing recommendations.
func (s *aiService) Suggest(ctx context.Context, userID, description string, amount float64) (*Suggestions, error) {
	categorization := s.Categorize(ctx, description, amount, "")

	history, err := s.expenseRepo.GetByOwner(ctx, userID, db.ExpenseFilter{Limit: 200})
	if err != nil {
		return nil, fmt.Errorf("failed to load expense history for suggestions: %w", err)
	}

	similar := similarExpenses(history, description, 5)

	return &Suggestions{
		Categorization:  categorization,
		SimilarExpenses: similar,
		Recommendations: []string{
			"Review the suggested category before saving",
			"Add a merchant to improve future categorization",
			"Tag recurring expenses to track them over time",
		},
	}, nil
}

// similarExpenses picks the most recent entries sharing a significant word
// with the description. Words of three letters or fewer are ignored.
func similarExpenses(history []*models.Expense, description string, n int) []*models.Expense {
	words := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(description)) {
		if len(w) > 3 {
			words[w] = true
		}
	}

	similar := make([]*models.Expense, 0, n)
	for _, e := range history {
		if len(similar) == n {
			break
		}
		for _, w := range strings.Fields(strings.ToLower(e.Description)) {
			if words[w] {
				similar = append(similar, e)
				break
			}
		}
	}
	return similar
}

// Patterns aggregates the user's recent history into top categories, top
// merchants and weekday totals.
func (s *aiService) Patterns(ctx context.Context, userID string) (*SpendingPatterns, error) {
	history, err := s.expenseRepo.GetByOwner(ctx, userID, db.ExpenseFilter{Limit: patternsSampleSize})
	if err != nil {
		return nil, fmt.Errorf("failed to load expense history for patterns: %w", err)
	}

	categories := make(map[string]float64)
	merchants := make(map[string]float64)
	weekdays := make(map[time.Weekday]float64)
	for _, e := range history {
		categories[e.Category] += e.Amount
		if e.Merchant != "" {
			merchants[e.Merchant] += e.Amount
		}
		weekdays[e.Date.Weekday()] += e.Amount
	}

	dayOfWeek := make([]DayTotal, 0, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		dayOfWeek = append(dayOfWeek, DayTotal{Day: d.String(), Amount: weekdays[d]})
	}

	return &SpendingPatterns{
		TopCategories: topMerchants(categories, 5),
		TopMerchants:  topMerchants(merchants, 10),
		DayOfWeek:     dayOfWeek,
	}, nil
}

// decodeModelJSON parses a model response that should be bare JSON, tolerating
// a surrounding markdown code fence. Unknown fields are rejected so malformed
// answers surface as errors instead of zero values.
func decodeModelJSON(raw string, v any) error {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSuffix(strings.TrimSpace(raw), "```")
		raw = strings.TrimSpace(raw)
	}
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
