package core

import (
	"context"
	"time"

	"spendbox-backend-go/internal/models"
)

// AuthService defines the interface for registration, login and credential management.
type AuthService interface {
	Register(ctx context.Context, req models.RegisterRequest) (string, *models.User, error) // Returns signed token + user
	Login(ctx context.Context, req models.LoginRequest) (string, *models.User, error)
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	VerifyEmail(ctx context.Context, token string) error
	ResendVerification(ctx context.Context, userID string) error
	UpdateProfile(ctx context.Context, userID string, req models.UpdateProfileRequest) (*models.User, error)
}

// UserService defines the interface for profile, preferences and subscription operations.
type UserService interface {
	GetByID(ctx context.Context, userID string) (*models.User, error)
	UpdatePreferences(ctx context.Context, userID string, req models.PreferencesUpdate) (*models.User, error)
	Upgrade(ctx context.Context, userID string) (*models.Subscription, error)
	Stats(ctx context.Context, userID string) (*UserStats, error)
}

// UserStats summarizes account usage for GET /api/users/stats.
type UserStats struct {
	TotalExpenses     int               `json:"totalExpenses"`
	TotalAmount       float64           `json:"totalAmount"`
	AverageExpense    float64           `json:"averageExpense"`
	MostUsedCategory  string            `json:"mostUsedCategory"`
	SubscriptionUsage SubscriptionUsage `json:"subscriptionUsage"`
	AccountAgeDays    int               `json:"accountAge"`
}

// SubscriptionUsage reports quota consumption.
type SubscriptionUsage struct {
	Used       int     `json:"used"`
	Limit      int     `json:"limit"`
	Percentage float64 `json:"percentage"`
}

// ListQuery carries the filter, sort and pagination parameters for expense listings.
type ListQuery struct {
	Page      int
	Limit     int
	Category  string
	StartDate *time.Time
	EndDate   *time.Time
	MinAmount *float64
	MaxAmount *float64
	SortBy    string // "date", "amount", "category"
	SortOrder string // "asc", "desc"
}

// Pagination describes a page of results.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// MerchantTotal is one entry of the top-merchants breakdown.
type MerchantTotal struct {
	Merchant string  `json:"merchant"`
	Amount   float64 `json:"amount"`
}

// Analytics is the aggregation result for a period of expenses.
type Analytics struct {
	Period            string             `json:"period"`
	TotalExpenses     int                `json:"totalExpenses"`
	TotalAmount       float64            `json:"totalAmount"`
	AverageAmount     float64            `json:"averageAmount"`
	CategoryBreakdown map[string]float64 `json:"categoryBreakdown"`
	TopMerchants      []MerchantTotal    `json:"topMerchants"`
	DailyTrend        map[string]float64 `json:"dailyTrend"`
}

// ExpenseService defines the interface for expense CRUD, sharing and analytics.
type ExpenseService interface {
	List(ctx context.Context, userID string, q ListQuery) ([]*models.Expense, Pagination, error)
	Get(ctx context.Context, userID, expenseID string) (*models.Expense, error)
	Create(ctx context.Context, userID string, req models.CreateExpenseRequest) (*models.Expense, error)
	Update(ctx context.Context, userID, expenseID string, req models.UpdateExpenseRequest) (*models.Expense, error)
	Delete(ctx context.Context, userID, expenseID string) error
	Share(ctx context.Context, userID, expenseID string, req models.ShareExpenseRequest) (*models.Expense, error)
	SharedWithMe(ctx context.Context, userID string) ([]*models.Expense, error)
	Analytics(ctx context.Context, userID, period string, startDate, endDate *time.Time) (*Analytics, error)
}

// ExtractedExpense is the structured data pulled out of OCR text or a transcript.
type ExtractedExpense struct {
	Amount   *float64        `json:"amount,omitempty"`
	Merchant string          `json:"merchant,omitempty"`
	Date     string          `json:"date,omitempty"` // YYYY-MM-DD
	Items    []ExtractedItem `json:"items,omitempty"`
}

// ExtractedItem is a single line item on a receipt.
type ExtractedItem struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// RecognitionResult is the outcome of receipt OCR or voice transcription.
type RecognitionResult struct {
	Text          string           `json:"text"`
	Confidence    float64          `json:"confidence"` // 0..1
	ExtractedData ExtractedExpense `json:"extractedData"`
}

// Categorization is the AI-assigned category for an expense.
type Categorization struct {
	Category    string   `json:"category"`
	Confidence  float64  `json:"confidence"`
	Suggestions []string `json:"suggestions"`
	Insights    []string `json:"insights"`
}

// Prediction forecasts per-category spend for a future horizon.
type Prediction struct {
	Months               int                `json:"months"`
	Predictions          map[string]float64 `json:"predictions"`
	Confidence           float64            `json:"confidence"`
	HistoricalDataPoints int                `json:"historicalDataPoints"`
}

// Suggestions pairs a categorization with past expenses that look alike.
type Suggestions struct {
	Categorization  Categorization    `json:"categorization"`
	SimilarExpenses []*models.Expense `json:"similarExpenses"`
	Recommendations []string          `json:"recommendations"`
}

// DayTotal is the aggregate spend for one weekday.
type DayTotal struct {
	Day    string  `json:"day"`
	Amount float64 `json:"amount"`
}

// SpendingPatterns summarizes where and when a user's money goes.
type SpendingPatterns struct {
	TopCategories []MerchantTotal `json:"topCategories"` // Merchant field holds the category name
	TopMerchants  []MerchantTotal `json:"topMerchants"`
	DayOfWeek     []DayTotal      `json:"dayOfWeek"`
}

// AIService defines the interface for the AI assist operations. Categorize,
// Insights and Predict are fail-soft: they return a defined default instead of
// an error when the downstream service misbehaves.
type AIService interface {
	RecognizeReceipt(ctx context.Context, imageData string) (*RecognitionResult, error)
	TranscribeVoice(ctx context.Context, audioData string) (*RecognitionResult, error)
	Categorize(ctx context.Context, description string, amount float64, merchant string) Categorization
	Insights(ctx context.Context, expenses []models.InsightExpense, period string) []string
	SpendingInsights(ctx context.Context, userID string, expenses []models.InsightExpense, period string) []string
	Predict(history []*models.Expense, months int) Prediction
	PredictSpending(ctx context.Context, userID string, months int) (Prediction, error)
	Suggest(ctx context.Context, userID, description string, amount float64) (*Suggestions, error)
	Patterns(ctx context.Context, userID string) (*SpendingPatterns, error)
}

// OCRClient extracts text from a receipt image.
type OCRClient interface {
	ExtractText(ctx context.Context, image []byte) (text string, confidence float64, err error)
}

// AssistantClient is the language/speech model the AI service delegates to.
type AssistantClient interface {
	Complete(ctx context.Context, system, prompt string, temperature float32, maxTokens int) (string, error)
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// Institution is a bank discoverable through the aggregation vendor.
type Institution struct {
	ID   string `json:"institutionId"`
	Name string `json:"name"`
}

// BankingProvider is the aggregation vendor (Plaid) behind the banking endpoints.
type BankingProvider interface {
	CreateLinkToken(ctx context.Context, userID string) (string, error)
	ExchangePublicToken(ctx context.Context, publicToken string) (accessToken string, accounts []models.LinkedAccount, err error)
	ListInstitutions(ctx context.Context) ([]Institution, error)
}

// PlaidService defines the interface for linked bank account management.
type PlaidService interface {
	CreateLinkToken(ctx context.Context, userID string) (string, error)
	ExchangeToken(ctx context.Context, userID, publicToken string) ([]models.LinkedAccount, error)
	Accounts(ctx context.Context, userID string) ([]models.LinkedAccount, error)
	RemoveAccount(ctx context.Context, userID, accountID string) ([]models.LinkedAccount, error)
	Institutions(ctx context.Context) ([]Institution, error)
	SyncTransactions(ctx context.Context, userID string) error
}

// EventPublisher pushes expense mutation events to a user's connected clients.
// Delivery is best-effort and at-most-once; the HTTP response stays authoritative.
type EventPublisher interface {
	Publish(userID, event string, payload any)
}
