package models

import "time"

// RegisterRequest represents the request body for user registration.
type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ForgotPasswordRequest represents the request body for requesting a password reset.
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPasswordRequest represents the request body for completing a password reset.
type ResetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

// VerifyEmailRequest represents the request body for email verification.
type VerifyEmailRequest struct {
	Token string `json:"token" binding:"required"`
}

// ChangePasswordRequest represents the request body for changing the password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8"`
}

// UpdateProfileRequest represents the request body for profile updates.
// Pointers distinguish fields not provided from fields cleared.
type UpdateProfileRequest struct {
	FirstName   *string            `json:"firstName,omitempty"`
	LastName    *string            `json:"lastName,omitempty"`
	Preferences *PreferencesUpdate `json:"preferences,omitempty"`
}

// PreferencesUpdate represents a partial update of user preferences.
type PreferencesUpdate struct {
	Currency      *string    `json:"currency,omitempty" binding:"omitempty,len=3"`
	Timezone      *string    `json:"timezone,omitempty"`
	Notifications *struct {
		Email *bool `json:"email,omitempty"`
		Push  *bool `json:"push,omitempty"`
		SMS   *bool `json:"sms,omitempty"`
	} `json:"notifications,omitempty"`
	Categories *[]string `json:"categories,omitempty"`
}

// CreateExpenseRequest represents the request body for creating an expense.
type CreateExpenseRequest struct {
	Amount        float64       `json:"amount" binding:"required,gte=0"`
	Currency      string        `json:"currency,omitempty" binding:"omitempty,len=3"`
	Description   string        `json:"description" binding:"required,max=200"`
	Category      string        `json:"category" binding:"required"`
	Subcategory   string        `json:"subcategory,omitempty"`
	Merchant      string        `json:"merchant,omitempty"`
	Location      string        `json:"location,omitempty"`
	Date          *time.Time    `json:"date,omitempty"`
	PaymentMethod PaymentMethod `json:"paymentMethod" binding:"required"`
	Receipt       *Receipt      `json:"receipt,omitempty"`
	Voice         *VoiceNote    `json:"voice,omitempty"`
	Tags          []string      `json:"tags,omitempty"`
	Notes         string        `json:"notes,omitempty" binding:"omitempty,max=500"`
	IsRecurring   bool          `json:"isRecurring,omitempty"`
	Recurrence    *Recurrence   `json:"recurrence,omitempty"`
	AI            *AIMeta       `json:"ai,omitempty"`
}

// UpdateExpenseRequest represents a partial expense update.
type UpdateExpenseRequest struct {
	Amount        *float64       `json:"amount,omitempty" binding:"omitempty,gte=0"`
	Currency      *string        `json:"currency,omitempty" binding:"omitempty,len=3"`
	Description   *string        `json:"description,omitempty" binding:"omitempty,max=200"`
	Category      *string        `json:"category,omitempty"`
	Subcategory   *string        `json:"subcategory,omitempty"`
	Merchant      *string        `json:"merchant,omitempty"`
	Location      *string        `json:"location,omitempty"`
	Date          *time.Time     `json:"date,omitempty"`
	PaymentMethod *PaymentMethod `json:"paymentMethod,omitempty"`
	Tags          *[]string      `json:"tags,omitempty"`
	Notes         *string        `json:"notes,omitempty" binding:"omitempty,max=500"`
	Status        *string        `json:"status,omitempty" binding:"omitempty,oneof=pending confirmed disputed"`
}

// ShareEntry is a single target in a share request, addressed by email.
type ShareEntry struct {
	Email  string  `json:"email" binding:"required,email"`
	Amount float64 `json:"amount" binding:"gte=0"`
}

// ShareExpenseRequest represents the request body for sharing an expense.
// The resolved list replaces any existing shares on the expense.
type ShareExpenseRequest struct {
	Shares []ShareEntry `json:"shares" binding:"required,dive"`
}

// CategorizeRequest represents the request body for AI categorization.
type CategorizeRequest struct {
	Description string  `json:"description" binding:"required"`
	Amount      float64 `json:"amount" binding:"required,gte=0"`
	Merchant    string  `json:"merchant,omitempty"`
}

// InsightsRequest represents the request body for AI spending insights.
type InsightsRequest struct {
	Period   string           `json:"period" binding:"required,oneof=week month quarter year"`
	Expenses []InsightExpense `json:"expenses,omitempty"`
}

// InsightExpense is the reduced expense shape accepted by the insights endpoint.
type InsightExpense struct {
	Amount      float64   `json:"amount"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
}

// PredictRequest represents the request body for expense prediction.
type PredictRequest struct {
	Months int `json:"months,omitempty" binding:"omitempty,min=1,max=12"`
}

// ProcessReceiptRequest carries a base64-encoded receipt image.
type ProcessReceiptRequest struct {
	ImageData string `json:"imageData" binding:"required"`
}

// ProcessVoiceRequest carries a base64-encoded audio recording.
type ProcessVoiceRequest struct {
	AudioData string `json:"audioData" binding:"required"`
}

// SuggestionsRequest represents the request body for AI expense suggestions.
type SuggestionsRequest struct {
	Description string  `json:"description" binding:"required"`
	Amount      float64 `json:"amount" binding:"required,gte=0"`
}

// ExchangeTokenRequest carries the public token returned by Plaid Link.
type ExchangeTokenRequest struct {
	PublicToken string `json:"publicToken" binding:"required"`
}
