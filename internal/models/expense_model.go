package models

import "time"

// PaymentMethod describes how an expense was paid.
type PaymentMethod struct {
	Type      string `json:"type" firestore:"type"` // "card", "cash", "bank_transfer", "digital_wallet"
	AccountID string `json:"accountId,omitempty" firestore:"accountId,omitempty"`
}

// Receipt is an attached receipt image together with its OCR result.
type Receipt struct {
	ImageURL   string  `json:"imageUrl,omitempty" firestore:"imageUrl,omitempty"`
	OCRText    string  `json:"ocrText,omitempty" firestore:"ocrText,omitempty"`
	Confidence float64 `json:"confidence,omitempty" firestore:"confidence,omitempty"` // 0..1
}

// VoiceNote is an attached voice recording together with its transcription.
type VoiceNote struct {
	AudioURL      string  `json:"audioUrl,omitempty" firestore:"audioUrl,omitempty"`
	Transcription string  `json:"transcription,omitempty" firestore:"transcription,omitempty"`
	Confidence    float64 `json:"confidence,omitempty" firestore:"confidence,omitempty"` // 0..1
}

// Recurrence describes a repeating expense pattern.
type Recurrence struct {
	Frequency string     `json:"frequency" firestore:"frequency"` // "daily", "weekly", "monthly", "yearly"
	Interval  int        `json:"interval" firestore:"interval"`
	EndDate   *time.Time `json:"endDate,omitempty" firestore:"endDate,omitempty"`
}

// Share assigns a portion of an expense to another user.
type Share struct {
	UserID string  `json:"userId" firestore:"userId"`
	Amount float64 `json:"amount" firestore:"amount"`
	Status string  `json:"status" firestore:"status"` // "pending", "accepted", "declined"
}

// AIMeta is the AI-assigned categorization attached to an expense.
type AIMeta struct {
	Category    string   `json:"category,omitempty" firestore:"category,omitempty"`
	Confidence  float64  `json:"confidence,omitempty" firestore:"confidence,omitempty"`
	Suggestions []string `json:"suggestions,omitempty" firestore:"suggestions,omitempty"`
	Insights    []string `json:"insights,omitempty" firestore:"insights,omitempty"`
}

// Expense is a single recorded transaction owned by exactly one user.
// SharedUserIDs mirrors SharedWith for Firestore array-contains queries
// (Firestore cannot match on a field inside an array of maps).
type Expense struct {
	ID            string        `json:"id" firestore:"-"` // Document ID
	UserID        string        `json:"userId" firestore:"userId"`
	Amount        float64       `json:"amount" firestore:"amount"`
	Currency      string        `json:"currency" firestore:"currency"`
	Description   string        `json:"description" firestore:"description"`
	Category      string        `json:"category" firestore:"category"`
	Subcategory   string        `json:"subcategory,omitempty" firestore:"subcategory,omitempty"`
	Merchant      string        `json:"merchant,omitempty" firestore:"merchant,omitempty"`
	Location      string        `json:"location,omitempty" firestore:"location,omitempty"`
	Date          time.Time     `json:"date" firestore:"date"`
	PaymentMethod PaymentMethod `json:"paymentMethod" firestore:"paymentMethod"`
	Receipt       *Receipt      `json:"receipt,omitempty" firestore:"receipt,omitempty"`
	Voice         *VoiceNote    `json:"voice,omitempty" firestore:"voice,omitempty"`
	Tags          []string      `json:"tags,omitempty" firestore:"tags,omitempty"`
	Notes         string        `json:"notes,omitempty" firestore:"notes,omitempty"`
	IsRecurring   bool          `json:"isRecurring" firestore:"isRecurring"`
	Recurrence    *Recurrence   `json:"recurrence,omitempty" firestore:"recurrence,omitempty"`
	SharedWith    []Share       `json:"sharedWith,omitempty" firestore:"sharedWith,omitempty"`
	SharedUserIDs []string      `json:"-" firestore:"sharedUserIds,omitempty"`
	AI            *AIMeta       `json:"ai,omitempty" firestore:"ai,omitempty"`
	Status        string        `json:"status" firestore:"status"` // "pending", "confirmed", "disputed"
	CreatedAt     time.Time     `json:"createdAt" firestore:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt" firestore:"updatedAt"`
}

// SyncSharedUserIDs rebuilds the query mirror from the share list.
func (e *Expense) SyncSharedUserIDs() {
	if len(e.SharedWith) == 0 {
		e.SharedUserIDs = nil
		return
	}
	ids := make([]string, 0, len(e.SharedWith))
	for _, s := range e.SharedWith {
		ids = append(ids, s.UserID)
	}
	e.SharedUserIDs = ids
}
