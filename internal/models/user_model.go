package models

import "time"

// Subscription tracks the user's plan and transaction quota.
type Subscription struct {
	Plan             string     `json:"plan" firestore:"plan"` // "free" or "premium"
	StartDate        time.Time  `json:"startDate" firestore:"startDate"`
	EndDate          *time.Time `json:"endDate,omitempty" firestore:"endDate,omitempty"`
	TransactionLimit int        `json:"transactionLimit" firestore:"transactionLimit"`
	UsedTransactions int        `json:"usedTransactions" firestore:"usedTransactions"`
}

// NotificationPrefs toggles the delivery channels for user notifications.
type NotificationPrefs struct {
	Email bool `json:"email" firestore:"email"`
	Push  bool `json:"push" firestore:"push"`
	SMS   bool `json:"sms" firestore:"sms"`
}

// Preferences holds per-user display and notification settings.
type Preferences struct {
	Currency      string            `json:"currency" firestore:"currency"` // 3-letter code
	Timezone      string            `json:"timezone" firestore:"timezone"`
	Notifications NotificationPrefs `json:"notifications" firestore:"notifications"`
	Categories    []string          `json:"categories" firestore:"categories"`
}

// LinkedAccount is a bank account connected through Plaid Link.
// The Plaid access token is encrypted before it is persisted and is never serialized outward.
type LinkedAccount struct {
	AccountID       string `json:"accountId" firestore:"accountId"`
	InstitutionName string `json:"institutionName" firestore:"institutionName"`
	AccountType     string `json:"accountType" firestore:"accountType"`
	AccountName     string `json:"accountName" firestore:"accountName"`
	Mask            string `json:"mask" firestore:"mask"`
	AccessToken     string `json:"-" firestore:"accessToken,omitempty"`
}

// User represents an account holder. Email is stored lowercased so uniqueness
// checks are case-insensitive. The password hash and the recovery tokens are
// never serialized outward.
type User struct {
	ID                     string          `json:"id" firestore:"-"` // Document ID
	Email                  string          `json:"email" firestore:"email"`
	PasswordHash           string          `json:"-" firestore:"passwordHash"`
	FirstName              string          `json:"firstName" firestore:"firstName"`
	LastName               string          `json:"lastName" firestore:"lastName"`
	Role                   string          `json:"role" firestore:"role"` // "user" or "admin"
	Subscription           Subscription    `json:"subscription" firestore:"subscription"`
	Preferences            Preferences     `json:"preferences" firestore:"preferences"`
	LinkedAccounts         []LinkedAccount `json:"linkedAccounts,omitempty" firestore:"linkedAccounts,omitempty"`
	IsEmailVerified        bool            `json:"isEmailVerified" firestore:"isEmailVerified"`
	EmailVerificationToken string          `json:"-" firestore:"emailVerificationToken,omitempty"`
	PasswordResetToken     string          `json:"-" firestore:"passwordResetToken,omitempty"`
	PasswordResetExpires   *time.Time      `json:"-" firestore:"passwordResetExpires,omitempty"`
	LastLogin              *time.Time      `json:"lastLogin,omitempty" firestore:"lastLogin,omitempty"`
	CreatedAt              time.Time       `json:"createdAt" firestore:"createdAt"`
	UpdatedAt              time.Time       `json:"updatedAt" firestore:"updatedAt"`
}

// FullName joins first and last name for display purposes.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// DefaultCategories is the category list seeded into new user preferences.
// The AI categorizer is constrained to the same set.
func DefaultCategories() []string {
	return []string{
		"Food & Dining",
		"Transportation",
		"Shopping",
		"Entertainment",
		"Healthcare",
		"Utilities",
		"Housing",
		"Education",
		"Travel",
		"Other",
	}
}

// DefaultPreferences returns the preferences assigned at registration.
func DefaultPreferences() Preferences {
	return Preferences{
		Currency: "USD",
		Timezone: "UTC",
		Notifications: NotificationPrefs{
			Email: true,
			Push:  true,
			SMS:   false,
		},
		Categories: DefaultCategories(),
	}
}

// FreeTransactionLimit is the monthly transaction quota on the free plan.
const FreeTransactionLimit = 50

// PremiumTransactionLimit is effectively unlimited.
const PremiumTransactionLimit = 999999

// DefaultSubscription returns the free-plan subscription assigned at registration.
func DefaultSubscription(now time.Time) Subscription {
	return Subscription{
		Plan:             "free",
		StartDate:        now,
		TransactionLimit: FreeTransactionLimit,
		UsedTransactions: 0,
	}
}
