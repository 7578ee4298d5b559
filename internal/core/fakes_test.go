package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"spendbox-backend-go/internal/db"
	"spendbox-backend-go/internal/models"
)

// fakeUserRepo is an in-memory db.UserRepository for service tests.
type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[string]*models.User
	nextID int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*models.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *models.User) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	id := fmt.Sprintf("user-%d", r.nextID)
	clone := *user
	clone.ID = id
	r.users[id] = &clone
	return id, nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	clone := *user
	return &clone, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return r.getBy(func(u *models.User) bool { return u.Email == strings.ToLower(email) })
}

func (r *fakeUserRepo) GetByVerificationToken(_ context.Context, token string) (*models.User, error) {
	return r.getBy(func(u *models.User) bool { return u.EmailVerificationToken == token })
}

func (r *fakeUserRepo) GetByResetToken(_ context.Context, token string) (*models.User, error) {
	return r.getBy(func(u *models.User) bool { return u.PasswordResetToken == token })
}

func (r *fakeUserRepo) getBy(match func(*models.User) bool) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if match(user) {
			clone := *user
			return &clone, nil
		}
	}
	return nil, db.ErrNotFound
}

func (r *fakeUserRepo) Update(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return db.ErrNotFound
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) IncrementUsedTransactions(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return db.ErrNotFound
	}
	user.Subscription.UsedTransactions++
	return nil
}

// fakeExpenseRepo is an in-memory db.ExpenseRepository mimicking the
// Firestore query shape: owner plus optional category and date range, newest
// first.
type fakeExpenseRepo struct {
	mu       sync.Mutex
	expenses map[string]*models.Expense
	nextID   int

	failCreate error
}

func newFakeExpenseRepo() *fakeExpenseRepo {
	return &fakeExpenseRepo{expenses: make(map[string]*models.Expense)}
}

func (r *fakeExpenseRepo) Create(_ context.Context, expense *models.Expense) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate != nil {
		return "", r.failCreate
	}
	r.nextID++
	id := fmt.Sprintf("exp-%d", r.nextID)
	clone := *expense
	clone.ID = id
	r.expenses[id] = &clone
	return id, nil
}

func (r *fakeExpenseRepo) GetByID(_ context.Context, id string) (*models.Expense, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	expense, ok := r.expenses[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	clone := *expense
	return &clone, nil
}

func (r *fakeExpenseRepo) GetByOwner(_ context.Context, userID string, filter db.ExpenseFilter) ([]*models.Expense, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.Expense
	for _, expense := range r.expenses {
		if expense.UserID != userID {
			continue
		}
		if filter.Category != "" && expense.Category != filter.Category {
			continue
		}
		if filter.StartDate != nil && expense.Date.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && expense.Date.After(*filter.EndDate) {
			continue
		}
		clone := *expense
		result = append(result, &clone)
	}
	sort.Slice(result, func(i, j int) bool { return result[j].Date.Before(result[i].Date) })
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (r *fakeExpenseRepo) GetSharedWith(_ context.Context, userID string) ([]*models.Expense, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.Expense
	for _, expense := range r.expenses {
		for _, id := range expense.SharedUserIDs {
			if id == userID {
				clone := *expense
				result = append(result, &clone)
				break
			}
		}
	}
	return result, nil
}

func (r *fakeExpenseRepo) Update(_ context.Context, expense *models.Expense) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.expenses[expense.ID]; !ok {
		return db.ErrNotFound
	}
	clone := *expense
	r.expenses[expense.ID] = &clone
	return nil
}

func (r *fakeExpenseRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.expenses[id]; !ok {
		return db.ErrNotFound
	}
	delete(r.expenses, id)
	return nil
}

// fakePublisher records published events.
type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

type publishedEvent struct {
	userID string
	event  string
}

func (p *fakePublisher) Publish(userID, event string, _ any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{userID: userID, event: event})
}

func (p *fakePublisher) published() []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]publishedEvent(nil), p.events...)
}

// fakeAssistant returns canned completions and transcripts, remembering the
// last prompt it was handed.
type fakeAssistant struct {
	completion    string
	completionErr error
	transcript    string
	transcriptErr error
	lastPrompt    string
}

func (a *fakeAssistant) Complete(_ context.Context, _ string, prompt string, _ float32, _ int) (string, error) {
	a.lastPrompt = prompt
	return a.completion, a.completionErr
}

func (a *fakeAssistant) Transcribe(context.Context, []byte) (string, error) {
	return a.transcript, a.transcriptErr
}

// fakeOCR returns canned OCR output.
type fakeOCR struct {
	text       string
	confidence float64
	err        error
}

func (o *fakeOCR) ExtractText(context.Context, []byte) (string, float64, error) {
	return o.text, o.confidence, o.err
}

var errDownstream = errors.New("downstream unavailable")
