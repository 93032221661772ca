package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/MallamTeja/Fintrack/internal/domain"
	"github.com/MallamTeja/Fintrack/internal/domain/budget"
	"github.com/MallamTeja/Fintrack/internal/domain/savings"
	"github.com/MallamTeja/Fintrack/internal/domain/transaction"
	"github.com/MallamTeja/Fintrack/internal/domain/user"
	fintrack_errors "github.com/MallamTeja/Fintrack/pkg/errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type sentEvent struct {
	userID string
	all    bool
	event  string
	data   any
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []sentEvent
}

func (b *recordingBroadcaster) BroadcastToUser(userID, eventType string, data any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, sentEvent{userID: userID, event: eventType, data: data})
}

func (b *recordingBroadcaster) BroadcastAll(eventType string, data any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, sentEvent{all: true, event: eventType, data: data})
}

func (b *recordingBroadcaster) sent() []sentEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]sentEvent(nil), b.events...)
}

type fakeUsers struct {
	byID map[uuid.UUID]user.User
	gets int
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: map[uuid.UUID]user.User{}}
}

func (f *fakeUsers) Create(_ context.Context, u *user.User) error {
	for _, existing := range f.byID {
		if strings.EqualFold(existing.Email, u.Email) {
			return fintrack_errors.ErrAlreadyExists
		}
	}
	f.byID[u.ID] = *u
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (user.User, error) {
	f.gets++
	u, ok := f.byID[id]
	if !ok {
		return user.User{}, fintrack_errors.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (user.User, error) {
	for _, u := range f.byID {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return user.User{}, fintrack_errors.ErrNotFound
}

func (f *fakeUsers) UpdatePreferences(_ context.Context, id uuid.UUID, p user.Preferences) (user.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return user.User{}, fintrack_errors.ErrNotFound
	}
	u.Preferences = p
	f.byID[id] = u
	return u, nil
}

func (f *fakeUsers) TouchLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	u, ok := f.byID[id]
	if !ok {
		return fintrack_errors.ErrNotFound
	}
	u.LastLoginTime = at
	f.byID[id] = u
	return nil
}

type fakeCache struct {
	entries     map[uuid.UUID]user.User
	invalidated []uuid.UUID
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[uuid.UUID]user.User{}}
}

func (c *fakeCache) Get(_ context.Context, id uuid.UUID) (*user.User, error) {
	u, ok := c.entries[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (c *fakeCache) Set(_ context.Context, u user.User) error {
	c.entries[u.ID] = u
	return nil
}

func (c *fakeCache) Invalidate(_ context.Context, id uuid.UUID) error {
	delete(c.entries, id)
	c.invalidated = append(c.invalidated, id)
	return nil
}

type fakeBudgets struct {
	rows []budget.Budget
}

func (f *fakeBudgets) Create(_ context.Context, b *budget.Budget) error {
	for _, r := range f.rows {
		if r.UserID == b.UserID && r.Category == b.Category {
			return fintrack_errors.ErrAlreadyExists
		}
	}
	f.rows = append(f.rows, *b)
	return nil
}

func (f *fakeBudgets) ListByUser(_ context.Context, userID uuid.UUID) ([]budget.Budget, error) {
	var out []budget.Budget
	for _, r := range f.rows {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeBudgets) UpdateLimit(_ context.Context, userID, id uuid.UUID, limit decimal.Decimal) (budget.Budget, error) {
	for i, r := range f.rows {
		if r.ID == id && r.UserID == userID {
			f.rows[i].Limit = limit
			return f.rows[i], nil
		}
	}
	return budget.Budget{}, fintrack_errors.ErrNotFound
}

func (f *fakeBudgets) Delete(_ context.Context, userID, id uuid.UUID) (budget.Budget, error) {
	for i, r := range f.rows {
		if r.ID == id && r.UserID == userID {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return r, nil
		}
	}
	return budget.Budget{}, fintrack_errors.ErrNotFound
}

type fakeGoals struct {
	rows map[uuid.UUID]savings.Goal
}

func newFakeGoals() *fakeGoals {
	return &fakeGoals{rows: map[uuid.UUID]savings.Goal{}}
}

func (f *fakeGoals) Create(_ context.Context, g *savings.Goal) error {
	f.rows[g.ID] = *g
	return nil
}

func (f *fakeGoals) ListByUser(_ context.Context, userID uuid.UUID) ([]savings.Goal, error) {
	var out []savings.Goal
	for _, g := range f.rows {
		if g.UserID == userID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakeGoals) GetByID(_ context.Context, userID, id uuid.UUID) (savings.Goal, error) {
	g, ok := f.rows[id]
	if !ok || g.UserID != userID {
		return savings.Goal{}, fintrack_errors.ErrNotFound
	}
	return g, nil
}

func (f *fakeGoals) Update(_ context.Context, g savings.Goal) (savings.Goal, error) {
	existing, ok := f.rows[g.ID]
	if !ok || existing.UserID != g.UserID {
		return savings.Goal{}, fintrack_errors.ErrNotFound
	}
	g.CreatedAt = existing.CreatedAt
	f.rows[g.ID] = g
	return g, nil
}

func (f *fakeGoals) Delete(_ context.Context, userID, id uuid.UUID) (savings.Goal, error) {
	g, ok := f.rows[id]
	if !ok || g.UserID != userID {
		return savings.Goal{}, fintrack_errors.ErrNotFound
	}
	delete(f.rows, id)
	return g, nil
}

func (f *fakeGoals) SaveMany(ctx context.Context, userID uuid.UUID, goals []savings.Goal) ([]savings.Goal, error) {
	var saved []savings.Goal
	for _, g := range goals {
		g.UserID = userID
		if g.ID == uuid.Nil {
			g.ID = uuid.New()
			_ = f.Create(ctx, &g)
			saved = append(saved, g)
			continue
		}
		updated, err := f.Update(ctx, g)
		if err != nil {
			continue
		}
		saved = append(saved, updated)
	}
	return saved, nil
}

type fakeTransactions struct {
	rows []transaction.Transaction
}

func (f *fakeTransactions) Create(_ context.Context, t *transaction.Transaction) error {
	f.rows = append(f.rows, *t)
	return nil
}

func (f *fakeTransactions) List(_ context.Context, userID uuid.UUID, filter transaction.Filter) ([]transaction.Transaction, error) {
	var out []transaction.Transaction
	for _, t := range f.rows {
		if t.UserID != userID {
			continue
		}
		if filter.Type != "" && t.Type != filter.Type {
			continue
		}
		if filter.Category != "" && t.Category != filter.Category {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeTransactions) Update(_ context.Context, t transaction.Transaction) (transaction.Transaction, error) {
	for i, r := range f.rows {
		if r.ID == t.ID && r.UserID == t.UserID {
			f.rows[i] = t
			return t, nil
		}
	}
	return transaction.Transaction{}, fintrack_errors.ErrNotFound
}

func (f *fakeTransactions) Delete(_ context.Context, userID, id uuid.UUID) (transaction.Transaction, error) {
	for i, r := range f.rows {
		if r.ID == id && r.UserID == userID {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return r, nil
		}
	}
	return transaction.Transaction{}, fintrack_errors.ErrNotFound
}

func (f *fakeTransactions) ExpensesByCategory(_ context.Context, userID uuid.UUID, since time.Time) (map[string]decimal.Decimal, error) {
	sums := map[string]decimal.Decimal{}
	for _, t := range f.rows {
		if t.UserID != userID || t.Type != domain.TransactionExpense || t.Date.Before(since) {
			continue
		}
		sums[t.Category] = sums[t.Category].Add(t.Amount)
	}
	return sums, nil
}
