package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MallamTeja/Fintrack/internal/domain"
	"github.com/MallamTeja/Fintrack/internal/domain/budget"
	"github.com/MallamTeja/Fintrack/internal/repository"
	fintrack_errors "github.com/MallamTeja/Fintrack/pkg/errors"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
)

type BudgetService struct {
	budgets      repository.BudgetRepository
	transactions repository.TransactionRepository
	notify       *Notifier
	clock        clockwork.Clock
}

func NewBudgetService(budgets repository.BudgetRepository, transactions repository.TransactionRepository, notify *Notifier, clock clockwork.Clock) *BudgetService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &BudgetService{budgets: budgets, transactions: transactions, notify: notify, clock: clock}
}

// List returns the user's budgets with the expenses recorded in each
// category since the first day of the current month.
func (s *BudgetService) List(ctx context.Context, userID uuid.UUID) ([]budget.WithSpending, error) {
	budgets, err := s.budgets.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	spent, err := s.transactions.ExpensesByCategory(ctx, userID, monthStart(s.clock.Now()))
	if err != nil {
		return nil, err
	}

	out := make([]budget.WithSpending, 0, len(budgets))
	for _, b := range budgets {
		current, ok := spent[b.Category]
		if !ok {
			current = decimal.Zero
		}
		out = append(out, budget.WithSpending{Budget: b, CurrentSpending: current})
	}
	return out, nil
}

func (s *BudgetService) Create(ctx context.Context, userID uuid.UUID, category string, limit decimal.Decimal) (budget.Budget, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return budget.Budget{}, fintrack_errors.Invalid("Category and limit are required")
	}
	if !limit.IsPositive() {
		return budget.Budget{}, fintrack_errors.Invalid("Invalid budget limit")
	}

	now := s.clock.Now()
	b := budget.Budget{
		ID:        uuid.New(),
		UserID:    userID,
		Category:  category,
		Limit:     limit,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.budgets.Create(ctx, &b); err != nil {
		if errors.Is(err, fintrack_errors.ErrAlreadyExists) {
			return budget.Budget{}, fmt.Errorf("budget for this category already exists: %w", err)
		}
		return budget.Budget{}, err
	}

	s.notify.Emit(userID, domain.EventBudgetAdded, b)
	return b, nil
}

func (s *BudgetService) UpdateLimit(ctx context.Context, userID, id uuid.UUID, limit decimal.Decimal) (budget.Budget, error) {
	if !limit.IsPositive() {
		return budget.Budget{}, fintrack_errors.Invalid("Invalid budget limit")
	}
	b, err := s.budgets.UpdateLimit(ctx, userID, id, limit)
	if err != nil {
		return budget.Budget{}, notFound(err, "budget not found")
	}
	s.notify.Emit(userID, domain.EventBudgetUpdated, b)
	return b, nil
}

func (s *BudgetService) Delete(ctx context.Context, userID, id uuid.UUID) (budget.Budget, error) {
	b, err := s.budgets.Delete(ctx, userID, id)
	if err != nil {
		return budget.Budget{}, notFound(err, "budget not found")
	}
	s.notify.Emit(userID, domain.EventBudgetDeleted, b)
	return b, nil
}

func monthStart(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
}

func notFound(err error, msg string) error {
	if errors.Is(err, fintrack_errors.ErrNotFound) {
		return fmt.Errorf("%s: %w", msg, err)
	}
	return err
}
