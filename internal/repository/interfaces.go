package repository

import (
	"context"
	"time"

	"github.com/MallamTeja/Fintrack/internal/domain/budget"
	"github.com/MallamTeja/Fintrack/internal/domain/savings"
	"github.com/MallamTeja/Fintrack/internal/domain/transaction"
	"github.com/MallamTeja/Fintrack/internal/domain/user"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type UserRepository interface {
	Create(ctx context.Context, u *user.User) error
	GetByID(ctx context.Context, id uuid.UUID) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	UpdatePreferences(ctx context.Context, id uuid.UUID, p user.Preferences) (user.User, error)
	TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

// Budget, savings and transaction lookups are always scoped to the owning
// user; a row belonging to someone else is reported as not found.

type BudgetRepository interface {
	Create(ctx context.Context, b *budget.Budget) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]budget.Budget, error)
	UpdateLimit(ctx context.Context, userID, id uuid.UUID, limit decimal.Decimal) (budget.Budget, error)
	Delete(ctx context.Context, userID, id uuid.UUID) (budget.Budget, error)
}

type SavingsGoalRepository interface {
	Create(ctx context.Context, g *savings.Goal) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]savings.Goal, error)
	GetByID(ctx context.Context, userID, id uuid.UUID) (savings.Goal, error)
	Update(ctx context.Context, g savings.Goal) (savings.Goal, error)
	Delete(ctx context.Context, userID, id uuid.UUID) (savings.Goal, error)
	// SaveMany creates goals with a nil ID and updates the rest, atomically.
	// Updates that match no row owned by userID are skipped.
	SaveMany(ctx context.Context, userID uuid.UUID, goals []savings.Goal) ([]savings.Goal, error)
}

type TransactionRepository interface {
	Create(ctx context.Context, t *transaction.Transaction) error
	List(ctx context.Context, userID uuid.UUID, f transaction.Filter) ([]transaction.Transaction, error)
	Update(ctx context.Context, t transaction.Transaction) (transaction.Transaction, error)
	Delete(ctx context.Context, userID, id uuid.UUID) (transaction.Transaction, error)
	// ExpensesByCategory sums expense amounts dated at or after since.
	ExpensesByCategory(ctx context.Context, userID uuid.UUID, since time.Time) (map[string]decimal.Decimal, error)
}
