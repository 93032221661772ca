package repository

import (
	"context"

	"github.com/MallamTeja/Fintrack/internal/domain/budget"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type budgetRepository struct {
	db DBTX
}

func NewBudgetRepository(db DBTX) BudgetRepository {
	return &budgetRepository{db: db}
}

const budgetColumns = `id, user_id, category, "limit", created_at, updated_at`

func scanBudget(row rowScanner) (budget.Budget, error) {
	var b budget.Budget
	err := row.Scan(&b.ID, &b.UserID, &b.Category, &b.Limit, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

func (r *budgetRepository) Create(ctx context.Context, b *budget.Budget) error {
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO budgets (`+budgetColumns+`)
        VALUES ($1,$2,$3,$4,$5,$6)
    `, b.ID, b.UserID, b.Category, b.Limit, b.CreatedAt, b.UpdatedAt)
	return mapError(err)
}

func (r *budgetRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]budget.Budget, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT `+budgetColumns+`
        FROM budgets
        WHERE user_id = $1
        ORDER BY category ASC
    `, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	budgets := []budget.Budget{}
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

func (r *budgetRepository) UpdateLimit(ctx context.Context, userID, id uuid.UUID, limit decimal.Decimal) (budget.Budget, error) {
	b, err := scanBudget(r.db.QueryRowContext(ctx, `
        UPDATE budgets
        SET "limit" = $1, updated_at = now()
        WHERE id = $2 AND user_id = $3
        RETURNING `+budgetColumns,
		limit, id, userID,
	))
	return b, mapError(err)
}

func (r *budgetRepository) Delete(ctx context.Context, userID, id uuid.UUID) (budget.Budget, error) {
	b, err := scanBudget(r.db.QueryRowContext(ctx, `
        DELETE FROM budgets
        WHERE id = $1 AND user_id = $2
        RETURNING `+budgetColumns,
		id, userID,
	))
	return b, mapError(err)
}
