package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/MallamTeja/Fintrack/internal/domain"
	"github.com/MallamTeja/Fintrack/internal/domain/transaction"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type transactionRepository struct {
	db DBTX
}

func NewTransactionRepository(db DBTX) TransactionRepository {
	return &transactionRepository{db: db}
}

const transactionColumns = `id, user_id, type, amount, category, description, date, created_at, updated_at`

func scanTransaction(row rowScanner) (transaction.Transaction, error) {
	var t transaction.Transaction
	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.Type,
		&t.Amount,
		&t.Category,
		&t.Description,
		&t.Date,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	return t, err
}

func (r *transactionRepository) Create(ctx context.Context, t *transaction.Transaction) error {
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO transactions (`+transactionColumns+`)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
    `,
		t.ID,
		t.UserID,
		t.Type,
		t.Amount,
		t.Category,
		t.Description,
		t.Date,
		t.CreatedAt,
		t.UpdatedAt,
	)
	return mapError(err)
}

func (r *transactionRepository) List(ctx context.Context, userID uuid.UUID, f transaction.Filter) ([]transaction.Transaction, error) {
	where := []string{"user_id = $1"}
	args := []any{userID}
	add := func(clause string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if f.Type != "" {
		add("type = $%d", f.Type)
	}
	if f.Category != "" {
		add("category = $%d", f.Category)
	}
	if !f.From.IsZero() {
		add("date >= $%d", f.From)
	}
	if !f.To.IsZero() {
		add("date < $%d", f.To)
	}

	rows, err := r.db.QueryContext(ctx, `
        SELECT `+transactionColumns+`
        FROM transactions
        WHERE `+strings.Join(where, " AND ")+`
        ORDER BY date DESC, created_at DESC
    `, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []transaction.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *transactionRepository) Update(ctx context.Context, t transaction.Transaction) (transaction.Transaction, error) {
	out, err := scanTransaction(r.db.QueryRowContext(ctx, `
        UPDATE transactions
        SET type = $1, amount = $2, category = $3, description = $4, date = $5, updated_at = now()
        WHERE id = $6 AND user_id = $7
        RETURNING `+transactionColumns,
		t.Type, t.Amount, t.Category, t.Description, t.Date, t.ID, t.UserID,
	))
	return out, mapError(err)
}

func (r *transactionRepository) Delete(ctx context.Context, userID, id uuid.UUID) (transaction.Transaction, error) {
	t, err := scanTransaction(r.db.QueryRowContext(ctx, `
        DELETE FROM transactions
        WHERE id = $1 AND user_id = $2
        RETURNING `+transactionColumns,
		id, userID,
	))
	return t, mapError(err)
}

func (r *transactionRepository) ExpensesByCategory(ctx context.Context, userID uuid.UUID, since time.Time) (map[string]decimal.Decimal, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT category, COALESCE(SUM(amount), 0)
        FROM transactions
        WHERE user_id = $1 AND type = $2 AND date >= $3
        GROUP BY category
    `, userID, domain.TransactionExpense, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sums := make(map[string]decimal.Decimal)
	for rows.Next() {
		var (
			category string
			total    decimal.Decimal
		)
		if err := rows.Scan(&category, &total); err != nil {
			return nil, err
		}
		sums[category] = total
	}
	return sums, rows.Err()
}
