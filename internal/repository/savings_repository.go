package repository

import (
	"context"
	"errors"

	"github.com/MallamTeja/Fintrack/internal/domain/savings"
	fintrack_errors "github.com/MallamTeja/Fintrack/pkg/errors"

	"github.com/google/uuid"
)

type savingsGoalRepository struct {
	db DBTX
}

func NewSavingsGoalRepository(db DBTX) SavingsGoalRepository {
	return &savingsGoalRepository{db: db}
}

const goalColumns = `id, user_id, name, target_amount, current_amount, due_date, created_at, updated_at`

func scanGoal(row rowScanner) (savings.Goal, error) {
	var g savings.Goal
	err := row.Scan(
		&g.ID,
		&g.UserID,
		&g.Name,
		&g.TargetAmount,
		&g.CurrentAmount,
		&g.DueDate,
		&g.CreatedAt,
		&g.UpdatedAt,
	)
	return g, err
}

func (r *savingsGoalRepository) Create(ctx context.Context, g *savings.Goal) error {
	return insertGoal(ctx, r.db, g)
}

func insertGoal(ctx context.Context, db DBTX, g *savings.Goal) error {
	_, err := db.ExecContext(ctx, `
        INSERT INTO savings_goals (`+goalColumns+`)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
    `,
		g.ID,
		g.UserID,
		g.Name,
		g.TargetAmount,
		g.CurrentAmount,
		g.DueDate,
		g.CreatedAt,
		g.UpdatedAt,
	)
	return mapError(err)
}

func (r *savingsGoalRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]savings.Goal, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT `+goalColumns+`
        FROM savings_goals
        WHERE user_id = $1
        ORDER BY due_date ASC NULLS LAST, created_at ASC
    `, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	goals := []savings.Goal{}
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

func (r *savingsGoalRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (savings.Goal, error) {
	g, err := scanGoal(r.db.QueryRowContext(ctx,
		`SELECT `+goalColumns+` FROM savings_goals WHERE id = $1 AND user_id = $2`, id, userID))
	return g, mapError(err)
}

func (r *savingsGoalRepository) Update(ctx context.Context, g savings.Goal) (savings.Goal, error) {
	return updateGoal(ctx, r.db, g)
}

func updateGoal(ctx context.Context, db DBTX, g savings.Goal) (savings.Goal, error) {
	out, err := scanGoal(db.QueryRowContext(ctx, `
        UPDATE savings_goals
        SET name = $1, target_amount = $2, current_amount = $3, due_date = $4, updated_at = now()
        WHERE id = $5 AND user_id = $6
        RETURNING `+goalColumns,
		g.Name, g.TargetAmount, g.CurrentAmount, g.DueDate, g.ID, g.UserID,
	))
	return out, mapError(err)
}

func (r *savingsGoalRepository) Delete(ctx context.Context, userID, id uuid.UUID) (savings.Goal, error) {
	g, err := scanGoal(r.db.QueryRowContext(ctx, `
        DELETE FROM savings_goals
        WHERE id = $1 AND user_id = $2
        RETURNING `+goalColumns,
		id, userID,
	))
	return g, mapError(err)
}

func (r *savingsGoalRepository) SaveMany(ctx context.Context, userID uuid.UUID, goals []savings.Goal) ([]savings.Goal, error) {
	saved := make([]savings.Goal, 0, len(goals))
	err := WithTx(ctx, r.db, func(tx DBTX) error {
		for _, g := range goals {
			g.UserID = userID
			if g.ID == uuid.Nil {
				g.ID = uuid.New()
				if err := insertGoal(ctx, tx, &g); err != nil {
					return err
				}
				saved = append(saved, g)
				continue
			}

			updated, err := updateGoal(ctx, tx, g)
			if errors.Is(err, fintrack_errors.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			saved = append(saved, updated)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}
