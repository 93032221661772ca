package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// SeedConfig holds configuration for seeding the database
type SeedConfig struct {
	Name     string
	Email    string
	Password string
}

func DefaultSeedConfig() SeedConfig {
	return SeedConfig{
		Name:     "Demo User",
		Email:    "demo@fintrack.local",
		Password: "demo123",
	}
}

// SeedResult holds the result of the seeding operation
type SeedResult struct {
	UserID       uuid.UUID
	Created      bool
	Budgets      int
	Goals        int
	Transactions int
}

type seedTransaction struct {
	kind     string
	amount   string
	category string
	note     string
	daysAgo  int
}

var (
	seedBudgets = map[string]string{
		"Food":          "400",
		"Transport":     "120",
		"Entertainment": "150",
	}
	seedGoals = []struct {
		name    string
		target  string
		current string
		months  int
	}{
		{"Emergency fund", "5000", "1250", 12},
		{"Vacation", "1800", "300", 6},
	}
	seedTransactions = []seedTransaction{
		{"income", "3200", "Salary", "Monthly salary", 0},
		{"expense", "54.20", "Food", "Groceries", 1},
		{"expense", "18.75", "Food", "Lunch", 2},
		{"expense", "45", "Transport", "Fuel", 3},
		{"expense", "32.99", "Entertainment", "Concert tickets", 4},
	}
)

// Seed creates a demo user with budgets, savings goals and transactions.
// It is a no-op when the demo email already exists.
func Seed(ctx context.Context, db *sql.DB, cfg SeedConfig) (SeedResult, error) {
	email := strings.ToLower(strings.TrimSpace(cfg.Email))

	var existing uuid.UUID
	err := db.QueryRowContext(ctx, `SELECT id FROM users WHERE lower(email) = $1`, email).Scan(&existing)
	switch {
	case err == nil:
		zap.L().Info("seed user already exists", zap.String("email", email))
		return SeedResult{UserID: existing}, nil
	case !errors.Is(err, sql.ErrNoRows):
		return SeedResult{}, fmt.Errorf("look up seed user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
	if err != nil {
		return SeedResult{}, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return SeedResult{}, err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	res := SeedResult{UserID: uuid.New(), Created: true}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO users (id, name, email, password_hash, balance)
		VALUES ($1, $2, $3, $4, $5)`,
		res.UserID, cfg.Name, email, string(hash), decimal.RequireFromString("3049.06"),
	); err != nil {
		return SeedResult{}, fmt.Errorf("insert seed user: %w", err)
	}

	for category, limit := range seedBudgets {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO budgets (id, user_id, category, "limit") VALUES ($1, $2, $3, $4)`,
			uuid.New(), res.UserID, category, decimal.RequireFromString(limit),
		); err != nil {
			return SeedResult{}, fmt.Errorf("insert seed budget: %w", err)
		}
		res.Budgets++
	}

	for _, g := range seedGoals {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO savings_goals (id, user_id, name, target_amount, current_amount, due_date)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			uuid.New(), res.UserID, g.name,
			decimal.RequireFromString(g.target), decimal.RequireFromString(g.current),
			now.AddDate(0, g.months, 0),
		); err != nil {
			return SeedResult{}, fmt.Errorf("insert seed goal: %w", err)
		}
		res.Goals++
	}

	for _, t := range seedTransactions {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO transactions (id, user_id, type, amount, category, description, date)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			uuid.New(), res.UserID, t.kind, decimal.RequireFromString(t.amount),
			t.category, t.note, now.AddDate(0, 0, -t.daysAgo),
		); err != nil {
			return SeedResult{}, fmt.Errorf("insert seed transaction: %w", err)
		}
		res.Transactions++
	}

	if err := tx.Commit(); err != nil {
		return SeedResult{}, err
	}
	zap.L().Info("database seeded", zap.String("user_id", res.UserID.String()), zap.String("email", email))
	return res, nil
}
