package repository

import (
	"context"
	"strings"
	"time"

	"github.com/MallamTeja/Fintrack/internal/domain/user"

	"github.com/google/uuid"
)

type userRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, name, email, password_hash, balance, theme, currency, notifications, last_login_time, created_at, updated_at`

func scanUser(row rowScanner) (user.User, error) {
	var u user.User
	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.Balance,
		&u.Preferences.Theme,
		&u.Preferences.Currency,
		&u.Preferences.Notifications,
		&u.LastLoginTime,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	return u, err
}

func (r *userRepository) Create(ctx context.Context, u *user.User) error {
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO users (`+userColumns+`)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
    `,
		u.ID,
		u.Name,
		strings.ToLower(u.Email),
		u.PasswordHash,
		u.Balance,
		u.Preferences.Theme,
		u.Preferences.Currency,
		u.Preferences.Notifications,
		u.LastLoginTime,
		u.CreatedAt,
		u.UpdatedAt,
	)
	return mapError(err)
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (user.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	return u, mapError(err)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (user.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, strings.TrimSpace(email)))
	return u, mapError(err)
}

func (r *userRepository) UpdatePreferences(ctx context.Context, id uuid.UUID, p user.Preferences) (user.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `
        UPDATE users
        SET theme = $1, currency = $2, notifications = $3, updated_at = now()
        WHERE id = $4
        RETURNING `+userColumns,
		p.Theme, p.Currency, p.Notifications, id,
	))
	return u, mapError(err)
}

func (r *userRepository) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET last_login_time = $1 WHERE id = $2`, at, id)
	return mapError(err)
}
