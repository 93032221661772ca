package user

import (
	"time"

	"github.com/MallamTeja/Fintrack/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User represents the users table
type User struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Email         string          `json:"email"`
	PasswordHash  string          `json:"-"`
	Balance       decimal.Decimal `json:"balance"`
	Preferences   Preferences     `json:"preferences"`
	LastLoginTime time.Time       `json:"last_login_time"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Preferences are stored inline on the users row.
type Preferences struct {
	Theme         domain.Theme `json:"theme"`
	Currency      string       `json:"currency"`
	Notifications bool         `json:"notifications"`
}

func DefaultPreferences() Preferences {
	return Preferences{
		Theme:         domain.ThemeLight,
		Currency:      "USD",
		Notifications: true,
	}
}
