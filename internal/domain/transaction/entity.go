package transaction

import (
	"time"

	"github.com/MallamTeja/Fintrack/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction represents the transactions table
type Transaction struct {
	ID          uuid.UUID              `json:"id"`
	UserID      uuid.UUID              `json:"user_id"`
	Type        domain.TransactionType `json:"type"`
	Amount      decimal.Decimal        `json:"amount"`
	Category    string                 `json:"category"`
	Description string                 `json:"description"`
	Date        time.Time              `json:"date"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// Filter narrows a listing. Zero fields match everything.
type Filter struct {
	Type     domain.TransactionType
	Category string
	From     time.Time
	To       time.Time
}
