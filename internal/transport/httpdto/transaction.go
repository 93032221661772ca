package httpdto

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionRequest is used for POST /api/transactions and PUT /api/transactions/:id
type TransactionRequest struct {
	Type        string          `json:"type" binding:"required"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category" binding:"required"`
	Description string          `json:"description,omitempty"`
	Date        *time.Time      `json:"date,omitempty"`
}

// TransactionQuery filters GET /api/transactions
type TransactionQuery struct {
	Type     string    `form:"type"`
	Category string    `form:"category"`
	From     time.Time `form:"from" time_format:"2006-01-02"`
	To       time.Time `form:"to" time_format:"2006-01-02"`
}
