package httpdto

import "github.com/shopspring/decimal"

// CreateBudgetRequest is used for POST /api/budgets
type CreateBudgetRequest struct {
	Category string          `json:"category" binding:"required"`
	Limit    decimal.Decimal `json:"limit"`
}

// UpdateBudgetRequest is used for PATCH /api/budgets/:id
type UpdateBudgetRequest struct {
	Limit decimal.Decimal `json:"limit"`
}
