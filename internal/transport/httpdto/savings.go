package httpdto

import (
	"time"

	"github.com/MallamTeja/Fintrack/internal/domain/savings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GoalRequest is used for POST /api/savings-goals and for each element of
// POST /api/savings-goals/bulk, where a present id means update.
type GoalRequest struct {
	ID            *uuid.UUID      `json:"id,omitempty"`
	Name          string          `json:"name"`
	TargetAmount  decimal.Decimal `json:"target_amount"`
	CurrentAmount decimal.Decimal `json:"current_amount"`
	DueDate       *time.Time      `json:"due_date,omitempty"`
}

// GoalPatchRequest is used for PATCH /api/savings-goals/:id
type GoalPatchRequest struct {
	Name          *string          `json:"name,omitempty"`
	TargetAmount  *decimal.Decimal `json:"target_amount,omitempty"`
	CurrentAmount *decimal.Decimal `json:"current_amount,omitempty"`
	DueDate       *time.Time       `json:"due_date,omitempty"`
}

type GoalDTO struct {
	savings.Goal
	Progress decimal.Decimal `json:"progress"`
}

func NewGoalDTO(g savings.Goal) GoalDTO {
	return GoalDTO{Goal: g, Progress: g.Progress()}
}

func NewGoalDTOs(goals []savings.Goal) []GoalDTO {
	out := make([]GoalDTO, 0, len(goals))
	for _, g := range goals {
		out = append(out, NewGoalDTO(g))
	}
	return out
}
