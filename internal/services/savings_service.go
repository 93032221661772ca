package services

import (
	"context"
	"strings"
	"time"

	"github.com/MallamTeja/Fintrack/internal/domain"
	"github.com/MallamTeja/Fintrack/internal/domain/savings"
	"github.com/MallamTeja/Fintrack/internal/repository"
	fintrack_errors "github.com/MallamTeja/Fintrack/pkg/errors"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
)

type SavingsService struct {
	goals  repository.SavingsGoalRepository
	notify *Notifier
	clock  clockwork.Clock
}

func NewSavingsService(goals repository.SavingsGoalRepository, notify *Notifier, clock clockwork.Clock) *SavingsService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &SavingsService{goals: goals, notify: notify, clock: clock}
}

// GoalInput describes a goal to create, or to update when ID is set.
type GoalInput struct {
	ID            uuid.UUID
	Name          string
	TargetAmount  decimal.Decimal
	CurrentAmount decimal.Decimal
	DueDate       *time.Time
}

// GoalPatch is a partial update; nil fields are left unchanged.
type GoalPatch struct {
	Name          *string
	TargetAmount  *decimal.Decimal
	CurrentAmount *decimal.Decimal
	DueDate       *time.Time
}

func (s *SavingsService) List(ctx context.Context, userID uuid.UUID) ([]savings.Goal, error) {
	return s.goals.ListByUser(ctx, userID)
}

func (s *SavingsService) Create(ctx context.Context, userID uuid.UUID, in GoalInput) (savings.Goal, error) {
	g := s.fromInput(userID, in)
	g.ID = uuid.New()
	if err := validateGoal(g); err != nil {
		return savings.Goal{}, err
	}
	if err := s.goals.Create(ctx, &g); err != nil {
		return savings.Goal{}, err
	}
	s.notify.Emit(userID, domain.EventSavingsGoalAdded, g)
	return g, nil
}

func (s *SavingsService) Update(ctx context.Context, userID, id uuid.UUID, patch GoalPatch) (savings.Goal, error) {
	g, err := s.goals.GetByID(ctx, userID, id)
	if err != nil {
		return savings.Goal{}, notFound(err, "goal not found")
	}

	if patch.Name != nil {
		g.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.TargetAmount != nil {
		g.TargetAmount = *patch.TargetAmount
	}
	if patch.CurrentAmount != nil {
		g.CurrentAmount = *patch.CurrentAmount
	}
	if patch.DueDate != nil {
		g.DueDate = patch.DueDate
	}
	if err := validateGoal(g); err != nil {
		return savings.Goal{}, err
	}

	updated, err := s.goals.Update(ctx, g)
	if err != nil {
		return savings.Goal{}, notFound(err, "goal not found")
	}
	s.notify.Emit(userID, domain.EventSavingsGoalUpdated, updated)
	return updated, nil
}

func (s *SavingsService) Delete(ctx context.Context, userID, id uuid.UUID) (savings.Goal, error) {
	g, err := s.goals.Delete(ctx, userID, id)
	if err != nil {
		return savings.Goal{}, notFound(err, "goal not found")
	}
	s.notify.Emit(userID, domain.EventSavingsGoalDeleted, g)
	return g, nil
}

// Bulk creates goals without an ID and updates the rest. Goals whose ID does
// not belong to the user are silently skipped. Each saved goal produces one
// savingsGoal:updated event, emitted only after the whole batch commits.
func (s *SavingsService) Bulk(ctx context.Context, userID uuid.UUID, in []GoalInput) ([]savings.Goal, error) {
	goals := make([]savings.Goal, 0, len(in))
	for _, item := range in {
		g := s.fromInput(userID, item)
		if err := validateGoal(g); err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}

	saved, err := s.goals.SaveMany(ctx, userID, goals)
	if err != nil {
		return nil, err
	}
	for _, g := range saved {
		s.notify.Emit(userID, domain.EventSavingsGoalUpdated, g)
	}
	return saved, nil
}

func (s *SavingsService) fromInput(userID uuid.UUID, in GoalInput) savings.Goal {
	now := s.clock.Now()
	return savings.Goal{
		ID:            in.ID,
		UserID:        userID,
		Name:          strings.TrimSpace(in.Name),
		TargetAmount:  in.TargetAmount,
		CurrentAmount: in.CurrentAmount,
		DueDate:       in.DueDate,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func validateGoal(g savings.Goal) error {
	switch {
	case g.Name == "":
		return fintrack_errors.Invalid("Goal name is required")
	case !g.TargetAmount.IsPositive():
		return fintrack_errors.Invalid("Target amount must be greater than 0")
	case g.CurrentAmount.IsNegative():
		return fintrack_errors.Invalid("Current amount cannot be negative")
	}
	return nil
}
