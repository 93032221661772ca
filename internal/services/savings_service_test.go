package services

import (
	"context"
	"testing"

	"github.com/MallamTeja/Fintrack/internal/domain"
	fintrack_errors "github.com/MallamTeja/Fintrack/pkg/errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSavingsService_CreatePatchDelete(t *testing.T) {
	bc := &recordingBroadcaster{}
	svc := NewSavingsService(newFakeGoals(), NewNotifier(bc, false), nil)
	ctx := context.Background()
	userID := uuid.New()

	g, err := svc.Create(ctx, userID, GoalInput{Name: "Car", TargetAmount: decimal.NewFromInt(5000)})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, g.ID)

	current := decimal.NewFromInt(1250)
	updated, err := svc.Update(ctx, userID, g.ID, GoalPatch{CurrentAmount: &current})
	require.NoError(t, err)
	assert.Equal(t, "Car", updated.Name)
	assert.Equal(t, "0.25", updated.Progress().String())

	_, err = svc.Update(ctx, uuid.New(), g.ID, GoalPatch{CurrentAmount: &current})
	assert.ErrorIs(t, err, fintrack_errors.ErrNotFound)

	_, err = svc.Delete(ctx, userID, g.ID)
	require.NoError(t, err)

	var events []string
	for _, e := range bc.sent() {
		events = append(events, e.event)
	}
	assert.Equal(t, []string{domain.EventSavingsGoalAdded, domain.EventSavingsGoalUpdated, domain.EventSavingsGoalDeleted}, events)
}

func TestSavingsService_Validation(t *testing.T) {
	svc := NewSavingsService(newFakeGoals(), nil, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, uuid.New(), GoalInput{TargetAmount: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, fintrack_errors.ErrInvalidInput)

	_, err = svc.Create(ctx, uuid.New(), GoalInput{Name: "x", TargetAmount: decimal.Zero})
	assert.ErrorIs(t, err, fintrack_errors.ErrInvalidInput)

	_, err = svc.Create(ctx, uuid.New(), GoalInput{Name: "x", TargetAmount: decimal.NewFromInt(1), CurrentAmount: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, fintrack_errors.ErrInvalidInput)
}

func TestSavingsService_BulkEmitsOneUpdatePerSavedGoal(t *testing.T) {
	goals := newFakeGoals()
	bc := &recordingBroadcaster{}
	svc := NewSavingsService(goals, NewNotifier(bc, false), nil)
	ctx := context.Background()
	userID := uuid.New()

	existing, err := svc.Create(ctx, userID, GoalInput{Name: "Trip", TargetAmount: decimal.NewFromInt(800)})
	require.NoError(t, err)
	foreign, err := svc.Create(ctx, uuid.New(), GoalInput{Name: "Other", TargetAmount: decimal.NewFromInt(10)})
	require.NoError(t, err)
	before := len(bc.sent())

	saved, err := svc.Bulk(ctx, userID, []GoalInput{
		{ID: existing.ID, Name: "Trip", TargetAmount: decimal.NewFromInt(900)},
		{Name: "Laptop", TargetAmount: decimal.NewFromInt(1500)},
		{ID: foreign.ID, Name: "Hijack", TargetAmount: decimal.NewFromInt(1)},
	})
	require.NoError(t, err)
	require.Len(t, saved, 2)

	events := bc.sent()[before:]
	require.Len(t, events, 2)
	for _, e := range events {
		assert.Equal(t, domain.EventSavingsGoalUpdated, e.event)
		assert.Equal(t, userID.String(), e.userID)
	}
	assert.Equal(t, "Other", goals.rows[foreign.ID].Name)
}

func TestSavingsService_BulkValidatesBeforeSaving(t *testing.T) {
	goals := newFakeGoals()
	svc := NewSavingsService(goals, nil, nil)

	_, err := svc.Bulk(context.Background(), uuid.New(), []GoalInput{
		{Name: "Ok", TargetAmount: decimal.NewFromInt(1)},
		{Name: "", TargetAmount: decimal.NewFromInt(1)},
	})
	assert.ErrorIs(t, err, fintrack_errors.ErrInvalidInput)
	assert.Empty(t, goals.rows)
}
