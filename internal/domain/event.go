package domain

// Realtime event types pushed to clients after a successful mutation.
const (
	EventBudgetAdded   = "budget:added"
	EventBudgetUpdated = "budget:updated"
	EventBudgetDeleted = "budget:deleted"

	EventSavingsGoalAdded   = "savingsGoal:added"
	EventSavingsGoalUpdated = "savingsGoal:updated"
	EventSavingsGoalDeleted = "savingsGoal:deleted"

	EventTransactionAdded   = "transaction:added"
	EventTransactionUpdated = "transaction:updated"
	EventTransactionDeleted = "transaction:deleted"

	EventPreferencesUpdated = "user:preferences"
)
