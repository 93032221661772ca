package services

import (
	"context"
	"strings"
	"time"

	"github.com/MallamTeja/Fintrack/internal/domain"
	"github.com/MallamTeja/Fintrack/internal/domain/transaction"
	"github.com/MallamTeja/Fintrack/internal/repository"
	fintrack_errors "github.com/MallamTeja/Fintrack/pkg/errors"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
)

type TransactionService struct {
	transactions repository.TransactionRepository
	notify       *Notifier
	clock        clockwork.Clock
}

func NewTransactionService(transactions repository.TransactionRepository, notify *Notifier, clock clockwork.Clock) *TransactionService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &TransactionService{transactions: transactions, notify: notify, clock: clock}
}

type TransactionInput struct {
	Type        string
	Amount      decimal.Decimal
	Category    string
	Description string
	// Date defaults to now when nil.
	Date *time.Time
}

func (s *TransactionService) List(ctx context.Context, userID uuid.UUID, f transaction.Filter) ([]transaction.Transaction, error) {
	if f.Type != "" && !f.Type.Valid() {
		return nil, fintrack_errors.Invalid("Type must be income or expense")
	}
	return s.transactions.List(ctx, userID, f)
}

func (s *TransactionService) Create(ctx context.Context, userID uuid.UUID, in TransactionInput) (transaction.Transaction, error) {
	t, err := s.build(userID, in)
	if err != nil {
		return transaction.Transaction{}, err
	}
	t.ID = uuid.New()
	if err := s.transactions.Create(ctx, &t); err != nil {
		return transaction.Transaction{}, err
	}
	s.notify.Emit(userID, domain.EventTransactionAdded, t)
	return t, nil
}

func (s *TransactionService) Update(ctx context.Context, userID, id uuid.UUID, in TransactionInput) (transaction.Transaction, error) {
	t, err := s.build(userID, in)
	if err != nil {
		return transaction.Transaction{}, err
	}
	t.ID = id
	updated, err := s.transactions.Update(ctx, t)
	if err != nil {
		return transaction.Transaction{}, notFound(err, "transaction not found")
	}
	s.notify.Emit(userID, domain.EventTransactionUpdated, updated)
	return updated, nil
}

func (s *TransactionService) Delete(ctx context.Context, userID, id uuid.UUID) (transaction.Transaction, error) {
	t, err := s.transactions.Delete(ctx, userID, id)
	if err != nil {
		return transaction.Transaction{}, notFound(err, "transaction not found")
	}
	s.notify.Emit(userID, domain.EventTransactionDeleted, t)
	return t, nil
}

func (s *TransactionService) build(userID uuid.UUID, in TransactionInput) (transaction.Transaction, error) {
	kind := domain.TransactionType(strings.ToLower(strings.TrimSpace(in.Type)))
	category := strings.TrimSpace(in.Category)
	switch {
	case !kind.Valid():
		return transaction.Transaction{}, fintrack_errors.Invalid("Type must be income or expense")
	case !in.Amount.IsPositive():
		return transaction.Transaction{}, fintrack_errors.Invalid("Amount must be greater than 0")
	case category == "":
		return transaction.Transaction{}, fintrack_errors.Invalid("Category is required")
	}

	now := s.clock.Now()
	date := now
	if in.Date != nil && !in.Date.IsZero() {
		date = *in.Date
	}
	return transaction.Transaction{
		UserID:      userID,
		Type:        kind,
		Amount:      in.Amount,
		Category:    category,
		Description: strings.TrimSpace(in.Description),
		Date:        date,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}
