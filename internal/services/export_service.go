package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/MallamTeja/Fintrack/internal/domain/transaction"
	"github.com/MallamTeja/Fintrack/internal/repository"
	fintrack_errors "github.com/MallamTeja/Fintrack/pkg/errors"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

const statementContentType = "text/csv"

// StatementStore persists exported statements. *storage.Client satisfies it.
type StatementStore interface {
	Put(ctx context.Context, key, contentType string, body []byte) error
	PresignGet(ctx context.Context, key string, now time.Time) (string, time.Time, error)
}

type ExportService struct {
	transactions repository.TransactionRepository
	store        StatementStore
	clock        clockwork.Clock
}

// NewExportService returns a service whose exports fail with
// ErrServiceUnavailable when store is nil.
func NewExportService(transactions repository.TransactionRepository, store StatementStore, clock clockwork.Clock) *ExportService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &ExportService{transactions: transactions, store: store, clock: clock}
}

type StatementExport struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
	Rows      int       `json:"rows"`
}

// ExportTransactions writes the filtered transactions as CSV to the store
// and returns a download link.
func (s *ExportService) ExportTransactions(ctx context.Context, userID uuid.UUID, f transaction.Filter) (StatementExport, error) {
	if s.store == nil {
		return StatementExport{}, fmt.Errorf("statement storage not configured: %w", fintrack_errors.ErrServiceUnavailable)
	}
	if f.Type != "" && !f.Type.Valid() {
		return StatementExport{}, fintrack_errors.Invalid("Type must be income or expense")
	}

	rows, err := s.transactions.List(ctx, userID, f)
	if err != nil {
		return StatementExport{}, err
	}
	body, err := encodeStatement(rows)
	if err != nil {
		return StatementExport{}, err
	}

	now := s.clock.Now()
	key := statementKey(userID, now)
	if err := s.store.Put(ctx, key, statementContentType, body); err != nil {
		return StatementExport{}, err
	}
	url, expires, err := s.store.PresignGet(ctx, key, now)
	if err != nil {
		return StatementExport{}, err
	}

	zap.L().Info("statement exported",
		zap.String("user_id", userID.String()),
		zap.String("key", key),
		zap.Int("rows", len(rows)),
	)
	return StatementExport{Key: key, URL: url, ExpiresAt: expires, Rows: len(rows)}, nil
}

func statementKey(userID uuid.UUID, at time.Time) string {
	return fmt.Sprintf("statements/%s/%s.csv", userID, at.UTC().Format("20060102T150405Z"))
}

func encodeStatement(rows []transaction.Transaction) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"id", "date", "type", "category", "amount", "description"})
	for _, t := range rows {
		_ = w.Write([]string{
			t.ID.String(),
			t.Date.UTC().Format("2006-01-02"),
			string(t.Type),
			t.Category,
			t.Amount.StringFixed(2),
			t.Description,
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("encode statement: %w", err)
	}
	return buf.Bytes(), nil
}
