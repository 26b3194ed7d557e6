package services

import (
	"context"
	"fmt"

	"fintrack/internal/core"
	"fintrack/internal/events"
	"fintrack/internal/log"
	"fintrack/internal/report"
	"fintrack/internal/store"
)

// TransactionService orchestrates transaction operations across the store
// and the event bus.
type TransactionService struct {
	store     store.Transactions
	publisher events.Publisher
	logger    *log.Logger
	logs      *log.StructuredLogger
	recorder  Recorder
}

// Recorder receives business counters, typically backed by Prometheus.
type Recorder interface {
	TransactionRecorded(operation string)
	PublishFailed()
}

type nopRecorder struct{}

func (nopRecorder) TransactionRecorded(string) {}
func (nopRecorder) PublishFailed()             {}

// NewTransactionService wires the service. publisher may be nil when no
// event bus is configured.
func NewTransactionService(s store.Transactions, publisher events.Publisher, logger *log.Logger) *TransactionService {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentTransaction)
	return &TransactionService{
		store:     s,
		publisher: publisher,
		logger:    logger,
		logs:      log.NewStructuredLogger(logger),
		recorder:  nopRecorder{},
	}
}

// WithRecorder installs r and returns s.
func (s *TransactionService) WithRecorder(r Recorder) *TransactionService {
	if r != nil {
		s.recorder = r
	}
	return s
}

// Add saves a transaction for userID and announces it.
func (s *TransactionService) Add(ctx context.Context, userID string, nt core.NewTransaction) (core.Transaction, error) {
	tx, err := s.store.Create(ctx, userID, nt)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	s.logs.LogTransactionCreated(ctx, userID, tx.ID, string(tx.Type), tx.Category, tx.Date.String(), tx.Amount.Cents)
	s.recorder.TransactionRecorded(log.OpCreate)

	// Saved is saved: a bus outage must not fail the request.
	s.publish(ctx, events.Created(tx))
	return tx, nil
}

// Remove deletes one of userID's transactions. An unknown id, or one owned
// by someone else, yields store.ErrNotFound.
func (s *TransactionService) Remove(ctx context.Context, userID, id string) error {
	tx, err := s.store.Get(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("load transaction: %w", err)
	}
	if err := s.store.Delete(ctx, userID, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	s.logger.InfoContext(ctx, "Transaction deleted",
		log.FieldUserID, userID,
		log.FieldTransactionID, id)
	s.recorder.TransactionRecorded(log.OpDelete)

	s.publish(ctx, events.Deleted(tx))
	return nil
}

// List returns the user's transactions, newest first.
func (s *TransactionService) List(ctx context.Context, userID string) ([]core.Transaction, error) {
	txs, err := s.store.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

// Dashboard recomputes every derived view from a fresh snapshot.
func (s *TransactionService) Dashboard(ctx context.Context, userID string) (report.Dashboard, error) {
	txs, err := s.List(ctx, userID)
	if err != nil {
		return report.Dashboard{}, err
	}
	return report.BuildDashboard(txs), nil
}

func (s *TransactionService) publish(ctx context.Context, ev events.Event) {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "No event bus configured, skipping event", log.FieldEvent, ev.Event)
		return
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.recorder.PublishFailed()
		s.logs.LogError(ctx, "Failed to publish event", err, log.OpPublish,
			log.NewFields().WithTransaction(ev.Transaction.ID, string(ev.Transaction.Type),
				ev.Transaction.Category, ev.Transaction.Date.String(), ev.Transaction.Amount.Cents))
	}
}
