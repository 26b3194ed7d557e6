// Package worker mirrors transaction events into the spreadsheet export.
package worker

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"fintrack/internal/events"
	"fintrack/internal/log"
	"fintrack/internal/sheets"
)

// Config tunes the per-event retry loop.
type Config struct {
	// MaxRetries is the number of extra attempts after the first (default: 3)
	MaxRetries int
	// RetryDelay is the first backoff, doubled on each attempt (default: 1s)
	RetryDelay time.Duration
	// CallTimeout bounds one exporter call (default: 30s)
	CallTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxRetries:  3,
		RetryDelay:  time.Second,
		CallTimeout: 30 * time.Second,
	}
}

// Stats counts handled events since start.
type Stats struct {
	Exported int64
	Removed  int64
	Failed   int64
}

// ExportWorker applies events to an exporter.
type ExportWorker struct {
	exporter sheets.Exporter
	config   Config
	logger   *log.Logger

	exported atomic.Int64
	removed  atomic.Int64
	failed   atomic.Int64
}

func NewExportWorker(exporter sheets.Exporter, config Config, logger *log.Logger) *ExportWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &ExportWorker{
		exporter: exporter,
		config:   config,
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// Run consumes events until ctx is cancelled or the consumer gives up.
func (w *ExportWorker) Run(ctx context.Context, consumer events.Consumer) error {
	w.logger.InfoContext(ctx, "Export worker started",
		"max_retries", w.config.MaxRetries,
		"retry_delay", w.config.RetryDelay)
	err := consumer.Consume(ctx, w.Handle)
	s := w.Stats()
	w.logger.InfoContext(ctx, "Export worker stopped",
		"exported", s.Exported, "removed", s.Removed, "failed", s.Failed)
	return err
}

// Handle applies one event, retrying transient exporter failures. Once the
// retries are spent the error wraps events.ErrPermanent so the bus does not
// redeliver it; cancellation is returned as is.
func (w *ExportWorker) Handle(ctx context.Context, ev events.Event) error {
	var apply func(context.Context) error
	switch ev.Event {
	case events.TransactionCreated:
		apply = func(ctx context.Context) error { return w.exporter.Append(ctx, ev.Transaction) }
	case events.TransactionDeleted:
		apply = func(ctx context.Context) error { return w.exporter.Remove(ctx, ev.Transaction.ID) }
	default:
		return fmt.Errorf("unknown event %q: %w", ev.Event, events.ErrPermanent)
	}

	logger := w.logger.With(log.FieldEvent, ev.Event, log.FieldTransactionID, ev.Transaction.ID, log.FieldOperation, log.OpExport)
	delay := w.config.RetryDelay
	var err error
	for attempt := 0; attempt <= w.config.MaxRetries; attempt++ {
		if attempt > 0 {
			logger.WarnContext(ctx, "Retrying export", "attempt", attempt, "backoff", delay, log.FieldError, err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
		err = w.call(ctx, apply)
		if err == nil {
			w.count(ev.Event)
			logger.InfoContext(ctx, "Event exported", "attempts", attempt+1)
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	w.failed.Add(1)
	logger.ErrorContext(ctx, "Export failed", log.FieldError, err)
	return fmt.Errorf("export %s %s after %d attempts: %w: %w",
		ev.Event, ev.Transaction.ID, w.config.MaxRetries+1, events.ErrPermanent, err)
}

func (w *ExportWorker) call(ctx context.Context, apply func(context.Context) error) error {
	if w.config.CallTimeout <= 0 {
		return apply(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, w.config.CallTimeout)
	defer cancel()
	return apply(ctx)
}

func (w *ExportWorker) count(kind string) {
	if kind == events.TransactionCreated {
		w.exported.Add(1)
	} else {
		w.removed.Add(1)
	}
}

func (w *ExportWorker) Stats() Stats {
	return Stats{
		Exported: w.exported.Load(),
		Removed:  w.removed.Load(),
		Failed:   w.failed.Load(),
	}
}
