// Package events defines the transaction change notifications published on
// the event bus and consumed by the export worker.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fintrack/internal/core"
)

const (
	TransactionCreated = "transaction.created"
	TransactionDeleted = "transaction.deleted"
)

// Event carries the full transaction so consumers never read back from the
// store; a deleted transaction is gone by the time its event is handled.
type Event struct {
	Event       string           `json:"event"`
	Transaction core.Transaction `json:"transaction"`
	Timestamp   time.Time        `json:"timestamp"`
}

// Publisher sends events to the bus.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// ErrPermanent marks a handler error that redelivery cannot fix. Buses
// drop (or dead-letter) such messages instead of requeueing them.
var ErrPermanent = errors.New("permanent failure")

// Handler processes one event. A returned error asks the bus to redeliver
// when it can, unless it wraps ErrPermanent.
type Handler func(ctx context.Context, ev Event) error

// Consumer delivers events to h until ctx is cancelled.
type Consumer interface {
	Consume(ctx context.Context, h Handler) error
}

func Created(tx core.Transaction) Event {
	return Event{Event: TransactionCreated, Transaction: tx, Timestamp: time.Now().UTC()}
}

func Deleted(tx core.Transaction) Event {
	return Event{Event: TransactionDeleted, Transaction: tx, Timestamp: time.Now().UTC()}
}

// Encode converts the event to JSON bytes
func Encode(ev Event) ([]byte, error) {
	return json.Marshal(ev)
}

// Decode parses and checks an event.
func Decode(data []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	switch ev.Event {
	case TransactionCreated, TransactionDeleted:
	default:
		return Event{}, fmt.Errorf("decode event: unknown kind %q", ev.Event)
	}
	if ev.Transaction.ID == "" {
		return Event{}, fmt.Errorf("decode event: missing transaction id")
	}
	return ev, nil
}
