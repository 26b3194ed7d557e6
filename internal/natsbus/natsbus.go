// Package natsbus carries transaction events over NATS core subjects.
package natsbus

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"fintrack/internal/events"
	"fintrack/internal/log"
)

// QueueGroup shares deliveries among worker replicas.
const QueueGroup = "fintrack-export"

// conn is the part of *nats.Conn the bus needs.
type conn interface {
	Publish(subj string, data []byte) error
	QueueSubscribe(subj, queue string, cb nats.MsgHandler) (*nats.Subscription, error)
	Drain() error
	Close()
}

type Bus struct {
	nc      conn
	subject string
	logger  *log.Logger
}

var (
	_ events.Publisher = (*Bus)(nil)
	_ events.Consumer  = (*Bus)(nil)
)

// Connect dials the server and keeps reconnecting for as long as the bus lives.
func Connect(url, subject string, logger *log.Logger) (*Bus, error) {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentNATS)
	nc, err := nats.Connect(url,
		nats.Name("fintrack"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("Disconnected from NATS", log.FieldError, err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("Reconnected to NATS", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect NATS: %w", err)
	}
	return newBus(nc, subject, logger), nil
}

func newBus(nc conn, subject string, logger *log.Logger) *Bus {
	return &Bus{nc: nc, subject: subject, logger: logger}
}

func (b *Bus) Publish(ctx context.Context, ev events.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := events.Encode(ev)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := b.nc.Publish(b.subject, body); err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	b.logger.DebugContext(ctx, "Published transaction event",
		log.FieldEvent, ev.Event,
		log.FieldTransactionID, ev.Transaction.ID)
	return nil
}

// Consume subscribes in the export queue group and blocks until ctx is done,
// then drains the subscription. Core NATS has no redelivery, so a handler
// error is logged and the event is lost.
func (b *Bus) Consume(ctx context.Context, h events.Handler) error {
	sub, err := b.nc.QueueSubscribe(b.subject, QueueGroup, func(m *nats.Msg) {
		b.dispatch(ctx, h, m.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", b.subject, err)
	}
	b.logger.InfoContext(ctx, "Started consuming transaction events", "subject", b.subject)

	<-ctx.Done()
	if sub != nil {
		_ = sub.Drain()
	}
	return ctx.Err()
}

func (b *Bus) dispatch(ctx context.Context, h events.Handler, data []byte) {
	ev, err := events.Decode(data)
	if err != nil {
		b.logger.ErrorContext(ctx, "Dropping undecodable message", log.FieldError, err)
		return
	}
	if err := h(ctx, ev); err != nil {
		b.logger.ErrorContext(ctx, "Failed to handle event",
			log.FieldError, err,
			log.FieldEvent, ev.Event,
			log.FieldTransactionID, ev.Transaction.ID)
	}
}

// Close flushes pending publishes and closes the connection.
func (b *Bus) Close() error {
	return b.nc.Drain()
}
