package backend

import (
	"context"
	"fmt"

	"fintrack/internal/amqp"
	"fintrack/internal/log"
	"fintrack/internal/natsbus"
	"fintrack/internal/store/boltstore"
	"fintrack/internal/store/memory"
	"fintrack/internal/store/sqlstore"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateStore implements Factory.CreateStore
func (f *DefaultFactory) CreateStore(ctx context.Context, config Config) (*StoreResult, error) {
	if !config.Type.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", config.Type)
	}

	switch config.Type {
	case SQLiteBackend:
		s, err := sqlstore.OpenSQLite(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", config.SQLiteDBPath)
		return &StoreResult{Store: s, Cleanup: s.Close}, nil

	case PostgresBackend:
		s, err := sqlstore.OpenPostgres(config.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize postgres store: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized postgres backend")
		return &StoreResult{Store: s, Cleanup: s.Close}, nil

	case BoltBackend:
		s, err := boltstore.Open(config.BoltDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize bolt store: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized bolt backend", "db_path", config.BoltDBPath)
		return &StoreResult{Store: s, Cleanup: s.Close}, nil

	case MemoryBackend:
		f.logger.WarnContext(ctx, "Initialized memory backend, data is lost on restart")
		return &StoreResult{Store: memory.New()}, nil

	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

// CreateBus implements Factory.CreateBus
func (f *DefaultFactory) CreateBus(ctx context.Context, config Config) (*BusResult, error) {
	switch config.Events {
	case NoEvents, "":
		f.logger.InfoContext(ctx, "Event bus disabled")
		return &BusResult{}, nil

	case AMQPEvents:
		c, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize AMQP client: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized AMQP client",
			"exchange", config.AMQPExchange,
			"queue", config.AMQPQueue)
		return &BusResult{Publisher: c, Consumer: c, Cleanup: c.Close}, nil

	case NATSEvents:
		b, err := natsbus.Connect(config.NATSURL, config.NATSSubject, f.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize NATS bus: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized NATS bus", "subject", config.NATSSubject)
		return &BusResult{Publisher: b, Consumer: b, Cleanup: b.Close}, nil

	default:
		return nil, fmt.Errorf("invalid events backend: %s", config.Events)
	}
}

// Close runs the cleanup of r, tolerating a nil result or cleanup.
func (r *StoreResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

func (r *BusResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}
