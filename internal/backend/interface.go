package backend

import (
	"context"

	"fintrack/internal/events"
	"fintrack/internal/store"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// StoreResult contains the store instance and its cleanup function
type StoreResult struct {
	Store   store.Store
	Cleanup CleanupFunc
}

// BusResult contains the event bus endpoints. Both are nil when events are
// disabled.
type BusResult struct {
	Publisher events.Publisher
	Consumer  events.Consumer
	Cleanup   CleanupFunc
}

// Factory creates stores and event buses based on configuration
type Factory interface {
	CreateStore(ctx context.Context, config Config) (*StoreResult, error)
	CreateBus(ctx context.Context, config Config) (*BusResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	SQLiteDBPath string
	PostgresDSN  string
	BoltDBPath   string

	Events       EventsType
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
	NATSURL      string
	NATSSubject  string
}

// BackendType represents the type of data backend
type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
	BoltBackend     BackendType = "bolt"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, PostgresBackend, BoltBackend:
		return true
	default:
		return false
	}
}

// EventsType selects the event bus.
type EventsType string

const (
	NoEvents   EventsType = "none"
	AMQPEvents EventsType = "amqp"
	NATSEvents EventsType = "nats"
)

func (et EventsType) IsValid() bool {
	switch et {
	case NoEvents, AMQPEvents, NATSEvents:
		return true
	default:
		return false
	}
}
