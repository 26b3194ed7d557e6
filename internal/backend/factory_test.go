package backend

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"fintrack/internal/config"
	"fintrack/internal/core"
)

func TestCreateStore(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name   string
		config Config
	}{
		{name: "memory", config: Config{Type: MemoryBackend}},
		{name: "sqlite", config: Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(dir, "db", "fintrack.db")}},
		{name: "bolt", config: Config{Type: BoltBackend, BoltDBPath: filepath.Join(dir, "fintrack.bolt")}},
	}

	f := NewFactory(nil)
	ctx := context.Background()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := f.CreateStore(ctx, tt.config)
			if err != nil {
				t.Fatalf("CreateStore: %v", err)
			}
			defer func() {
				if err := res.Close(); err != nil {
					t.Errorf("cleanup: %v", err)
				}
			}()
			if err := res.Store.Ping(ctx); err != nil {
				t.Fatalf("Ping: %v", err)
			}
			u, err := res.Store.CreateUser(ctx, "a@example.com", "hash")
			if err != nil {
				t.Fatalf("CreateUser: %v", err)
			}
			_, err = res.Store.Create(ctx, u.ID, core.NewTransaction{
				Amount:      core.Money{Cents: 100},
				Description: "x",
				Category:    "Food",
				Date:        core.NewDate(2024, 1, 1),
				Type:        core.Expense,
			})
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
		})
	}
}

func TestCreateStore_Invalid(t *testing.T) {
	if _, err := NewFactory(nil).CreateStore(context.Background(), Config{Type: "sheets"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestCreateBus_Disabled(t *testing.T) {
	res, err := NewFactory(nil).CreateBus(context.Background(), Config{Events: NoEvents})
	if err != nil {
		t.Fatalf("CreateBus: %v", err)
	}
	if res.Publisher != nil || res.Consumer != nil {
		t.Fatal("disabled bus must not return endpoints")
	}
	if err := res.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestCreateBus_Invalid(t *testing.T) {
	if _, err := NewFactory(nil).CreateBus(context.Background(), Config{Events: "kafka"}); err == nil {
		t.Fatal("expected error for unknown events backend")
	}
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}

	app := &config.Config{
		DataBackend:   "sqlite",
		SQLiteDBPath:  "./data/x.db",
		EventsBackend: "nats",
		NATSURL:       "nats://localhost:4222",
		NATSSubject:   "fintrack.transactions",
	}
	c, err := FromAppConfig(app)
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if c.Type != SQLiteBackend || c.Events != NATSEvents || c.NATSSubject != "fintrack.transactions" {
		t.Fatalf("unexpected config %+v", c)
	}

	app.EventsBackend = ""
	if c, err := FromAppConfig(app); err != nil || c.Events != NoEvents {
		t.Fatalf("empty events backend: %+v %v", c, err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{"memory", Config{Type: MemoryBackend, Events: NoEvents}, ""},
		{"bad type", Config{Type: "sheets", Events: NoEvents}, "invalid backend type"},
		{"sqlite without path", Config{Type: SQLiteBackend, Events: NoEvents}, "SQLite database path"},
		{"postgres without dsn", Config{Type: PostgresBackend, Events: NoEvents}, "postgres DSN"},
		{"bolt without path", Config{Type: BoltBackend, Events: NoEvents}, "bolt database path"},
		{"bad events", Config{Type: MemoryBackend, Events: "kafka"}, "invalid events backend"},
		{"amqp incomplete", Config{Type: MemoryBackend, Events: AMQPEvents, AMQPURL: "amqp://x"}, "AMQP"},
		{"nats incomplete", Config{Type: MemoryBackend, Events: NATSEvents}, "NATS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("got %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestGetBackendTypeStrings(t *testing.T) {
	got := strings.Join(GetBackendTypeStrings(), ",")
	if got != "memory,sqlite,postgres,bolt" {
		t.Fatalf("got %s", got)
	}
}
