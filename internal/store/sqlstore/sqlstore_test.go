package sqlstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/store"
	"fintrack/internal/store/storetest"
)

func TestSQLiteStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		s, err := OpenSQLite(filepath.Join(t.TempDir(), "data", "fintrack.db"))
		if err != nil {
			t.Fatalf("OpenSQLite: %v", err)
		}
		return s
	})
}

func TestPostgresStoreContract(t *testing.T) {
	dsn := os.Getenv("FINTRACK_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("FINTRACK_TEST_POSTGRES_DSN not set")
	}
	storetest.Run(t, func(t *testing.T) store.Store {
		s, err := OpenPostgres(dsn)
		if err != nil {
			t.Fatalf("OpenPostgres: %v", err)
		}
		if _, err := s.db.Exec("TRUNCATE transactions, users"); err != nil {
			t.Fatalf("truncate: %v", err)
		}
		return s
	})
}

func TestSQLiteReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fintrack.db")
	ctx := context.Background()

	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	u, err := s.CreateUser(ctx, "keep@example.com", "hash")
	if err != nil {
		t.Fatal(err)
	}
	tx, err := s.Create(ctx, u.ID, core.NewTransaction{
		Amount:      core.Money{Cents: 4250},
		Description: "Lunch",
		Category:    "Food",
		Date:        core.NewDate(2024, 1, 31),
		Type:        core.Expense,
	})
	if err != nil {
		t.Fatal(err)
	}
	s.Close()

	// Migrations must be idempotent on an existing file.
	s, err = OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	got, err := s.Get(ctx, u.ID, tx.ID)
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if got.Amount.Cents != 4250 || got.Date.String() != "2024-01-31" || !got.CreatedAt.Equal(tx.CreatedAt) {
		t.Fatalf("unexpected transaction %+v", got)
	}
}

func TestRebind(t *testing.T) {
	q := "SELECT a FROM t WHERE x = ? AND y = ?"
	if got := SQLite.rebind(q); got != q {
		t.Fatalf("sqlite must keep placeholders, got %s", got)
	}
	if got, want := Postgres.rebind(q), "SELECT a FROM t WHERE x = $1 AND y = $2"; got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestDecodeHelpers(t *testing.T) {
	ts := time.Date(2024, 5, 6, 7, 8, 9, 123456000, time.UTC)
	for _, v := range []any{ts, ts.Format(sqliteTimeLayout), []byte(ts.Format(sqliteTimeLayout))} {
		got, err := decodeTime(v)
		if err != nil || !got.Equal(ts) {
			t.Errorf("decodeTime(%T) = %v, %v", v, got, err)
		}
	}
	if _, err := decodeTime(42); err == nil {
		t.Error("expected error for int timestamp")
	}

	for _, v := range []any{"2024-05-06", []byte("2024-05-06"), time.Date(2024, 5, 6, 0, 0, 0, 0, time.FixedZone("x", 3600))} {
		d, err := decodeDate(v)
		if err != nil || d.String() != "2024-05-06" {
			t.Errorf("decodeDate(%T) = %v, %v", v, d, err)
		}
	}
}
