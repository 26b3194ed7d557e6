// Package storetest is the behavioural suite every store backend must pass.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

// Run exercises s against the store contract. newStore must return an
// empty store; it is called once per subtest.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"Users", testUsers},
		{"CreateValidates", testCreateValidates},
		{"CreateStampsIdentity", testCreateStampsIdentity},
		{"ListOrderAndScope", testListOrderAndScope},
		{"GetIsOwnerScoped", testGetIsOwnerScoped},
		{"Delete", testDelete},
		{"ConcurrentCreates", testConcurrentCreates},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() { _ = s.Close() })
			tt.fn(t, s)
		})
	}
}

func draft(date string, typ core.TxType, cents int64, category string) core.NewTransaction {
	d, err := core.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return core.NewTransaction{
		Amount:      core.Money{Cents: cents},
		Description: fmt.Sprintf("%s %s", category, date),
		Category:    category,
		Date:        d,
		Type:        typ,
	}
}

func mustUser(t *testing.T, s store.Store, email string) core.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), email, "hash")
	if err != nil {
		t.Fatalf("CreateUser(%s): %v", email, err)
	}
	return u
}

func mustCreate(t *testing.T, s store.Store, userID string, nt core.NewTransaction) core.Transaction {
	t.Helper()
	tx, err := s.Create(context.Background(), userID, nt)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return tx
}

func testUsers(t *testing.T, s store.Store) {
	ctx := context.Background()
	if err := s.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	u := mustUser(t, s, "Ada@Example.com")
	if u.ID == "" || u.Email != "ada@example.com" || u.CreatedAt.IsZero() {
		t.Fatalf("unexpected user %+v", u)
	}

	if _, err := s.CreateUser(ctx, "ada@example.com", "other"); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("duplicate email: got %v, want ErrConflict", err)
	}

	byEmail, err := s.UserByEmail(ctx, " ADA@example.com")
	if err != nil || byEmail.ID != u.ID || byEmail.PasswordHash != "hash" {
		t.Fatalf("UserByEmail = %+v, %v", byEmail, err)
	}
	byID, err := s.UserByID(ctx, u.ID)
	if err != nil || byID.Email != u.Email || !byID.CreatedAt.Equal(u.CreatedAt) {
		t.Fatalf("UserByID = %+v, %v", byID, err)
	}

	if _, err := s.UserByEmail(ctx, "nobody@example.com"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("unknown email: got %v", err)
	}
	if _, err := s.UserByID(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("unknown id: got %v", err)
	}
}

func testCreateValidates(t *testing.T, s store.Store) {
	u := mustUser(t, s, "v@example.com")
	ctx := context.Background()

	bad := []struct {
		name string
		nt   core.NewTransaction
		want error
	}{
		{"negative amount", draft("2024-01-01", core.Expense, -1, "Food"), core.ErrInvalidAmount},
		{"bad type", draft("2024-01-01", "transfer", 1, "Food"), core.ErrInvalidType},
		{"blank category", draft("2024-01-01", core.Expense, 1, "  "), core.ErrEmptyCategory},
		{"zero date", core.NewTransaction{Amount: core.Money{Cents: 1}, Description: "x", Category: "Food", Type: core.Expense}, core.ErrInvalidDate},
	}
	for _, tc := range bad {
		if _, err := s.Create(ctx, u.ID, tc.nt); !errors.Is(err, tc.want) {
			t.Errorf("%s: got %v, want %v", tc.name, err, tc.want)
		}
	}
	if _, err := s.Create(ctx, "", draft("2024-01-01", core.Expense, 1, "Food")); !errors.Is(err, core.ErrMissingOwner) {
		t.Errorf("missing owner: got %v", err)
	}

	list, err := s.ListForUser(ctx, u.ID)
	if err != nil || len(list) != 0 {
		t.Fatalf("invalid drafts must not be stored: %v %v", list, err)
	}
}

func testCreateStampsIdentity(t *testing.T, s store.Store) {
	u := mustUser(t, s, "id@example.com")
	nt := draft("2024-02-29", core.Income, 123456, "Income")
	nt.Description = "  salary  "

	tx := mustCreate(t, s, u.ID, nt)
	if tx.ID == "" || tx.UserID != u.ID || tx.CreatedAt.IsZero() {
		t.Fatalf("missing identity: %+v", tx)
	}
	if tx.Description != "salary" {
		t.Fatalf("description not trimmed: %q", tx.Description)
	}

	got, err := s.Get(context.Background(), u.ID, tx.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Amount != tx.Amount || got.Date.String() != "2024-02-29" || got.Type != core.Income ||
		got.Category != "Income" || !got.CreatedAt.Equal(tx.CreatedAt) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, tx)
	}

	other := mustCreate(t, s, u.ID, nt)
	if other.ID == tx.ID {
		t.Fatal("ids must be unique")
	}
}

func testListOrderAndScope(t *testing.T, s store.Store) {
	ctx := context.Background()
	alice := mustUser(t, s, "alice@example.com")
	bob := mustUser(t, s, "bob@example.com")

	mustCreate(t, s, alice.ID, draft("2024-01-01", core.Expense, 100, "Food"))
	mustCreate(t, s, alice.ID, draft("2024-03-01", core.Expense, 200, "Bills"))
	first := mustCreate(t, s, alice.ID, draft("2024-02-01", core.Income, 300, "Income"))
	time.Sleep(2 * time.Millisecond)
	second := mustCreate(t, s, alice.ID, draft("2024-02-01", core.Expense, 400, "Travel"))
	mustCreate(t, s, bob.ID, draft("2024-05-01", core.Expense, 999, "Food"))

	list, err := s.ListForUser(ctx, alice.ID)
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(list) != 4 {
		t.Fatalf("expected 4 transactions, got %d", len(list))
	}
	wantDates := []string{"2024-03-01", "2024-02-01", "2024-02-01", "2024-01-01"}
	for i, tx := range list {
		if tx.UserID != alice.ID {
			t.Fatalf("foreign transaction leaked: %+v", tx)
		}
		if tx.Date.String() != wantDates[i] {
			t.Fatalf("position %d: date %s, want %s", i, tx.Date, wantDates[i])
		}
	}
	if list[1].ID != second.ID || list[2].ID != first.ID {
		t.Fatalf("same-date entries must be newest created first")
	}

	empty, err := s.ListForUser(ctx, "nobody")
	if err != nil || len(empty) != 0 {
		t.Fatalf("unknown user: %v %v", empty, err)
	}
}

func testGetIsOwnerScoped(t *testing.T, s store.Store) {
	ctx := context.Background()
	alice := mustUser(t, s, "a@example.com")
	bob := mustUser(t, s, "b@example.com")
	tx := mustCreate(t, s, alice.ID, draft("2024-01-01", core.Expense, 100, "Food"))

	if _, err := s.Get(ctx, bob.ID, tx.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("foreign get: got %v", err)
	}
	if _, err := s.Get(ctx, alice.ID, "does-not-exist"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("unknown id: got %v", err)
	}
}

func testDelete(t *testing.T, s store.Store) {
	ctx := context.Background()
	alice := mustUser(t, s, "del-a@example.com")
	bob := mustUser(t, s, "del-b@example.com")
	keep := mustCreate(t, s, alice.ID, draft("2024-01-01", core.Expense, 100, "Food"))
	gone := mustCreate(t, s, alice.ID, draft("2024-01-02", core.Expense, 200, "Food"))

	if err := s.Delete(ctx, bob.ID, gone.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("foreign delete: got %v", err)
	}
	if err := s.Delete(ctx, alice.ID, gone.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, alice.ID, gone.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("deleted transaction still readable: %v", err)
	}
	if err := s.Delete(ctx, alice.ID, gone.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("second delete: got %v", err)
	}

	list, err := s.ListForUser(ctx, alice.ID)
	if err != nil || len(list) != 1 || list[0].ID != keep.ID {
		t.Fatalf("unexpected list after delete: %+v %v", list, err)
	}
}

func testConcurrentCreates(t *testing.T, s store.Store) {
	u := mustUser(t, s, "c@example.com")
	const n = 16

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Create(context.Background(), u.ID, draft("2024-01-01", core.Expense, int64(i+1), "Food"))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent create: %v", err)
		}
	}

	list, err := s.ListForUser(context.Background(), u.ID)
	if err != nil || len(list) != n {
		t.Fatalf("expected %d transactions, got %d (%v)", n, len(list), err)
	}
}
