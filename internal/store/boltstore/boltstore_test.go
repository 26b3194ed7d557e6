package boltstore

import (
	"context"
	"path/filepath"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/store"
	"fintrack/internal/store/storetest"
)

func TestBoltStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		s, err := Open(filepath.Join(t.TempDir(), "fintrack.bolt"))
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		return s
	})
}

func TestBoltKeepsPasswordHashAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "fintrack.bolt")
	ctx := context.Background()

	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	u, err := s.CreateUser(ctx, "bolt@example.com", "$2a$hash")
	if err != nil {
		t.Fatal(err)
	}
	tx, err := s.Create(ctx, u.ID, core.NewTransaction{
		Amount:      core.Money{Cents: 1999},
		Description: "Book",
		Category:    "Education",
		Date:        core.NewDate(2024, 6, 1),
		Type:        core.Expense,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	got, err := s.UserByEmail(ctx, "bolt@example.com")
	if err != nil || got.PasswordHash != "$2a$hash" {
		t.Fatalf("UserByEmail = %+v, %v", got, err)
	}
	list, err := s.ListForUser(ctx, u.ID)
	if err != nil || len(list) != 1 || list[0].ID != tx.ID || list[0].Amount.Cents != 1999 {
		t.Fatalf("ListForUser = %+v, %v", list, err)
	}
}
