// Package store defines the persistence contract for transactions and users.
// Adapters live in the sub-packages: memory, sqlstore (sqlite and postgres)
// and boltstore.
package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

// Transactions is the owner-scoped transaction store. A transaction owned by
// someone else is reported as ErrNotFound.
type Transactions interface {
	Create(ctx context.Context, userID string, nt core.NewTransaction) (core.Transaction, error)
	// ListForUser returns the user's transactions, newest date first and
	// newest creation first within a date.
	ListForUser(ctx context.Context, userID string) ([]core.Transaction, error)
	Get(ctx context.Context, userID, id string) (core.Transaction, error)
	Delete(ctx context.Context, userID, id string) error
}

// Users stores accounts. Emails are unique; a duplicate yields ErrConflict.
type Users interface {
	CreateUser(ctx context.Context, email, passwordHash string) (core.User, error)
	UserByEmail(ctx context.Context, email string) (core.User, error)
	UserByID(ctx context.Context, id string) (core.User, error)
}

// Store is what every backend provides.
type Store interface {
	Transactions
	Users
	Ping(ctx context.Context) error
	Close() error
}

// Now is the clock stores stamp records with. Truncated to microseconds so
// every backend round-trips it unchanged.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// NewTransaction validates nt and assigns it a fresh id and owner.
func NewTransaction(userID string, nt core.NewTransaction) (core.Transaction, error) {
	return nt.Materialize(uuid.NewString(), userID, Now())
}

// NewUser builds a user record with a fresh id. The email is lower-cased.
func NewUser(email, passwordHash string) (core.User, error) {
	email = NormalizeEmail(email)
	if email == "" || passwordHash == "" {
		return core.User{}, errors.New("email and password hash are required")
	}
	return core.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    Now(),
	}, nil
}

// NormalizeEmail is the canonical form emails are stored and looked up by.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
