// Package memory is the process-local store used by default and in tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

type Store struct {
	mu      sync.RWMutex
	txs     map[string]core.Transaction
	users   map[string]core.User
	byEmail map[string]string
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		txs:     make(map[string]core.Transaction),
		users:   make(map[string]core.User),
		byEmail: make(map[string]string),
	}
}

func (s *Store) Create(_ context.Context, userID string, nt core.NewTransaction) (core.Transaction, error) {
	tx, err := store.NewTransaction(userID, nt)
	if err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs[tx.ID] = tx
	return tx, nil
}

func (s *Store) ListForUser(_ context.Context, userID string) ([]core.Transaction, error) {
	s.mu.RLock()
	out := make([]core.Transaction, 0)
	for _, tx := range s.txs {
		if tx.UserID == userID {
			out = append(out, tx)
		}
	}
	s.mu.RUnlock()
	core.SortNewestFirst(out)
	return out, nil
}

func (s *Store) Get(_ context.Context, userID, id string) (core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tx, ok := s.txs[id]
	if !ok || tx.UserID != userID {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, store.ErrNotFound)
	}
	return tx, nil
}

func (s *Store) Delete(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.txs[id]
	if !ok || tx.UserID != userID {
		return fmt.Errorf("transaction %s: %w", id, store.ErrNotFound)
	}
	delete(s.txs, id)
	return nil
}

func (s *Store) CreateUser(_ context.Context, email, passwordHash string) (core.User, error) {
	u, err := store.NewUser(email, passwordHash)
	if err != nil {
		return core.User{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byEmail[u.Email]; taken {
		return core.User{}, fmt.Errorf("user %s: %w", u.Email, store.ErrConflict)
	}
	s.users[u.ID] = u
	s.byEmail[u.Email] = u.ID
	return u, nil
}

func (s *Store) UserByEmail(_ context.Context, email string) (core.User, error) {
	email = store.NormalizeEmail(email)
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[email]
	if !ok {
		return core.User{}, fmt.Errorf("user %s: %w", email, store.ErrNotFound)
	}
	return s.users[id], nil
}

func (s *Store) UserByID(_ context.Context, id string) (core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return core.User{}, fmt.Errorf("user %s: %w", id, store.ErrNotFound)
	}
	return u, nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }
