// Package boltstore keeps transactions and users in a single bbolt file.
//
// Layout:
//
//	users/byID/<id>         -> user JSON
//	users/byEmail/<email>   -> id
//	transactions/<userID>/<id> -> transaction JSON
package boltstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

var (
	usersBucketName        = []byte("users")
	byIDBucketName         = []byte("byID")
	byEmailBucketName      = []byte("byEmail")
	transactionsBucketName = []byte("transactions")
)

// userRecord carries the password hash, which core.User keeps out of JSON.
type userRecord struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Store struct {
	db *bolt.DB
}

var _ store.Store = (*Store)(nil)

// Open opens or creates the database file at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt database: %w", err)
	}
	s, err := New(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New prepares the bucket layout on an already open database.
func New(db *bolt.DB) (*Store, error) {
	err := db.Update(func(tx *bolt.Tx) error {
		users, err := tx.CreateBucketIfNotExists(usersBucketName)
		if err != nil {
			return err
		}
		if _, err := users.CreateBucketIfNotExists(byIDBucketName); err != nil {
			return err
		}
		if _, err := users.CreateBucketIfNotExists(byEmailBucketName); err != nil {
			return err
		}
		_, err = tx.CreateBucketIfNotExists(transactionsBucketName)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create buckets: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Ping(context.Context) error {
	return s.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket(transactionsBucketName) == nil {
			return fmt.Errorf("bolt: missing %s bucket", transactionsBucketName)
		}
		return nil
	})
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Create(_ context.Context, userID string, nt core.NewTransaction) (core.Transaction, error) {
	t, err := store.NewTransaction(userID, nt)
	if err != nil {
		return core.Transaction{}, err
	}
	raw, err := json.Marshal(t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("encode transaction: %w", err)
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.Bucket(transactionsBucketName).CreateBucketIfNotExists([]byte(userID))
		if err != nil {
			return err
		}
		return bucket.Put([]byte(t.ID), raw)
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	return t, nil
}

func (s *Store) ListForUser(_ context.Context, userID string) ([]core.Transaction, error) {
	out := make([]core.Transaction, 0)
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(transactionsBucketName).Bucket([]byte(userID))
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(_, v []byte) error {
			var t core.Transaction
			if err := json.Unmarshal(v, &t); err != nil {
				return err
			}
			out = append(out, t)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	core.SortNewestFirst(out)
	return out, nil
}

func (s *Store) Get(_ context.Context, userID, id string) (core.Transaction, error) {
	var t core.Transaction
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := userTx(tx, userID, id)
		if raw == nil {
			return fmt.Errorf("transaction %s: %w", id, store.ErrNotFound)
		}
		return json.Unmarshal(raw, &t)
	})
	if err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

func (s *Store) Delete(_ context.Context, userID, id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if userTx(tx, userID, id) == nil {
			return fmt.Errorf("transaction %s: %w", id, store.ErrNotFound)
		}
		return tx.Bucket(transactionsBucketName).Bucket([]byte(userID)).Delete([]byte(id))
	})
}

func userTx(tx *bolt.Tx, userID, id string) []byte {
	if userID == "" {
		return nil
	}
	bucket := tx.Bucket(transactionsBucketName).Bucket([]byte(userID))
	if bucket == nil {
		return nil
	}
	return bucket.Get([]byte(id))
}

func (s *Store) CreateUser(_ context.Context, email, passwordHash string) (core.User, error) {
	u, err := store.NewUser(email, passwordHash)
	if err != nil {
		return core.User{}, err
	}
	raw, err := json.Marshal(userRecord(u))
	if err != nil {
		return core.User{}, fmt.Errorf("encode user: %w", err)
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		users := tx.Bucket(usersBucketName)
		byEmail := users.Bucket(byEmailBucketName)
		if byEmail.Get([]byte(u.Email)) != nil {
			return fmt.Errorf("user %s: %w", u.Email, store.ErrConflict)
		}
		if err := users.Bucket(byIDBucketName).Put([]byte(u.ID), raw); err != nil {
			return err
		}
		return byEmail.Put([]byte(u.Email), []byte(u.ID))
	})
	if err != nil {
		return core.User{}, err
	}
	return u, nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (core.User, error) {
	email = store.NormalizeEmail(email)
	var id []byte
	_ = s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(usersBucketName).Bucket(byEmailBucketName).Get([]byte(email)); v != nil {
			id = append([]byte(nil), v...)
		}
		return nil
	})
	if id == nil {
		return core.User{}, fmt.Errorf("user %s: %w", email, store.ErrNotFound)
	}
	return s.UserByID(ctx, string(id))
}

func (s *Store) UserByID(_ context.Context, id string) (core.User, error) {
	var rec userRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(usersBucketName).Bucket(byIDBucketName).Get([]byte(id))
		if raw == nil {
			return fmt.Errorf("user %s: %w", id, store.ErrNotFound)
		}
		return json.Unmarshal(raw, &rec)
	})
	if err != nil {
		return core.User{}, err
	}
	return core.User(rec), nil
}
