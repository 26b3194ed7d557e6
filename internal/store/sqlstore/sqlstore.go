// Package sqlstore persists transactions and users in SQLite or PostgreSQL
// through database/sql. The schema is migrated on open.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

const (
	txColumns   = "id, user_id, amount_cents, description, category, tx_date, tx_type, created_at"
	userColumns = "id, email, password_hash, created_at"

	insertTransaction = "INSERT INTO transactions (" + txColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?)"
	listTransactions  = "SELECT " + txColumns + " FROM transactions WHERE user_id = ? ORDER BY tx_date DESC, created_at DESC"
	getTransaction    = "SELECT " + txColumns + " FROM transactions WHERE id = ? AND user_id = ?"
	deleteTransaction = "DELETE FROM transactions WHERE id = ? AND user_id = ?"

	insertUser  = "INSERT INTO users (" + userColumns + ") VALUES (?, ?, ?, ?)"
	userByEmail = "SELECT " + userColumns + " FROM users WHERE email = ?"
	userByID    = "SELECT " + userColumns + " FROM users WHERE id = ?"
)

type Store struct {
	db      *sql.DB
	dialect Dialect
}

var _ store.Store = (*Store)(nil)

// OpenSQLite opens (creating if needed) the database file at dbPath.
func OpenSQLite(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	if err := RunMigrations(SQLite, dbPath); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; sqlite serialises them anyway.
	db.SetMaxOpenConns(1)
	return finishOpen(db, SQLite)
}

// OpenPostgres connects to dsn and migrates the schema.
func OpenPostgres(dsn string) (*Store, error) {
	if err := RunMigrations(Postgres, dsn); err != nil {
		return nil, err
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	return finishOpen(db, Postgres)
}

func finishOpen(db *sql.DB, dialect Dialect) (*Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s database: %w", dialect, err)
	}
	return &Store{db: db, dialect: dialect}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) Create(ctx context.Context, userID string, nt core.NewTransaction) (core.Transaction, error) {
	tx, err := store.NewTransaction(userID, nt)
	if err != nil {
		return core.Transaction{}, err
	}
	_, err = s.db.ExecContext(ctx, s.dialect.rebind(insertTransaction),
		tx.ID, tx.UserID, tx.Amount.Cents, tx.Description, tx.Category,
		tx.Date.String(), string(tx.Type), s.dialect.encodeTime(tx.CreatedAt))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	return tx, nil
}

func (s *Store) ListForUser(ctx context.Context, userID string) ([]core.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(listTransactions), userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := make([]core.Transaction, 0)
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return out, nil
}

func (s *Store) Get(ctx context.Context, userID, id string) (core.Transaction, error) {
	tx, err := scanTransaction(s.db.QueryRowContext(ctx, s.dialect.rebind(getTransaction), id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, store.ErrNotFound)
	}
	return tx, err
}

func (s *Store) Delete(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, s.dialect.rebind(deleteTransaction), id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("transaction %s: %w", id, store.ErrNotFound)
	}
	return nil
}

func (s *Store) CreateUser(ctx context.Context, email, passwordHash string) (core.User, error) {
	u, err := store.NewUser(email, passwordHash)
	if err != nil {
		return core.User{}, err
	}
	_, err = s.db.ExecContext(ctx, s.dialect.rebind(insertUser),
		u.ID, u.Email, u.PasswordHash, s.dialect.encodeTime(u.CreatedAt))
	if err != nil {
		if s.dialect.isUniqueViolation(err) {
			return core.User{}, fmt.Errorf("user %s: %w", u.Email, store.ErrConflict)
		}
		return core.User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (core.User, error) {
	email = store.NormalizeEmail(email)
	return s.user(ctx, userByEmail, email)
}

func (s *Store) UserByID(ctx context.Context, id string) (core.User, error) {
	return s.user(ctx, userByID, id)
}

func (s *Store) user(ctx context.Context, query, key string) (core.User, error) {
	var (
		u       core.User
		created any
	)
	err := s.db.QueryRowContext(ctx, s.dialect.rebind(query), key).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, fmt.Errorf("user %s: %w", key, store.ErrNotFound)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	if u.CreatedAt, err = decodeTime(created); err != nil {
		return core.User{}, fmt.Errorf("decode user %s: %w", u.ID, err)
	}
	return u, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		tx            core.Transaction
		typ           string
		date, created any
	)
	if err := row.Scan(&tx.ID, &tx.UserID, &tx.Amount.Cents, &tx.Description, &tx.Category, &date, &typ, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Transaction{}, err
		}
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	var err error
	if tx.Date, err = decodeDate(date); err != nil {
		return core.Transaction{}, fmt.Errorf("decode transaction %s: %w", tx.ID, err)
	}
	if tx.CreatedAt, err = decodeTime(created); err != nil {
		return core.Transaction{}, fmt.Errorf("decode transaction %s: %w", tx.ID, err)
	}
	tx.Type = core.TxType(typ)
	return tx, nil
}
