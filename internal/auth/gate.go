// Package auth is the session gate: it signs users up and in, issues
// session tokens and makes sure no request reaches the transaction
// pipeline without a user.
package auth

import (
	"context"
	"errors"
	"fmt"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/store"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrWeakPassword       = errors.New("password too weak")
	ErrInvalidEmail       = errors.New("invalid email")
)

// dummyHash is compared against when the email is unknown so both failure
// paths cost one bcrypt comparison.
var dummyHash, _ = HashPassword("fintrack-unknown-user")

type Gate struct {
	users  store.Users
	tokens *Tokens
	logger *log.Logger
}

func NewGate(users store.Users, tokens *Tokens, logger *log.Logger) *Gate {
	if logger == nil {
		logger = log.Discard()
	}
	return &Gate{users: users, tokens: tokens, logger: logger.WithComponent(log.ComponentAuth)}
}

// SignUp creates the account and opens a session for it.
func (g *Gate) SignUp(ctx context.Context, email, password string) (core.User, Session, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return core.User{}, Session{}, err
	}
	if err := CheckPassword(password); err != nil {
		return core.User{}, Session{}, err
	}
	hash, err := HashPassword(password)
	if err != nil {
		return core.User{}, Session{}, fmt.Errorf("hash password: %w", err)
	}
	u, err := g.users.CreateUser(ctx, email, hash)
	if err != nil {
		return core.User{}, Session{}, err
	}
	sess, err := g.tokens.Issue(u.ID, u.Email)
	if err != nil {
		return core.User{}, Session{}, err
	}
	g.logger.InfoContext(ctx, "User signed up", log.FieldUserID, u.ID, log.FieldOperation, log.OpSignUp)
	return u, sess, nil
}

// SignIn checks the credentials and opens a session.
func (g *Gate) SignIn(ctx context.Context, email, password string) (core.User, Session, error) {
	u, err := g.users.UserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		_ = VerifyPassword(dummyHash, password)
		return core.User{}, Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return core.User{}, Session{}, err
	}
	if err := VerifyPassword(u.PasswordHash, password); err != nil {
		g.logger.WarnContext(ctx, "Sign in rejected", log.FieldUserID, u.ID, log.FieldOperation, log.OpSignIn)
		return core.User{}, Session{}, ErrInvalidCredentials
	}
	sess, err := g.tokens.Issue(u.ID, u.Email)
	if err != nil {
		return core.User{}, Session{}, err
	}
	return u, sess, nil
}

// Authenticate resolves a session token to a live user. Tokens of deleted
// users are rejected.
func (g *Gate) Authenticate(ctx context.Context, token string) (core.User, error) {
	if token == "" {
		return core.User{}, ErrUnauthenticated
	}
	claims, err := g.tokens.Parse(token)
	if err != nil {
		return core.User{}, err
	}
	u, err := g.users.UserByID(ctx, claims.Subject)
	if errors.Is(err, store.ErrNotFound) {
		return core.User{}, fmt.Errorf("%w: unknown user", ErrUnauthenticated)
	}
	if err != nil {
		return core.User{}, err
	}
	return u, nil
}

type userKey struct{}

// WithUser returns a copy of ctx carrying the authenticated user.
func WithUser(ctx context.Context, u core.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// CurrentUser returns the user the request was admitted for.
func CurrentUser(ctx context.Context) (core.User, bool) {
	u, ok := ctx.Value(userKey{}).(core.User)
	return u, ok && u.ID != ""
}
