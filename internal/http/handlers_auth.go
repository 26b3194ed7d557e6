package http

import (
	"context"
	"net/http"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/core"
)

type sessionResponse struct {
	User      core.User `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	s.openSession(w, r, http.StatusCreated, s.gate.SignUp)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	s.openSession(w, r, http.StatusOK, s.gate.SignIn)
}

type sessionOpener func(ctx context.Context, email, password string) (core.User, auth.Session, error)

// openSession runs a sign-up or sign-in and hands the session back both as
// an HttpOnly cookie and in the body for API clients.
func (s *Server) openSession(w http.ResponseWriter, r *http.Request, status int, open sessionOpener) {
	creds, err := ParseCredentials(NewRequestBodyParser(w, r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()
	u, sess, err := open(ctx, creds.Email, creds.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	auth.SetSessionCookie(w, r, sess)
	NewJSONResponse().
		Status(status).
		Data(sessionResponse{User: u, Token: sess.Token, ExpiresAt: sess.ExpiresAt}).
		Write(w)
}

func handleLogout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w, r)
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func handleMe(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r.Context())
	if !ok {
		writeError(w, r, auth.ErrUnauthenticated)
		return
	}
	NewJSONResponse().Data(u).Write(w)
}
