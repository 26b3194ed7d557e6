package http

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/report"
)

// currentUserID returns the admitted user's id, answering 401 when the
// request somehow reached a private handler without one.
func currentUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	u, ok := auth.CurrentUser(r.Context())
	if !ok {
		writeError(w, r, auth.ErrUnauthenticated)
		return "", false
	}
	return u.ID, true
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	txs, err := s.snapshot(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	items := make([]listItem, len(txs))
	for i, tx := range txs {
		items[i] = listItem{Transaction: tx, Display: report.FormatSigned(tx)}
	}
	NewJSONResponse().Data(map[string]any{"transactions": items}).Write(w)
}

// listItem is a transaction with its signed display amount, e.g. "-₹120".
type listItem struct {
	core.Transaction
	Display string `json:"display"`
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	nt, err := ParseNewTransaction(NewRequestBodyParser(w, r), s.now())
	if err != nil {
		s.logger.DebugContext(r.Context(), "Rejected transaction", log.FieldError, err)
		writeError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()
	tx, err := s.txs.Add(ctx, userID, nt)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/transactions/"+tx.ID).
		Data(tx).
		Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]

	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()
	if err := s.txs.Remove(ctx, userID, id); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

// snapshot loads the user's current transactions under the store timeout.
func (s *Server) snapshot(ctx context.Context, userID string) ([]core.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	txs, err := s.txs.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	if txs == nil {
		txs = []core.Transaction{}
	}
	return txs, nil
}
