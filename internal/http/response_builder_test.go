package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/store"
)

func TestJSONResponseBuilder(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/transactions/1").
		Data(map[string]int{"n": 1}).
		Write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
	if got := w.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := w.Header().Get("Location"); got != "/api/transactions/1" {
		t.Errorf("Location = %q", got)
	}
	if w.Body.String() != "{\"n\":1}\n" {
		t.Errorf("Body = %q", w.Body.String())
	}
}

func TestJSONResponseBuilder_NoBody(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
	if w.Code != http.StatusNoContent || w.Body.Len() != 0 {
		t.Fatalf("got %d %q", w.Code, w.Body.String())
	}
}

func TestJSONResponseBuilder_UnencodableData(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().Data(map[string]any{"ch": make(chan int)}).Write(w)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("Status code = %d", w.Code)
	}
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		err     error
		status  int
		message string
	}{
		{fmt.Errorf("load transaction: %w", store.ErrNotFound), http.StatusNotFound, "transaction not found"},
		{fmt.Errorf("user x: %w", store.ErrConflict), http.StatusConflict, "email already registered"},
		{auth.ErrInvalidCredentials, http.StatusUnauthorized, "invalid email or password"},
		{fmt.Errorf("%w: expired", auth.ErrUnauthenticated), http.StatusUnauthorized, "authentication required"},
		{core.ErrInvalidAmount, http.StatusUnprocessableEntity, "invalid amount"},
		{fmt.Errorf("save transaction: %w", core.ErrEmptyCategory), http.StatusUnprocessableEntity, "save transaction: empty category"},
		{auth.ErrWeakPassword, http.StatusUnprocessableEntity, "password too weak"},
		{errMalformedBody, http.StatusBadRequest, "malformed request body"},
		{errors.New("disk on fire"), http.StatusInternalServerError, "internal error"},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/api/transactions", nil)
			writeError(w, r, tt.err)

			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d", w.Code, tt.status)
			}
			var body struct{ Error string }
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("body is not JSON: %v", err)
			}
			if body.Error != tt.message {
				t.Errorf("message = %q, want %q", body.Error, tt.message)
			}
		})
	}
}
