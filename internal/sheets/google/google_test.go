package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	goption "google.golang.org/api/option"

	"fintrack/internal/core"
)

// fakeSheets serves the handful of Sheets v4 endpoints the client uses over
// one in-memory sheet.
type fakeSheets struct {
	mu      sync.Mutex
	sheetID int64
	rows    [][]any
	calls   []string
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	path := r.URL.Path
	f.calls = append(f.calls, r.Method+" "+path)

	switch {
	case r.Method == http.MethodGet && strings.HasSuffix(path, "/values/Transactions!F:F"):
		values := make([][]any, len(f.rows))
		for i, row := range f.rows {
			if len(row) > 5 {
				values[i] = []any{row[5]}
			} else {
				values[i] = []any{}
			}
		}
		writeJSON(w, map[string]any{"range": "Transactions!F:F", "values": values})

	case r.Method == http.MethodPost && strings.HasSuffix(path, "/values/Transactions!A:G:append"):
		if got := r.URL.Query().Get("valueInputOption"); got != "USER_ENTERED" {
			http.Error(w, "bad valueInputOption "+got, http.StatusBadRequest)
			return
		}
		var body struct {
			Values [][]any `json:"values"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.rows = append(f.rows, body.Values...)
		n := len(f.rows)
		writeJSON(w, map[string]any{"updates": map[string]any{"updatedRange": fmt.Sprintf("Transactions!A%d:G%d", n, n)}})

	case r.Method == http.MethodGet && strings.HasSuffix(path, "/spreadsheets/sheet-1"):
		writeJSON(w, map[string]any{"sheets": []any{
			map[string]any{"properties": map[string]any{"sheetId": 99, "title": "Other"}},
			map[string]any{"properties": map[string]any{"sheetId": f.sheetID, "title": "Transactions"}},
		}})

	case r.Method == http.MethodPost && strings.HasSuffix(path, "/spreadsheets/sheet-1:batchUpdate"):
		var body struct {
			Requests []struct {
				DeleteDimension struct {
					Range struct {
						SheetID    *int64 `json:"sheetId"`
						Dimension  string `json:"dimension"`
						StartIndex *int64 `json:"startIndex"`
						EndIndex   int64  `json:"endIndex"`
					} `json:"range"`
				} `json:"deleteDimension"`
			} `json:"requests"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.Requests) != 1 {
			http.Error(w, "bad batch update", http.StatusBadRequest)
			return
		}
		rg := body.Requests[0].DeleteDimension.Range
		if rg.SheetID == nil || *rg.SheetID != f.sheetID || rg.StartIndex == nil || rg.Dimension != "ROWS" {
			http.Error(w, "bad range", http.StatusBadRequest)
			return
		}
		i := int(*rg.StartIndex)
		f.rows = append(f.rows[:i], f.rows[i+1:]...)
		writeJSON(w, map[string]any{"spreadsheetId": "sheet-1"})

	default:
		http.Error(w, "unexpected "+r.Method+" "+path, http.StatusNotFound)
	}
}

func (f *fakeSheets) ids() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.rows))
	for _, r := range f.rows {
		out = append(out, fmt.Sprint(r[5]))
	}
	return out
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, f *fakeSheets) *Client {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	c, err := New(context.Background(), Config{SpreadsheetID: "sheet-1", SheetName: "Transactions"}, nil,
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func tx(id string) core.Transaction {
	return core.Transaction{
		ID:          id,
		UserID:      "u1",
		Amount:      core.Money{Cents: 2550},
		Description: "Lunch",
		Category:    "Food",
		Date:        core.NewDate(2024, 5, 4),
		Type:        core.Expense,
	}
}

func TestNew_RequiresSpreadsheetAndSheet(t *testing.T) {
	ctx := context.Background()
	if _, err := New(ctx, Config{SheetName: "Transactions"}, nil); err == nil {
		t.Fatal("expected error for missing spreadsheet id")
	}
	if _, err := New(ctx, Config{SpreadsheetID: "x"}, nil); err == nil {
		t.Fatal("expected error for missing sheet name")
	}
	_, err := New(ctx, Config{SpreadsheetID: "x", SheetName: "s", CredentialsFile: "/does/not/exist.json"}, nil)
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Fatalf("expected file error, got %v", err)
	}
}

func TestClient_AppendAndRemove(t *testing.T) {
	// Row 0 is the header; sheet id 0 exercises the forced zero fields.
	f := &fakeSheets{rows: [][]any{{"Date", "Type", "Category", "Description", "Amount", "ID", "User"}}}
	c := newTestClient(t, f)
	ctx := context.Background()

	for _, id := range []string{"tx-1", "tx-2", "tx-1"} {
		if err := c.Append(ctx, tx(id)); err != nil {
			t.Fatalf("Append(%s): %v", id, err)
		}
	}
	if got := strings.Join(f.ids(), ","); got != "ID,tx-1,tx-2" {
		t.Fatalf("ids = %s", got)
	}
	if f.rows[1][4] != "25.5" || f.rows[1][0] != "2024-05-04" {
		t.Fatalf("unexpected row %v", f.rows[1])
	}

	if err := c.Remove(ctx, "tx-1"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if got := strings.Join(f.ids(), ","); got != "ID,tx-2" {
		t.Fatalf("ids after remove = %s", got)
	}
	if err := c.Remove(ctx, "unknown"); err != nil {
		t.Fatalf("Remove(unknown): %v", err)
	}
	if err := c.Remove(ctx, "tx-2"); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	gets := 0
	for _, call := range f.calls {
		if call == "GET /v4/spreadsheets/sheet-1" {
			gets++
		}
	}
	if gets != 1 {
		t.Fatalf("sheet id should be resolved once, resolved %d times", gets)
	}
}

func TestClient_AppendRejectsMissingID(t *testing.T) {
	c := newTestClient(t, &fakeSheets{})
	if err := c.Append(context.Background(), tx("")); err == nil {
		t.Fatal("expected error for a transaction without id")
	}
}

func TestClient_RemoveUsesSheetID(t *testing.T) {
	f := &fakeSheets{sheetID: 3, rows: [][]any{{"2024-01-01", "expense", "Food", "x", "1", "tx-1", "u1"}}}
	c := newTestClient(t, f)
	if err := c.Remove(context.Background(), "tx-1"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if len(f.ids()) != 0 {
		t.Fatalf("row not removed: %v", f.ids())
	}
}

func TestClient_MissingSheet(t *testing.T) {
	c := newTestClient(t, &fakeSheets{})
	c.sheetName = "Missing"
	if err := c.Append(context.Background(), tx("tx-1")); err == nil {
		t.Fatal("expected an error for an unknown sheet")
	}
	if err := c.Remove(context.Background(), "tx-1"); err == nil {
		t.Fatal("expected an error for an unknown sheet")
	}
}
