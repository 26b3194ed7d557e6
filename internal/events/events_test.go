package events

import (
	"strings"
	"testing"
	"time"

	"fintrack/internal/core"
)

func sampleTx() core.Transaction {
	return core.Transaction{
		ID:          "tx-1",
		UserID:      "user-1",
		Amount:      core.Money{Cents: 12345},
		Description: "Groceries",
		Category:    "Food",
		Date:        core.NewDate(2024, 3, 9),
		Type:        core.Expense,
		CreatedAt:   time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC),
	}
}

func TestCreatedAndDeleted(t *testing.T) {
	c := Created(sampleTx())
	if c.Event != TransactionCreated || c.Transaction.ID != "tx-1" || time.Since(c.Timestamp) > time.Second {
		t.Fatalf("unexpected created event %+v", c)
	}
	if d := Deleted(sampleTx()); d.Event != TransactionDeleted {
		t.Fatalf("unexpected deleted event %+v", d)
	}
}

func TestEncodeDecode(t *testing.T) {
	ev := Created(sampleTx())
	body, err := Encode(ev)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	for _, want := range []string{`"event":"transaction.created"`, `"amount":123.45`, `"date":"2024-03-09"`} {
		if !strings.Contains(string(body), want) {
			t.Errorf("missing %s in %s", want, body)
		}
	}

	got, err := Decode(body)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Transaction.Amount != ev.Transaction.Amount || got.Transaction.Date.String() != "2024-03-09" ||
		!got.Timestamp.Equal(ev.Timestamp) {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestDecodeRejects(t *testing.T) {
	cases := map[string]string{
		"not json":     `{"event":`,
		"unknown kind": `{"event":"transaction.updated","transaction":{"id":"x","date":"2024-01-01","amount":1}}`,
		"missing id":   `{"event":"transaction.created","transaction":{"date":"2024-01-01","amount":1}}`,
		"bad amount":   `{"event":"transaction.created","transaction":{"id":"x","date":"2024-01-01","amount":-1}}`,
	}
	for name, in := range cases {
		if _, err := Decode([]byte(in)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
