package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/events"
	"fintrack/internal/store"
	"fintrack/internal/store/memory"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) kinds() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Event
	}
	return out
}

func newTx(cents int64, typ core.TxType, category, date string) core.NewTransaction {
	d, err := core.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return core.NewTransaction{
		Amount:      core.Money{Cents: cents},
		Description: category + " item",
		Category:    category,
		Date:        d,
		Type:        typ,
	}
}

func TestTransactionService_AddPublishesCreated(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewTransactionService(memory.New(), pub, nil)
	ctx := context.Background()

	tx, err := svc.Add(ctx, "u1", newTx(1000, core.Expense, "Food", "2024-01-01"))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if tx.ID == "" || tx.UserID != "u1" {
		t.Fatalf("unexpected transaction %+v", tx)
	}
	if got := pub.kinds(); len(got) != 1 || got[0] != events.TransactionCreated {
		t.Fatalf("events = %v", got)
	}
	if pub.events[0].Transaction.ID != tx.ID {
		t.Fatal("event must carry the stored transaction")
	}
}

func TestTransactionService_AddValidation(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewTransactionService(memory.New(), pub, nil)

	bad := newTx(1000, core.Expense, "  ", "2024-01-01")
	if _, err := svc.Add(context.Background(), "u1", bad); !errors.Is(err, core.ErrEmptyCategory) {
		t.Fatalf("got %v, want ErrEmptyCategory", err)
	}
	if len(pub.kinds()) != 0 {
		t.Fatal("nothing should be published for a rejected transaction")
	}
}

type countingRecorder struct {
	ops      []string
	failures int
}

func (r *countingRecorder) TransactionRecorded(op string) { r.ops = append(r.ops, op) }
func (r *countingRecorder) PublishFailed()                { r.failures++ }

func TestTransactionService_PublishFailureDoesNotFail(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("bus down")}
	rec := &countingRecorder{}
	svc := NewTransactionService(memory.New(), pub, nil).WithRecorder(rec)
	ctx := context.Background()

	tx, err := svc.Add(ctx, "u1", newTx(1000, core.Income, "Salary", "2024-01-01"))
	if err != nil {
		t.Fatalf("Add must succeed when publishing fails: %v", err)
	}
	if err := svc.Remove(ctx, "u1", tx.ID); err != nil {
		t.Fatalf("Remove must succeed when publishing fails: %v", err)
	}
	if len(rec.ops) != 2 || rec.ops[0] != "create" || rec.ops[1] != "delete" {
		t.Fatalf("recorded ops = %v", rec.ops)
	}
	if rec.failures != 2 {
		t.Fatalf("publish failures = %d, want 2", rec.failures)
	}
}

func TestTransactionService_NilPublisher(t *testing.T) {
	svc := NewTransactionService(memory.New(), nil, nil)
	if _, err := svc.Add(context.Background(), "u1", newTx(1, core.Expense, "Food", "2024-01-01")); err != nil {
		t.Fatalf("Add: %v", err)
	}
}

func TestTransactionService_Remove(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewTransactionService(memory.New(), pub, nil)
	ctx := context.Background()

	tx, err := svc.Add(ctx, "u1", newTx(1000, core.Expense, "Food", "2024-01-01"))
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.Remove(ctx, "u2", tx.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("foreign delete: got %v, want ErrNotFound", err)
	}
	if err := svc.Remove(ctx, "u1", "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("unknown id: got %v, want ErrNotFound", err)
	}
	if err := svc.Remove(ctx, "u1", tx.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	kinds := pub.kinds()
	if len(kinds) != 2 || kinds[1] != events.TransactionDeleted {
		t.Fatalf("events = %v", kinds)
	}
	if pub.events[1].Transaction.Category != "Food" {
		t.Fatal("deleted event must carry the removed transaction")
	}

	txs, err := svc.List(ctx, "u1")
	if err != nil || len(txs) != 0 {
		t.Fatalf("List after delete = %v, %v", txs, err)
	}
}

func TestTransactionService_DashboardRecomputes(t *testing.T) {
	svc := NewTransactionService(memory.New(), nil, nil)
	ctx := context.Background()

	for _, nt := range []core.NewTransaction{
		newTx(50000, core.Income, "Salary", "2024-01-01"),
		newTx(10000, core.Expense, "Food", "2024-01-01"),
		newTx(20000, core.Expense, "Transport", "2024-01-02"),
	} {
		if _, err := svc.Add(ctx, "u1", nt); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := svc.Add(ctx, "u2", newTx(99900, core.Expense, "Food", "2024-01-01")); err != nil {
		t.Fatal(err)
	}

	d, err := svc.Dashboard(ctx, "u1")
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if d.Totals.Balance.Cents != 20000 || d.Formatted.Balance != "₹200" {
		t.Fatalf("unexpected totals %+v %+v", d.Totals, d.Formatted)
	}
	if len(d.Trend) != 2 || len(d.Categories) != 2 || d.Categories[0].Category != "Transport" {
		t.Fatalf("unexpected views %+v %+v", d.Trend, d.Categories)
	}
	if len(d.Transactions) != 3 || d.Transactions[0].Date.String() != "2024-01-02" {
		t.Fatalf("unexpected list %+v", d.Transactions)
	}

	tx, err := svc.Add(ctx, "u1", newTx(30000, core.Expense, "Bills", "2024-01-03"))
	if err != nil {
		t.Fatal(err)
	}
	d, _ = svc.Dashboard(ctx, "u1")
	if d.Totals.Balance.Cents != -10000 || d.Formatted.Balance != "-₹100" {
		t.Fatalf("dashboard not recomputed after add: %+v", d.Totals)
	}
	if err := svc.Remove(ctx, "u1", tx.ID); err != nil {
		t.Fatal(err)
	}
	d, _ = svc.Dashboard(ctx, "u1")
	if d.Totals.Balance.Cents != 20000 {
		t.Fatalf("dashboard not recomputed after remove: %+v", d.Totals)
	}
}
