// Package memory is an in-process exporter used when no spreadsheet is
// configured and in tests.
package memory

import (
	"context"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/sheets"
)

type Exporter struct {
	mu   sync.Mutex
	rows [][]any
}

var _ sheets.Exporter = (*Exporter)(nil)

func New() *Exporter {
	return &Exporter{}
}

func (e *Exporter) Append(_ context.Context, tx core.Transaction) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.indexOf(tx.ID) >= 0 {
		return nil
	}
	e.rows = append(e.rows, sheets.Row(tx))
	return nil
}

func (e *Exporter) Remove(_ context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i := e.indexOf(id); i >= 0 {
		e.rows = append(e.rows[:i], e.rows[i+1:]...)
	}
	return nil
}

// Rows returns a copy of the exported rows in sheet order.
func (e *Exporter) Rows() [][]any {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([][]any, len(e.rows))
	for i, r := range e.rows {
		out[i] = append([]any(nil), r...)
	}
	return out
}

func (e *Exporter) indexOf(id string) int {
	for i, r := range e.rows {
		if r[sheets.IDColumn] == id {
			return i
		}
	}
	return -1
}
