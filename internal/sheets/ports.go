// Package sheets mirrors transactions into a spreadsheet. Adapters live in
// the google and memory sub-packages.
package sheets

import (
	"context"

	"fintrack/internal/core"
)

// Columns of an exported row, in sheet order.
var Header = []string{"Date", "Type", "Category", "Description", "Amount", "ID", "User"}

// IDColumn is the zero-based index of the transaction id within a row.
const IDColumn = 5

type (
	// TransactionWriter appends a transaction row. Writing an id that is
	// already present is a no-op so redelivered events do not duplicate rows.
	TransactionWriter interface {
		Append(ctx context.Context, tx core.Transaction) error
	}

	// TransactionDeleter removes the row of a transaction. A missing row is
	// not an error.
	TransactionDeleter interface {
		Remove(ctx context.Context, id string) error
	}

	Exporter interface {
		TransactionWriter
		TransactionDeleter
	}
)

// Row renders tx in the exported column order.
func Row(tx core.Transaction) []any {
	return []any{
		tx.Date.String(),
		string(tx.Type),
		tx.Category,
		tx.Description,
		tx.Amount.String(),
		tx.ID,
		tx.UserID,
	}
}
