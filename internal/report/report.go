// Package report turns a snapshot of transactions into the derived views the
// dashboard shows: running totals, a per-date trend and a per-category
// expense breakdown.
//
// Every function is a pure transform. Inputs are read, never modified or
// retained, so callers may share a snapshot across goroutines.
package report

import (
	"sort"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// Totals holds the running totals of a snapshot.
type Totals struct {
	TotalIncome   core.Money `json:"totalIncome"`
	TotalExpenses core.Money `json:"totalExpenses"`
	Balance       core.Money `json:"balance"`
}

// DatePoint is one point of the income/expense trend.
type DatePoint struct {
	Date       string     `json:"date"`
	Label      string     `json:"label"`
	IncomeSum  core.Money `json:"incomeSum"`
	ExpenseSum core.Money `json:"expenseSum"`
}

// CategorySlice is one slice of the expense breakdown.
type CategorySlice struct {
	Category   string     `json:"category"`
	Amount     core.Money `json:"amount"`
	Percentage float64    `json:"percentage"`
	Color      string     `json:"color"`
}

var hundred = decimal.NewFromInt(100)

// SummarizeTotals sums income and expenses in a single pass.
func SummarizeTotals(txs []core.Transaction) Totals {
	var t Totals
	for _, tx := range txs {
		switch tx.Type {
		case core.Income:
			t.TotalIncome = t.TotalIncome.Add(tx.Amount)
		case core.Expense:
			t.TotalExpenses = t.TotalExpenses.Add(tx.Amount)
		}
	}
	t.Balance = t.TotalIncome.Sub(t.TotalExpenses)
	return t
}

// GroupByDate returns one point per distinct literal date, oldest first.
func GroupByDate(txs []core.Transaction) []DatePoint {
	byDate := make(map[string]*DatePoint)
	for _, tx := range txs {
		key := tx.Date.String()
		p, ok := byDate[key]
		if !ok {
			p = &DatePoint{Date: key, Label: tx.Date.Format("Jan 2")}
			byDate[key] = p
		}
		switch tx.Type {
		case core.Income:
			p.IncomeSum = p.IncomeSum.Add(tx.Amount)
		case core.Expense:
			p.ExpenseSum = p.ExpenseSum.Add(tx.Amount)
		}
	}

	points := make([]DatePoint, 0, len(byDate))
	for _, p := range byDate {
		points = append(points, *p)
	}
	// YYYY-MM-DD sorts lexically in chronological order.
	sort.Slice(points, func(i, j int) bool { return points[i].Date < points[j].Date })
	return points
}

// GroupByCategory breaks expenses down by category, largest first.
//
// Income never appears. Equal amounts keep the order in which their
// categories were first seen in the snapshot. When there is nothing spent
// the result is empty rather than a division by zero.
func GroupByCategory(txs []core.Transaction) []CategorySlice {
	var (
		order []string
		sums  = make(map[string]int64)
		total int64
	)
	for _, tx := range txs {
		if tx.Type != core.Expense {
			continue
		}
		if _, seen := sums[tx.Category]; !seen {
			order = append(order, tx.Category)
		}
		sums[tx.Category] += tx.Amount.Cents
		total += tx.Amount.Cents
	}
	if total == 0 {
		return []CategorySlice{}
	}

	out := make([]CategorySlice, 0, len(order))
	totalDec := decimal.NewFromInt(total)
	for _, cat := range order {
		pct := decimal.NewFromInt(sums[cat]).Mul(hundred).DivRound(totalDec, 1)
		f, _ := pct.Float64()
		out = append(out, CategorySlice{
			Category:   cat,
			Amount:     core.Money{Cents: sums[cat]},
			Percentage: f,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Amount.Cents > out[j].Amount.Cents
	})
	for i := range out {
		out[i].Color = ChartColor(i)
	}
	return out
}
