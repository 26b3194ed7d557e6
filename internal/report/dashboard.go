package report

import "fintrack/internal/core"

// chartPalette colours category slices by rank, cycling past the tenth.
var chartPalette = [...]string{
	"#8B5CF6", "#06B6D4", "#10B981", "#F59E0B", "#EF4444",
	"#EC4899", "#6366F1", "#84CC16", "#F97316", "#64748B",
}

// ChartColor returns the slice colour for the i-th largest category.
func ChartColor(i int) string {
	if i < 0 {
		i = -i
	}
	return chartPalette[i%len(chartPalette)]
}

// Dashboard bundles every derived view of one snapshot.
type Dashboard struct {
	Totals       Totals             `json:"totals"`
	Formatted    FormattedTotals    `json:"formatted"`
	Trend        []DatePoint        `json:"trend"`
	Categories   []CategorySlice    `json:"categories"`
	Transactions []core.Transaction `json:"transactions"`
}

// FormattedTotals carries the display strings of Totals.
type FormattedTotals struct {
	TotalIncome   string `json:"totalIncome"`
	TotalExpenses string `json:"totalExpenses"`
	Balance       string `json:"balance"`
}

// Format renders the totals for display.
func (t Totals) Format() FormattedTotals {
	return FormattedTotals{
		TotalIncome:   FormatCurrency(t.TotalIncome),
		TotalExpenses: FormatCurrency(t.TotalExpenses),
		Balance:       FormatCurrency(t.Balance),
	}
}

// BuildDashboard computes every view from the same snapshot. The returned
// transaction list is a sorted copy, newest date first.
func BuildDashboard(txs []core.Transaction) Dashboard {
	totals := SummarizeTotals(txs)
	return Dashboard{
		Totals:       totals,
		Formatted:    totals.Format(),
		Trend:        GroupByDate(txs),
		Categories:   GroupByCategory(txs),
		Transactions: SortNewestFirst(txs),
	}
}

// SortNewestFirst returns a copy ordered by date desc, then creation desc.
func SortNewestFirst(txs []core.Transaction) []core.Transaction {
	out := make([]core.Transaction, len(txs))
	copy(out, txs)
	core.SortNewestFirst(out)
	return out
}
