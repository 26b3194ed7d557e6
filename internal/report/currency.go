package report

import (
	"strconv"

	"fintrack/internal/core"
)

// CurrencySymbol is the display symbol for the single implicit currency.
const CurrencySymbol = "₹"

// FormatCurrency renders an amount the en-IN way with no fraction digits:
// "₹1,23,45,678". Only the display is rounded (half up); negative amounts
// get a leading minus.
func FormatCurrency(m core.Money) string {
	neg := m.Cents < 0
	var units uint64
	if neg {
		// Negate in unsigned space so math.MinInt64 does not overflow.
		units = uint64(-(m.Cents + 1)) + 1
	} else {
		units = uint64(m.Cents)
	}
	whole, rem := units/100, units%100
	if rem >= 50 {
		whole++
	}

	s := CurrencySymbol + groupIndian(strconv.FormatUint(whole, 10))
	if neg && whole != 0 {
		return "-" + s
	}
	return s
}

// FormatSigned prefixes the amount with + for income and - for expenses,
// as transaction lists show it.
func FormatSigned(tx core.Transaction) string {
	sign := "-"
	if tx.IsIncome() {
		sign = "+"
	}
	return sign + FormatCurrency(tx.Amount)
}

// groupIndian inserts separators after the last three digits and then
// every two digits.
func groupIndian(digits string) string {
	n := len(digits)
	if n <= 3 {
		return digits
	}
	head, tail := digits[:n-3], digits[n-3:]
	out := make([]byte, 0, n+n/2)
	first := len(head) % 2
	if first > 0 {
		out = append(out, head[:first]...)
	}
	for i := first; i < len(head); i += 2 {
		if len(out) > 0 {
			out = append(out, ',')
		}
		out = append(out, head[i:i+2]...)
	}
	out = append(out, ',')
	out = append(out, tail...)
	return string(out)
}
