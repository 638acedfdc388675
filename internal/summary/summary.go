// Package summary aggregates a slice of expenses into the totals shown in
// chat replies and reports.
package summary

import (
	"fmt"
	"math"
	"slices"

	"pengeluaran/internal/core"
)

// RecentLimit is the number of newest records kept in a preview.
const RecentLimit = 5

// CategoryTotal is one line of the per-category breakdown.
type CategoryTotal struct {
	Category core.Category
	Amount   int64
	Count    int
}

// Summary is the aggregate of a set of records.
type Summary struct {
	Title      string
	Total      int64
	Count      int
	Categories []CategoryTotal // subtotal descending; ties keep first-seen order
	Recent     []core.Expense  // newest first, at most RecentLimit
	More       int             // records older than the preview
}

// Summarize aggregates records given in ledger order.
func Summarize(records []core.Expense, title string) Summary {
	s := Summary{Title: title, Count: len(records)}
	if len(records) == 0 {
		return s
	}

	pos := make(map[core.Category]int)
	for _, r := range records {
		s.Total = addCapped(s.Total, r.Amount)
		i, ok := pos[r.Category]
		if !ok {
			i = len(s.Categories)
			pos[r.Category] = i
			s.Categories = append(s.Categories, CategoryTotal{Category: r.Category})
		}
		s.Categories[i].Amount = addCapped(s.Categories[i].Amount, r.Amount)
		s.Categories[i].Count++
	}
	slices.SortStableFunc(s.Categories, func(a, b CategoryTotal) int {
		switch {
		case a.Amount > b.Amount:
			return -1
		case a.Amount < b.Amount:
			return 1
		}
		return 0
	})

	from := max(0, len(records)-RecentLimit)
	for i := len(records) - 1; i >= from; i-- {
		s.Recent = append(s.Recent, records[i])
	}
	s.More = from
	return s
}

// Empty reports the no-data result, distinct from a zero-total breakdown.
func (s Summary) Empty() bool { return s.Count == 0 }

// Average is the integer floor of Total / Count, 0 when empty.
func (s Summary) Average() int64 {
	if s.Count == 0 {
		return 0
	}
	return s.Total / int64(s.Count)
}

// Percent returns the share of total held by c, 0 when total is 0.
func (c CategoryTotal) Percent(total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(c.Amount) * 100 / float64(total)
}

// PercentRounded renders the share without decimals, as used in chat.
func (c CategoryTotal) PercentRounded(total int64) string {
	return fmt.Sprintf("%.0f%%", c.Percent(total))
}

// PercentOneDecimal renders the share with one decimal, as used in reports.
func (c CategoryTotal) PercentOneDecimal(total int64) string {
	return fmt.Sprintf("%.1f%%", c.Percent(total))
}

// addCapped adds non-negative amounts, pinning the result at math.MaxInt64
// instead of wrapping.
func addCapped(a, b int64) int64 {
	if b > math.MaxInt64-a {
		return math.MaxInt64
	}
	return a + b
}
