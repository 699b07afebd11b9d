package metrics

import (
	"sort"
	"time"

	"finpulse/internal/core"
)

// monthlyWindow is how many trailing month buckets the monthly series keeps.
const monthlyWindow = 6

// CategoryTotal is one slice of the expense breakdown. Share is the
// fraction of the overall expense total, in [0, 1].
type CategoryTotal struct {
	Category string     `json:"category"`
	Total    core.Money `json:"total"`
	Share    float64    `json:"share"`
}

// MonthTotal is one bucket of the monthly income/expense series.
type MonthTotal struct {
	Year    int        `json:"year"`
	Month   int        `json:"month"`
	Label   string     `json:"label"`
	Income  core.Money `json:"income"`
	Expense core.Money `json:"expense"`
}

// GroupByCategory sums expense amounts per category and sorts the result
// descending by total. Ties keep first-encountered category order. Income
// transactions are ignored.
func GroupByCategory(txs []core.Transaction) []CategoryTotal {
	sums := make(map[string]int64)
	var order []string

	for _, tx := range txs {
		if tx.Type != core.Expense {
			continue
		}
		if _, seen := sums[tx.Category]; !seen {
			order = append(order, tx.Category)
		}
		sums[tx.Category] += tx.Amount.Cents
	}

	out := make([]CategoryTotal, 0, len(order))
	var grand int64
	for _, cat := range order {
		grand += sums[cat]
		out = append(out, CategoryTotal{Category: cat, Total: core.Money{Cents: sums[cat]}})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Total.Cents > out[j].Total.Cents
	})

	if grand > 0 {
		for i := range out {
			out[i].Share = float64(out[i].Total.Cents) / float64(grand)
		}
	}
	return out
}

// GroupByMonth buckets the full history by (year, month), summing income
// and expense separately, sorted chronologically ascending and truncated to
// the most recent six buckets. Labels use Go's English month abbreviations
// ("Jan 2025").
func GroupByMonth(txs []core.Transaction) []MonthTotal {
	sums := make(map[monthKey]*MonthTotal)

	for _, tx := range txs {
		key := monthKey{tx.Date.Year(), tx.Date.Month()}
		bucket, ok := sums[key]
		if !ok {
			bucket = &MonthTotal{
				Year:  key.year,
				Month: key.month,
				Label: time.Date(key.year, time.Month(key.month), 1, 0, 0, 0, 0, time.UTC).Format("Jan 2006"),
			}
			sums[key] = bucket
		}
		switch tx.Type {
		case core.Income:
			bucket.Income.Cents += tx.Amount.Cents
		case core.Expense:
			bucket.Expense.Cents += tx.Amount.Cents
		}
	}

	out := make([]MonthTotal, 0, len(sums))
	for _, bucket := range sums {
		out = append(out, *bucket)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})

	if len(out) > monthlyWindow {
		out = out[len(out)-monthlyWindow:]
	}
	return out
}
