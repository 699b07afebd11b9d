package metrics

import (
	"testing"

	"finpulse/internal/core"
)

func TestGroupByCategory(t *testing.T) {
	txs := []core.Transaction{
		tx(core.Expense, 1000, "Food", core.NewDate(2025, 1, 1)),
		tx(core.Expense, 5000, "Housing", core.NewDate(2025, 2, 1)),
		tx(core.Expense, 2000, "Food", core.NewDate(2025, 3, 1)),
		tx(core.Income, 90000, "Salary", core.NewDate(2025, 3, 1)), // ignored
		tx(core.Expense, 500, "Transport", core.NewDate(2025, 3, 2)),
	}

	got := GroupByCategory(txs)

	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].Category != "Housing" || got[0].Total.Cents != 5000 {
		t.Errorf("got[0] = %+v, want Housing/5000", got[0])
	}
	if got[1].Category != "Food" || got[1].Total.Cents != 3000 {
		t.Errorf("got[1] = %+v, want Food/3000", got[1])
	}
	if got[2].Category != "Transport" {
		t.Errorf("got[2] = %+v, want Transport last", got[2])
	}

	// Conservation: entries sum to the total expense amount, and shares to 1.
	var sum int64
	var share float64
	for _, c := range got {
		sum += c.Total.Cents
		share += c.Share
	}
	if sum != 8500 {
		t.Errorf("category totals sum to %d, want 8500", sum)
	}
	if share < 0.999 || share > 1.001 {
		t.Errorf("shares sum to %v, want 1", share)
	}
}

func TestGroupByCategoryStableTies(t *testing.T) {
	txs := []core.Transaction{
		tx(core.Expense, 1000, "Health", core.NewDate(2025, 1, 1)),
		tx(core.Expense, 1000, "Food", core.NewDate(2025, 1, 2)),
	}

	got := GroupByCategory(txs)
	if got[0].Category != "Health" || got[1].Category != "Food" {
		t.Errorf("tie order = [%s, %s], want first-encountered order preserved", got[0].Category, got[1].Category)
	}
}

func TestGroupByCategoryEmpty(t *testing.T) {
	if got := GroupByCategory(nil); len(got) != 0 {
		t.Errorf("GroupByCategory(nil) = %v, want empty", got)
	}
}

func TestGroupByMonth(t *testing.T) {
	var txs []core.Transaction
	// Nine month buckets spanning a year boundary, inserted out of order.
	months := []struct{ y, m int }{
		{2025, 3}, {2024, 10}, {2025, 1}, {2024, 11}, {2025, 2},
		{2024, 12}, {2025, 4}, {2024, 9}, {2025, 5},
	}
	for _, ym := range months {
		txs = append(txs,
			tx(core.Income, 10000, "Salary", core.NewDate(ym.y, ym.m, 5)),
			tx(core.Expense, 4000, "Food", core.NewDate(ym.y, ym.m, 6)),
		)
	}

	got := GroupByMonth(txs)

	if len(got) != 6 {
		t.Fatalf("len = %d, want window of 6", len(got))
	}
	// Chronologically ascending and truncated to the most recent buckets.
	if got[0].Year != 2024 || got[0].Month != 12 {
		t.Errorf("got[0] = %d-%02d, want 2024-12", got[0].Year, got[0].Month)
	}
	if got[5].Year != 2025 || got[5].Month != 5 {
		t.Errorf("got[5] = %d-%02d, want 2025-05", got[5].Year, got[5].Month)
	}
	for i := 1; i < len(got); i++ {
		prev, cur := got[i-1], got[i]
		if cur.Year < prev.Year || (cur.Year == prev.Year && cur.Month <= prev.Month) {
			t.Errorf("series not strictly ascending at %d: %v -> %v", i, prev, cur)
		}
	}
	for _, bucket := range got {
		if bucket.Income.Cents != 10000 || bucket.Expense.Cents != 4000 {
			t.Errorf("bucket %s sums = %d/%d, want 10000/4000", bucket.Label, bucket.Income.Cents, bucket.Expense.Cents)
		}
	}
	if got[0].Label != "Dec 2024" {
		t.Errorf("label = %q, want %q", got[0].Label, "Dec 2024")
	}
}

func TestGroupByMonthShortHistory(t *testing.T) {
	txs := []core.Transaction{
		tx(core.Expense, 4000, "Food", core.NewDate(2025, 6, 1)),
		tx(core.Income, 10000, "Salary", core.NewDate(2025, 6, 2)),
	}

	got := GroupByMonth(txs)
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if got[0].Income.Cents != 10000 || got[0].Expense.Cents != 4000 {
		t.Errorf("bucket sums = %d/%d, want 10000/4000", got[0].Income.Cents, got[0].Expense.Cents)
	}
}
