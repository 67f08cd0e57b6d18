package core

import (
	"sort"
)

// CategorySummary aggregates one owner's transactions by category.
// PerCategory only holds categories that appear in at least one transaction.
type CategorySummary struct {
	TotalAmount      float64              `json:"totalExpenses"`
	PerCategory      map[Category]float64 `json:"categoryTotals"`
	TransactionCount int                  `json:"totalTransactions"`
}

// CategoryAmount represents an amount aggregated by category with its share of the total.
type CategoryAmount struct {
	Category Category `json:"category"`
	Amount   float64  `json:"amount"`
	Percent  float64  `json:"percent"`
}

// Summarize folds transactions into totals. An empty input yields a zero summary
// with an empty, non-nil map.
func Summarize(txs []Transaction) CategorySummary {
	s := CategorySummary{PerCategory: make(map[Category]float64)}
	for _, t := range txs {
		s.TotalAmount += t.Amount
		s.PerCategory[t.Category] += t.Amount
	}
	s.TransactionCount = len(txs)
	return s
}

// Breakdown returns per-category rows sorted by amount descending, ties by
// category order. Percent is 0 when the total is 0.
func (s CategorySummary) Breakdown() []CategoryAmount {
	rows := make([]CategoryAmount, 0, len(s.PerCategory))
	for c, amt := range s.PerCategory {
		row := CategoryAmount{Category: c, Amount: amt}
		if s.TotalAmount > 0 {
			row.Percent = amt / s.TotalAmount * 100
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Amount != rows[j].Amount {
			return rows[i].Amount > rows[j].Amount
		}
		return categoryIndex(rows[i].Category) < categoryIndex(rows[j].Category)
	})
	return rows
}

func categoryIndex(c Category) int {
	for i, v := range Categories {
		if v == c {
			return i
		}
	}
	return len(Categories)
}
