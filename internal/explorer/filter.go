package explorer

import (
	"strings"
	"time"

	"expensetracker/internal/core"
)

// AllCategories is the category selector that disables category filtering.
const AllCategories = "All"

// Filters is the active predicate set. The zero value matches everything.
type Filters struct {
	Term string
	// Category is AllCategories, "" or one core.Category name.
	Category string
	Start    *time.Time
	End      *time.Time
}

// Active reports whether any predicate is set.
func (f Filters) Active() bool {
	return strings.TrimSpace(f.Term) != "" || !f.allCategories() || f.Start != nil || f.End != nil
}

func (f Filters) allCategories() bool {
	return f.Category == "" || f.Category == AllCategories
}

// Match reports whether t passes every active predicate.
func (f Filters) Match(t core.Transaction) bool {
	if term := strings.ToLower(strings.TrimSpace(f.Term)); term != "" {
		inTitle := strings.Contains(strings.ToLower(t.Title), term)
		inNotes := t.Notes != "" && strings.Contains(strings.ToLower(t.Notes), term)
		if !inTitle && !inNotes {
			return false
		}
	}
	if !f.allCategories() && string(t.Category) != f.Category {
		return false
	}
	if f.Start != nil && t.Date.Before(*f.Start) {
		return false
	}
	if f.End != nil && t.Date.After(*f.End) {
		return false
	}
	return true
}

// ApplyFilters returns the items matching f in their original order.
func ApplyFilters(items []core.Transaction, f Filters) []core.Transaction {
	out := make([]core.Transaction, 0, len(items))
	for _, t := range items {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}
