package core

import "math"

const (
	DefaultPage     = 1
	DefaultPageSize = 10
)

// PageRequest selects one slice of a date-descending result set.
type PageRequest struct {
	Page int
	Size int
}

// Normalize replaces values below 1 with the defaults.
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Size < 1 {
		p.Size = DefaultPageSize
	}
	return p
}

// Offset is the number of records skipped before this page. It saturates at
// math.MaxInt when the product does not fit, which callers treat as past the end.
func (p PageRequest) Offset() int {
	if p.Page <= 1 || p.Size <= 0 {
		return 0
	}
	if p.Page-1 > math.MaxInt/p.Size {
		return math.MaxInt
	}
	return (p.Page - 1) * p.Size
}

// Page is one bounded slice of an owner's transactions plus continuation metadata.
type Page struct {
	Items       []Transaction `json:"transactions"`
	CurrentPage int           `json:"currentPage"`
	TotalPages  int           `json:"totalPages"`
	TotalCount  int           `json:"totalTransactions"`
	HasMore     bool          `json:"hasMore"`
}

// NewPage builds the page metadata for items returned by req out of total records.
func NewPage(items []Transaction, req PageRequest, total int) Page {
	req = req.Normalize()
	if items == nil {
		items = []Transaction{}
	}
	totalPages := total / req.Size
	if total%req.Size != 0 {
		totalPages++
	}
	offset := req.Offset()
	return Page{
		Items:       items,
		CurrentPage: req.Page,
		TotalPages:  totalPages,
		TotalCount:  total,
		HasMore:     offset < total && len(items) < total-offset,
	}
}
