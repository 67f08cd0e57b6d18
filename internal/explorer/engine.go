// Package explorer accumulates pages of transactions fetched from the API
// and filters the accumulated set for display.
package explorer

import (
	"context"
	"errors"
	"sync"
	"time"

	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
)

var (
	// ErrFetchInFlight is returned when a page fetch is requested while one is outstanding.
	ErrFetchInFlight = errors.New("a page fetch is already in flight")
	// ErrSuperseded is returned to a fetch whose response arrived after a newer refresh was issued.
	ErrSuperseded = errors.New("fetch superseded by a newer refresh")
)

// PageFetcher loads one page of the caller's transactions.
type PageFetcher interface {
	FetchPage(ctx context.Context, page, size int) (core.Page, error)
}

// Engine owns the accumulated list, paging cursor and filters.
// It is safe for concurrent use; fetches run without holding the lock.
type Engine struct {
	fetcher  PageFetcher
	pageSize int
	logger   *applog.Logger

	mu          sync.Mutex
	accumulated []core.Transaction
	currentPage int
	totalCount  int
	hasMore     bool
	fetching    bool
	// seq numbers issued fetches; only the response of latest is applied.
	seq     uint64
	latest  uint64
	filters Filters
}

// NewEngine returns an empty engine. pageSize below 1 uses core.DefaultPageSize.
func NewEngine(fetcher PageFetcher, pageSize int, logger *applog.Logger) *Engine {
	if pageSize < 1 {
		pageSize = core.DefaultPageSize
	}
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &Engine{
		fetcher:  fetcher,
		pageSize: pageSize,
		logger:   logger.WithComponent(applog.ComponentExplorer),
		filters:  Filters{Category: AllCategories},
	}
}

// FetchPage loads page n. Page 1 replaces the accumulated list, later pages
// append to it. A failed fetch leaves the list untouched.
func (e *Engine) FetchPage(ctx context.Context, n int) error {
	e.mu.Lock()
	if e.fetching {
		e.mu.Unlock()
		return ErrFetchInFlight
	}
	id := e.beginLocked()
	e.mu.Unlock()

	return e.run(ctx, id, n)
}

// Load fetches the first page.
func (e *Engine) Load(ctx context.Context) error {
	return e.FetchPage(ctx, 1)
}

// Refresh reloads page 1 after a create, edit or delete. It is issued even
// while another fetch is outstanding; the older response is then discarded.
func (e *Engine) Refresh(ctx context.Context) error {
	e.mu.Lock()
	id := e.beginLocked()
	e.mu.Unlock()

	return e.run(ctx, id, 1)
}

// RequestMore fetches the next page when none is in flight and more exist.
// It reports whether a fetch was issued.
func (e *Engine) RequestMore(ctx context.Context) (bool, error) {
	e.mu.Lock()
	if e.fetching || !e.hasMore {
		e.mu.Unlock()
		return false, nil
	}
	next := e.currentPage + 1
	id := e.beginLocked()
	e.mu.Unlock()

	return true, e.run(ctx, id, next)
}

func (e *Engine) beginLocked() uint64 {
	e.seq++
	e.latest = e.seq
	e.fetching = true
	return e.seq
}

func (e *Engine) run(ctx context.Context, id uint64, n int) error {
	page, err := e.fetcher.FetchPage(ctx, n, e.pageSize)

	e.mu.Lock()
	defer e.mu.Unlock()

	if id != e.latest {
		e.logger.DebugContext(ctx, "Discarding superseded page",
			applog.FieldPage, n)
		return ErrSuperseded
	}
	e.fetching = false

	if err != nil {
		e.logger.WarnContext(ctx, "Page fetch failed",
			applog.FieldPage, n,
			applog.FieldError, err)
		return err
	}

	if n == 1 {
		e.accumulated = append([]core.Transaction(nil), page.Items...)
	} else {
		e.accumulated = append(e.accumulated, page.Items...)
	}
	e.currentPage = n
	e.totalCount = page.TotalCount
	e.hasMore = page.HasMore

	e.logger.DebugContext(ctx, "Page applied",
		applog.FieldPage, n,
		applog.FieldCount, len(page.Items))
	return nil
}

// SetFilters replaces the whole predicate set.
func (e *Engine) SetFilters(f Filters) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.filters = f
}

func (e *Engine) SetTerm(term string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.filters.Term = term
}

// SetCategory selects one category, or AllCategories.
func (e *Engine) SetCategory(category string) error {
	if category != AllCategories && category != "" {
		if _, err := core.ParseCategory(category); err != nil {
			return err
		}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.filters.Category = category
	return nil
}

// SetDateRange sets the inclusive bounds; nil leaves a side open.
func (e *Engine) SetDateRange(start, end *time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.filters.Start = start
	e.filters.End = end
}

// ClearFilters resets every predicate without refetching.
func (e *Engine) ClearFilters() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.filters = Filters{Category: AllCategories}
}

func (e *Engine) Filters() Filters {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.filters
}

// Visible returns the accumulated items that pass the active filters.
func (e *Engine) Visible() []core.Transaction {
	e.mu.Lock()
	defer e.mu.Unlock()
	return ApplyFilters(e.accumulated, e.filters)
}

// Accumulated returns a copy of every item fetched so far.
func (e *Engine) Accumulated() []core.Transaction {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]core.Transaction(nil), e.accumulated...)
}

// Remove drops the item with id after a successful delete.
func (e *Engine) Remove(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, t := range e.accumulated {
		if t.ID == id {
			e.accumulated = append(e.accumulated[:i:i], e.accumulated[i+1:]...)
			return true
		}
	}
	return false
}

// Replace swaps in an edited item with the same id.
func (e *Engine) Replace(tx core.Transaction) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, t := range e.accumulated {
		if t.ID == tx.ID {
			e.accumulated[i] = tx
			return true
		}
	}
	return false
}

// State is a snapshot of the paging cursor.
type State struct {
	CurrentPage int
	TotalCount  int
	HasMore     bool
	Fetching    bool
	Loaded      int
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return State{
		CurrentPage: e.currentPage,
		TotalCount:  e.totalCount,
		HasMore:     e.hasMore,
		Fetching:    e.fetching,
		Loaded:      len(e.accumulated),
	}
}
