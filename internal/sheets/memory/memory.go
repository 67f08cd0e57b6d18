package memory

import (
	"context"
	"fmt"
	"sync"

	"expensetracker/internal/core"
	"expensetracker/internal/sheets"
)

var (
	_ sheets.JournalWriter = (*Journal)(nil)
	_ sheets.JournalReader = (*Journal)(nil)
)

// Journal keeps journal rows in memory. It backs the worker when no
// spreadsheet is configured and in tests.
type Journal struct {
	mu   sync.Mutex
	rows [][]string
}

func New() *Journal {
	return &Journal{}
}

// AppendEvent stores the row and returns a synthetic reference.
func (j *Journal) AppendEvent(_ context.Context, ev core.TransactionEvent) (string, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.rows = append(j.rows, sheets.Row(ev))
	return fmt.Sprintf("mem:%d", len(j.rows)), nil
}

func (j *Journal) Rows(_ context.Context) ([][]string, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([][]string, len(j.rows))
	for i, r := range j.rows {
		out[i] = append([]string(nil), r...)
	}
	return out, nil
}
