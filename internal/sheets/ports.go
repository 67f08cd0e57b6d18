package sheets

import (
	"context"
	"strconv"
	"time"

	"expensetracker/internal/core"
)

// Ports for outbound adapters.
type (
	// JournalWriter appends one row per transaction event.
	JournalWriter interface {
		AppendEvent(ctx context.Context, ev core.TransactionEvent) (rowRef string, err error)
	}

	// JournalReader returns the rows written so far, header excluded.
	JournalReader interface {
		Rows(ctx context.Context) ([][]string, error)
	}
)

// Header is the first row of the journal sheet.
var Header = []string{"Recorded At", "Event", "Transaction ID", "Owner ID", "Date", "Title", "Category", "Amount", "Notes"}

// Row renders ev in Header column order.
func Row(ev core.TransactionEvent) []string {
	t := ev.Transaction
	return []string{
		ev.OccurredAt.UTC().Format(time.RFC3339),
		string(ev.Kind),
		t.ID,
		t.OwnerID,
		t.Date.UTC().Format("2006-01-02"),
		t.Title,
		string(t.Category),
		strconv.FormatFloat(t.Amount, 'f', 2, 64),
		t.Notes,
	}
}
