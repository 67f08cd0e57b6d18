package worker

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"expensetracker/internal/cache"
	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
	"expensetracker/internal/sheets"
)

// HeaderEnsurer is implemented by journals that need a header row before the first append.
type HeaderEnsurer interface {
	EnsureHeader(ctx context.Context) error
}

// Stats counts handled events since start.
type Stats struct {
	Appended   int64
	Duplicates int64
	Failed     int64
}

// JournalWorker mirrors transaction events into the activity journal.
type JournalWorker struct {
	journal sheets.JournalWriter
	seen    cache.Cache[struct{}]
	logger  *applog.Logger

	appended   atomic.Int64
	duplicates atomic.Int64
	failed     atomic.Int64
}

// NewJournalWorker wires the worker. seen remembers recently appended events so
// a redelivery does not produce a second row; it may be nil.
func NewJournalWorker(journal sheets.JournalWriter, seen cache.Cache[struct{}], logger *applog.Logger) *JournalWorker {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &JournalWorker{
		journal: journal,
		seen:    seen,
		logger:  logger.WithComponent(applog.ComponentWorker),
	}
}

// Startup prepares the journal before consumption begins.
func (w *JournalWorker) Startup(ctx context.Context) error {
	if h, ok := w.journal.(HeaderEnsurer); ok {
		if err := h.EnsureHeader(ctx); err != nil {
			return fmt.Errorf("ensure journal header: %w", err)
		}
	}
	w.logger.InfoContext(ctx, "Journal worker ready", applog.FieldOperation, applog.OpStartup)
	return nil
}

// HandleEvent appends ev to the journal. It matches amqp.EventHandler.
func (w *JournalWorker) HandleEvent(ctx context.Context, ev core.TransactionEvent) error {
	key := eventKey(ev)
	if w.seen != nil {
		if _, ok := w.seen.Get(key); ok {
			w.duplicates.Add(1)
			w.logger.DebugContext(ctx, "Skipping duplicate event",
				applog.FieldEvent, string(ev.Kind),
				applog.FieldTransactionID, ev.Transaction.ID)
			return nil
		}
	}

	ref, err := w.journal.AppendEvent(ctx, ev)
	if err != nil {
		w.failed.Add(1)
		return fmt.Errorf("append %s event for %s: %w", ev.Kind, ev.Transaction.ID, err)
	}
	if w.seen != nil {
		w.seen.Set(key, struct{}{})
	}
	w.appended.Add(1)

	w.logger.InfoContext(ctx, "Journaled transaction event",
		applog.FieldEvent, string(ev.Kind),
		applog.FieldTransactionID, ev.Transaction.ID,
		applog.FieldOwnerID, ev.Transaction.OwnerID,
		"sheets_ref", ref)
	return nil
}

func (w *JournalWorker) Stats() Stats {
	return Stats{
		Appended:   w.appended.Load(),
		Duplicates: w.duplicates.Load(),
		Failed:     w.failed.Load(),
	}
}

func eventKey(ev core.TransactionEvent) string {
	return string(ev.Kind) + "|" + ev.Transaction.ID + "|" + ev.OccurredAt.UTC().Format(time.RFC3339Nano)
}
