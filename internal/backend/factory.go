// Package backend builds the record store, the event publisher and the
// activity journal from configuration.
package backend

import (
	"context"
	"errors"
	"fmt"

	"expensetracker/internal/amqp"
	applog "expensetracker/internal/log"
	"expensetracker/internal/services"
	"expensetracker/internal/sheets"
	gsheet "expensetracker/internal/sheets/google"
	memjournal "expensetracker/internal/sheets/memory"
	"expensetracker/internal/storage"
	"expensetracker/internal/storage/memory"
)

// Result contains the backend instances and their cleanup function.
type Result struct {
	Store storage.Store
	// Publisher is nil when AMQP is not configured or unreachable.
	Publisher services.EventPublisher
	Cleanup   func() error
}

// Journal is the activity journal the worker writes to.
type Journal interface {
	sheets.JournalWriter
	sheets.JournalReader
}

// Factory creates backends based on configuration
type Factory struct {
	logger *applog.Logger

	// dialAMQP is replaced in tests.
	dialAMQP func(url, exchange, queue string, logger *applog.Logger) (*amqp.Client, error)
}

func NewFactory(logger *applog.Logger) *Factory {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &Factory{
		logger:   logger.WithComponent(applog.ComponentStorage),
		dialAMQP: amqp.NewClient,
	}
}

// CreateBackend opens the configured store. An AMQP connection failure is
// logged and leaves Publisher nil so the API keeps serving.
func (f *Factory) CreateBackend(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var store storage.Store
	switch cfg.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		store = repo
		f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
	case MemoryBackend:
		store = memory.New()
		f.logger.InfoContext(ctx, "Initialized memory backend")
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.Type)
	}

	res := &Result{Store: store}
	closers := []func() error{store.Close}

	if cfg.AMQPURL != "" {
		client, err := f.dialAMQP(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, f.logger)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without events",
				applog.FieldError, err)
		} else {
			res.Publisher = client
			closers = append(closers, client.Close)
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	}

	res.Cleanup = func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		return errors.Join(errs...)
	}
	return res, nil
}

// CreateJournal returns the Google Sheets journal, or an in-memory one when
// no spreadsheet is configured.
func (f *Factory) CreateJournal(ctx context.Context, cfg Config) (Journal, error) {
	logger := f.logger.WithComponent(applog.ComponentSheets)
	if cfg.GoogleSpreadsheetID == "" {
		logger.WarnContext(ctx, "No spreadsheet configured, journaling to memory")
		return memjournal.New(), nil
	}
	j, err := gsheet.NewJournal(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets journal: %w", err)
	}
	logger.InfoContext(ctx, "Initialized Google Sheets journal", "sheet", cfg.GoogleSheetName)
	return j, nil
}
