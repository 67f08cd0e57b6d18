package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
	"expensetracker/internal/storage"
)

// EventPublisher delivers transaction events to downstream consumers.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, ev core.TransactionEvent) error
}

// TransactionService applies the business rules for one owner's records
// on top of a TransactionStore.
type TransactionService struct {
	store     storage.TransactionStore
	publisher EventPublisher
	logger    *applog.Logger
	events    *applog.StructuredLogger
	now       func() time.Time
}

// NewTransactionService wires the service. publisher may be nil.
func NewTransactionService(store storage.TransactionStore, publisher EventPublisher, logger *applog.Logger) *TransactionService {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentTransaction)
	return &TransactionService{
		store:     store,
		publisher: publisher,
		logger:    logger,
		events:    applog.NewStructuredLogger(logger),
		now:       time.Now,
	}
}

// List returns one page of the owner's transactions, newest first.
// A page past the end yields no items and no error.
func (s *TransactionService) List(ctx context.Context, owner string, req core.PageRequest) (core.Page, error) {
	req = req.Normalize()

	total, err := s.store.CountByOwner(ctx, owner)
	if err != nil {
		return core.Page{}, fmt.Errorf("count transactions: %w", err)
	}

	var items []core.Transaction
	if req.Offset() < total {
		items, err = s.store.ListByOwner(ctx, owner, req.Offset(), req.Size)
		if err != nil {
			return core.Page{}, fmt.Errorf("list transactions: %w", err)
		}
	}

	s.logger.DebugContext(ctx, "Listed transactions",
		applog.FieldOwnerID, owner,
		applog.FieldPage, req.Page,
		applog.FieldPageSize, req.Size,
		applog.FieldCount, len(items))
	return core.NewPage(items, req, total), nil
}

func (s *TransactionService) Get(ctx context.Context, owner, id string) (core.Transaction, error) {
	t, err := s.store.Get(ctx, owner, id)
	if err != nil {
		return core.Transaction{}, transactionErr("get transaction", err)
	}
	s.logger.DebugContext(ctx, "Read transaction",
		applog.FieldOperation, applog.OpRead,
		applog.FieldTransactionID, id,
		applog.FieldOwnerID, owner)
	return t, nil
}

func (s *TransactionService) Create(ctx context.Context, owner string, in core.TransactionInput) (core.Transaction, error) {
	t, err := in.NewTransaction(owner, s.now())
	if err != nil {
		return core.Transaction{}, err
	}
	created, err := s.store.Insert(ctx, t)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to save transaction",
			applog.FieldError, err,
			applog.FieldOwnerID, owner,
			applog.FieldTitle, t.Title)
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	s.events.LogTransactionChanged(ctx, applog.OpCreate, created.ID, owner, created.Amount, string(created.Category))
	s.publish(ctx, core.EventCreated, created)
	return created, nil
}

// Update overwrites the fields present in the input and leaves the others unchanged.
func (s *TransactionService) Update(ctx context.Context, owner, id string, in core.TransactionInput) (core.Transaction, error) {
	current, err := s.store.Get(ctx, owner, id)
	if err != nil {
		return core.Transaction{}, transactionErr("get transaction", err)
	}
	if err := in.ApplyTo(&current); err != nil {
		return core.Transaction{}, err
	}
	updated, err := s.store.Update(ctx, current)
	if err != nil {
		return core.Transaction{}, transactionErr("update transaction", err)
	}

	s.events.LogTransactionChanged(ctx, applog.OpUpdate, updated.ID, owner, updated.Amount, string(updated.Category))
	s.publish(ctx, core.EventUpdated, updated)
	return updated, nil
}

func (s *TransactionService) Delete(ctx context.Context, owner, id string) error {
	current, err := s.store.Get(ctx, owner, id)
	if err != nil {
		return transactionErr("get transaction", err)
	}
	if err := s.store.Delete(ctx, owner, id); err != nil {
		return transactionErr("delete transaction", err)
	}

	s.events.LogTransactionChanged(ctx, applog.OpDelete, id, owner, current.Amount, string(current.Category))
	s.publish(ctx, core.EventDeleted, current)
	return nil
}

// Summarize folds every transaction of the owner into per-category totals.
func (s *TransactionService) Summarize(ctx context.Context, owner string) (core.CategorySummary, error) {
	all, err := s.store.AllByOwner(ctx, owner)
	if err != nil {
		return core.CategorySummary{}, fmt.Errorf("load transactions: %w", err)
	}
	summary := core.Summarize(all)
	s.logger.DebugContext(ctx, "Summarized transactions",
		applog.FieldOperation, applog.OpSummarize,
		applog.FieldOwnerID, owner,
		applog.FieldCount, summary.TransactionCount)
	return summary, nil
}

// transactionErr wraps err for op, naming the transaction when the store reports it missing.
func transactionErr(op string, err error) error {
	if errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, core.ErrTransactionNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// publish never fails the caller: the record is already stored.
func (s *TransactionService) publish(ctx context.Context, kind core.EventKind, t core.Transaction) {
	if s.publisher == nil {
		return
	}
	ev := core.NewTransactionEvent(kind, t, s.now())
	if err := s.publisher.PublishTransactionEvent(ctx, ev); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish transaction event",
			applog.FieldEvent, string(kind),
			applog.FieldTransactionID, t.ID,
			applog.FieldError, err)
	}
}

