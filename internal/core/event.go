package core

import "time"

// EventKind names the mutation that produced a TransactionEvent.
type EventKind string

const (
	EventCreated EventKind = "created"
	EventUpdated EventKind = "updated"
	EventDeleted EventKind = "deleted"
)

// TransactionEvent is emitted after a successful mutation. For deletions
// Transaction holds the record as it was before removal.
type TransactionEvent struct {
	Kind        EventKind   `json:"kind"`
	Transaction Transaction `json:"transaction"`
	OccurredAt  time.Time   `json:"occurredAt"`
}

func NewTransactionEvent(kind EventKind, t Transaction, at time.Time) TransactionEvent {
	return TransactionEvent{Kind: kind, Transaction: t, OccurredAt: at.UTC()}
}
