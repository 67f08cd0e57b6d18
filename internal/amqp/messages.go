package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"expensetracker/internal/core"
)

// EventMessage is the wire form of a core.TransactionEvent. ID is unique per
// publication so consumers can drop redeliveries of an already applied event.
type EventMessage struct {
	ID          string           `json:"id"`
	Kind        core.EventKind   `json:"kind"`
	Transaction core.Transaction `json:"transaction"`
	OccurredAt  time.Time        `json:"occurredAt"`
}

func NewEventMessage(ev core.TransactionEvent) *EventMessage {
	occurred := ev.OccurredAt
	if occurred.IsZero() {
		occurred = time.Now().UTC()
	}
	return &EventMessage{
		ID:          uuid.NewString(),
		Kind:        ev.Kind,
		Transaction: ev.Transaction,
		OccurredAt:  occurred,
	}
}

func (m *EventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// Event converts the message back to its domain form.
func (m *EventMessage) Event() core.TransactionEvent {
	return core.TransactionEvent{Kind: m.Kind, Transaction: m.Transaction, OccurredAt: m.OccurredAt}
}

// EventMessageFromJSON decodes a message and rejects unknown event kinds.
func EventMessageFromJSON(data []byte) (*EventMessage, error) {
	var msg EventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Kind {
	case core.EventCreated, core.EventUpdated, core.EventDeleted:
	default:
		return nil, fmt.Errorf("unknown event kind %q", msg.Kind)
	}
	if msg.Transaction.ID == "" {
		return nil, fmt.Errorf("event %s has no transaction id", msg.ID)
	}
	return &msg, nil
}
