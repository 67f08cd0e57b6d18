package core

import (
	"errors"
	"strings"
	"time"
)

var errRequired = errors.New("is required")

// ErrMissingFields is returned on create when title, amount or category is absent.
var ErrMissingFields = errors.New("Please provide title, amount, and category")

// NewTransaction builds a transaction for owner from a create request.
// Title, amount and category must be present; date defaults to now and notes to "".
func (in TransactionInput) NewTransaction(owner string, now time.Time) (Transaction, error) {
	if in.Title == nil || strings.TrimSpace(*in.Title) == "" ||
		in.Amount == nil ||
		in.Category == nil || strings.TrimSpace(*in.Category) == "" {
		return Transaction{}, Invalid("", ErrMissingFields)
	}

	t := Transaction{
		OwnerID:  owner,
		Date:     now,
		Category: DefaultCategory,
	}
	if err := in.ApplyTo(&t); err != nil {
		return Transaction{}, err
	}
	return t, nil
}

// ApplyTo overwrites every field present in the input and leaves the rest untouched.
// Presence is the only criterion, so an explicit zero amount or empty notes are applied.
func (in TransactionInput) ApplyTo(t *Transaction) error {
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return Invalid("title", errRequired)
		}
		t.Title = title
	}
	if in.Amount != nil {
		t.Amount = in.Amount.Float()
	}
	if in.Category != nil {
		c, err := ParseCategory(*in.Category)
		if err != nil {
			return Invalid("category", err)
		}
		t.Category = c
	}
	if in.Date != nil && !in.Date.IsZero() {
		t.Date = in.Date.Time
	}
	if in.Notes != nil {
		t.Notes = strings.TrimSpace(*in.Notes)
	}
	return t.Validate()
}

// Empty reports whether no field is present.
func (in TransactionInput) Empty() bool {
	return in.Title == nil && in.Amount == nil && in.Category == nil && in.Date == nil && in.Notes == nil
}
