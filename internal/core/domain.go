package core

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// Category is one of the fixed spending categories.
type Category string

const (
	Food          Category = "Food"
	Rent          Category = "Rent"
	Transport     Category = "Transport"
	Entertainment Category = "Entertainment"
	Utilities     Category = "Utilities"
	Shopping      Category = "Shopping"
	Healthcare    Category = "Healthcare"
	Education     Category = "Education"
	Other         Category = "Other"

	// DefaultCategory is used when a stored record carries no category.
	DefaultCategory = Other
)

// Categories lists every valid category in display order. It is the single
// source for validation, the schema check and UI selectors.
var Categories = []Category{
	Food, Rent, Transport, Entertainment, Utilities, Shopping, Healthcare, Education, Other,
}

type (
	// Transaction is a single spending record owned by one user.
	Transaction struct {
		ID        string    `json:"_id"`
		OwnerID   string    `json:"userId"`
		Title     string    `json:"title"`
		Amount    float64   `json:"amount"`
		Category  Category  `json:"category"`
		Date      time.Time `json:"date"`
		Notes     string    `json:"notes"`
		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`
	}

	// TransactionInput carries create/update fields. A nil field was not
	// present in the request.
	TransactionInput struct {
		Title    *string   `json:"title,omitempty"`
		Amount   *Amount   `json:"amount,omitempty"`
		Category *string   `json:"category,omitempty"`
		Date     *DateTime `json:"date,omitempty"`
		Notes    *string   `json:"notes,omitempty"`
	}

	// User is an account that owns transactions.
	User struct {
		ID           string    `json:"id"`
		Name         string    `json:"name"`
		Email        string    `json:"email"`
		PasswordHash string    `json:"-"`
		CreatedAt    time.Time `json:"createdAt"`
	}
)

var (
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation failed")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrConflict        = errors.New("conflict")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrNegativeAmount  = errors.New("amount must not be negative")
	ErrInvalidCategory = errors.New("invalid category")
	ErrEmptyTitle      = errors.New("empty title")
)

// ErrTransactionNotFound is returned for absent or foreign transaction ids.
var ErrTransactionNotFound error = &NotFoundError{Resource: "Transaction"}

// NotFoundError names the missing resource. It matches ErrNotFound with errors.Is.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string { return e.Resource + " not found" }

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ValidationError describes a rejected field. It matches ErrValidation with errors.Is.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Err.Error())
}

func (e *ValidationError) Unwrap() error { return e.Err }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Invalid wraps err as a ValidationError for field.
func Invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// ParseCategory returns the matching Category or ErrInvalidCategory.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, c := range Categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
}

// Valid reports whether c belongs to Categories.
func (c Category) Valid() bool {
	_, err := ParseCategory(string(c))
	return err == nil
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return Invalid("title", ErrEmptyTitle)
	}
	if math.IsNaN(t.Amount) || math.IsInf(t.Amount, 0) {
		return Invalid("amount", ErrInvalidAmount)
	}
	if t.Amount < 0 {
		return Invalid("amount", ErrNegativeAmount)
	}
	if !t.Category.Valid() {
		return Invalid("category", ErrInvalidCategory)
	}
	return nil
}
