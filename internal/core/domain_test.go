package core

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"
)

func TestParseCategory(t *testing.T) {
	for _, c := range Categories {
		got, err := ParseCategory(string(c))
		if err != nil || got != c {
			t.Fatalf("%q expected ok, got %q err=%v", c, got, err)
		}
	}
	if got, err := ParseCategory(" Food "); err != nil || got != Food {
		t.Fatalf("expected trimmed match, got %q err=%v", got, err)
	}
	for _, bad := range []string{"", "food", "All", "Groceries"} {
		if _, err := ParseCategory(bad); !errors.Is(err, ErrInvalidCategory) {
			t.Fatalf("%q expected ErrInvalidCategory, got %v", bad, err)
		}
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{Title: "Lunch", Amount: 12.5, Category: Food, Date: time.Now()}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	zero := good
	zero.Amount = 0
	if err := zero.Validate(); err != nil {
		t.Fatalf("zero amount should be valid, got %v", err)
	}

	bads := []Transaction{
		{Title: "  ", Amount: 1, Category: Food},
		{Title: "a", Amount: -0.01, Category: Food},
		{Title: "a", Amount: math.NaN(), Category: Food},
		{Title: "a", Amount: math.Inf(1), Category: Food},
		{Title: "a", Amount: 1, Category: "Pets"},
		{Title: "a", Amount: 1, Category: ""},
	}
	for i, tx := range bads {
		err := tx.Validate()
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("case %d expected validation error, got %v", i, err)
		}
	}
}

func TestValidationErrorUnwrap(t *testing.T) {
	err := Invalid("amount", ErrNegativeAmount)
	if !errors.Is(err, ErrNegativeAmount) || !errors.Is(err, ErrValidation) {
		t.Fatalf("expected both sentinels to match: %v", err)
	}
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "amount" {
		t.Fatalf("expected ValidationError for amount, got %#v", err)
	}
	if err.Error() != "amount: amount must not be negative" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestNotFoundError(t *testing.T) {
	err := fmt.Errorf("get transaction: %w", ErrTransactionNotFound)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound match for %v", err)
	}
	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.Error() != "Transaction not found" {
		t.Fatalf("expected named not found, got %v", err)
	}
	if errors.Is(ErrNotFound, ErrTransactionNotFound) {
		t.Fatalf("bare ErrNotFound must not name a resource")
	}
}
