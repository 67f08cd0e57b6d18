package auth

import (
	"errors"
	"testing"

	"expensetracker/internal/core"
)

func TestPassword(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hash == "s3cret!" {
		t.Fatal("hash must not equal the password")
	}
	if err := CheckPassword(hash, "s3cret!"); err != nil {
		t.Errorf("CheckPassword() error = %v", err)
	}
	if err := CheckPassword(hash, "wrong"); !errors.Is(err, core.ErrUnauthorized) {
		t.Errorf("CheckPassword(wrong) error = %v, want ErrUnauthorized", err)
	}
	if err := CheckPassword("not-a-hash", "s3cret!"); !errors.Is(err, core.ErrUnauthorized) {
		t.Errorf("CheckPassword(bad hash) error = %v, want ErrUnauthorized", err)
	}
}

func TestHashPassword_TooShort(t *testing.T) {
	_, err := HashPassword("abc")
	if !errors.Is(err, core.ErrValidation) {
		t.Errorf("HashPassword() error = %v, want ErrValidation", err)
	}
}
