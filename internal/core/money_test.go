package core

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out float64
		err error
	}{
		{"1", 1, nil},
		{"1.23", 1.23, nil},
		{"1,23", 1.23, nil},
		{" 2.50 ", 2.5, nil},
		{"0", 0, nil},
		{"-1", 0, ErrNegativeAmount},
		{"abc", 0, ErrInvalidAmount},
		{"1.2.3", 0, ErrInvalidAmount},
		{"NaN", 0, ErrInvalidAmount},
		{"", 0, ErrInvalidAmount},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.err == nil {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %v, got %v (err=%v)", tc.in, tc.out, got, err)
			}
			continue
		}
		if !errors.Is(err, tc.err) {
			t.Fatalf("%q expected %v, got %v", tc.in, tc.err, err)
		}
	}
}

func TestAmountUnmarshalJSON(t *testing.T) {
	var in struct {
		Amount *Amount `json:"amount"`
	}
	for body, want := range map[string]float64{
		`{"amount": 12.5}`:   12.5,
		`{"amount": "12.5"}`: 12.5,
		`{"amount": 0}`:      0,
		`{"amount": "7,25"}`: 7.25,
	} {
		in.Amount = nil
		if err := json.Unmarshal([]byte(body), &in); err != nil {
			t.Fatalf("%s: %v", body, err)
		}
		if in.Amount == nil || in.Amount.Float() != want {
			t.Fatalf("%s: expected %v, got %v", body, want, in.Amount)
		}
	}

	in.Amount = nil
	if err := json.Unmarshal([]byte(`{"amount": null}`), &in); err != nil || in.Amount != nil {
		t.Fatalf("null should leave amount absent, got %v err=%v", in.Amount, err)
	}
	if err := json.Unmarshal([]byte(`{"amount": -3}`), &in); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for negative amount, got %v", err)
	}
	if err := json.Unmarshal([]byte(`{"amount": "x"}`), &in); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected invalid amount, got %v", err)
	}
}

func TestFormatAmount(t *testing.T) {
	if got := FormatAmount(12); got != "12.00" {
		t.Fatalf("got %q", got)
	}
	if got := FormatAmount(3.456); got != "3.46" {
		t.Fatalf("got %q", got)
	}
}
