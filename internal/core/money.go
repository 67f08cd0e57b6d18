// Package core provides amount parsing and formatting utilities.
//
// Amounts are non-negative decimal currency values held as float64. Requests
// may carry them either as JSON numbers or as numeric strings from form inputs.
package core

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Amount is a request-side amount that decodes from a JSON number or string.
type Amount float64

// ParseAmount converts a decimal string to a float64 amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators.
// Returns ErrInvalidAmount for malformed input and ErrNegativeAmount for values below zero.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,34") -> 12.34, nil
//	ParseAmount("0")     -> 0, nil
//	ParseAmount("-1")    -> 0, ErrNegativeAmount
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrInvalidAmount
	}
	if v < 0 {
		return 0, ErrNegativeAmount
	}
	return v, nil
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	var raw string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return Invalid("amount", ErrInvalidAmount)
		}
	} else {
		raw = string(data)
	}
	v, err := ParseAmount(raw)
	if err != nil {
		return Invalid("amount", err)
	}
	*a = Amount(v)
	return nil
}

// Float returns the amount as a float64.
func (a Amount) Float() float64 {
	return float64(a)
}

// FormatAmount renders an amount with exactly two decimals.
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
