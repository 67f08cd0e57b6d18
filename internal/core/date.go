package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// ErrInvalidDate is returned for date strings in none of the accepted layouts.
var ErrInvalidDate = errors.New("invalid date")

// dateLayouts are tried in order when parsing a date from a request.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// DateTime is a request-side date. An empty string decodes to the zero value,
// which callers treat as "not provided".
type DateTime struct {
	time.Time
}

// ParseDate parses s using the accepted layouts. Layouts without a zone are read as UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrInvalidDate
}

func (d *DateTime) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return Invalid("date", ErrInvalidDate)
	}
	if strings.TrimSpace(raw) == "" {
		d.Time = time.Time{}
		return nil
	}
	t, err := ParseDate(raw)
	if err != nil {
		return Invalid("date", err)
	}
	d.Time = t
	return nil
}

// FormatDate renders t the way the dashboard lists dates, e.g. "Jan 2, 2025".
func FormatDate(t time.Time) string {
	return t.Format("Jan 2, 2006")
}
