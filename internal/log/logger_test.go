package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("%q: expected %v, got %v", in, want, got)
		}
	}
}

func TestLoggerStampsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Format: "json", Output: &buf, Component: ComponentStorage})
	l.WithComponent(ComponentAuth).Info("hello", FieldOwnerID, "u1")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if rec[FieldComponent] != ComponentAuth || rec[FieldOwnerID] != "u1" {
		t.Fatalf("unexpected record: %v", rec)
	}
}

func TestFromContext(t *testing.T) {
	if l := FromContext(context.Background()); l.Component() != "unknown" {
		t.Fatalf("expected fallback logger, got %q", l.Component())
	}
	l := New(Config{Component: ComponentHTTP, Output: &bytes.Buffer{}})
	if got := FromContext(WithContext(context.Background(), l)); got != l {
		t.Fatalf("expected stored logger")
	}
}

func TestLogHTTPEndLevels(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Level: slog.LevelDebug, Format: "json", Output: &buf}))
	req := httptest.NewRequest("GET", "/api/transactions?page=2", nil)

	for status, level := range map[int]string{200: "INFO", 404: "WARN", 500: "ERROR"} {
		buf.Reset()
		sl.LogHTTPEnd(context.Background(), req, status, 3, "127.0.0.1")
		var rec map[string]any
		if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if rec["level"] != level || rec[FieldQuery] != "page=2" {
			t.Fatalf("status %d: unexpected record %v", status, rec)
		}
	}
}
