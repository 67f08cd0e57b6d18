package trace

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	applog "expensetracker/internal/log"
)

func newTestLogger(buf *bytes.Buffer) *applog.Logger {
	return applog.New(applog.Config{Level: slog.LevelDebug, Format: "json", Output: buf, Component: applog.ComponentHTTP})
}

func TestMiddleware_AssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	m := NewMiddleware(newTestLogger(&buf), func(*http.Request) string { return "203.0.113.9" })

	var seenID string
	var seenLogger *applog.Logger
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = GetRequestID(r.Context())
		seenLogger = applog.FromContext(r.Context())
		w.WriteHeader(http.StatusCreated)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/transactions", nil))

	if !strings.HasPrefix(seenID, "req_") {
		t.Fatalf("request id = %q, want req_ prefix", seenID)
	}
	if rr.Header().Get(RequestIDHeader) != seenID {
		t.Errorf("response header = %q, want %q", rr.Header().Get(RequestIDHeader), seenID)
	}
	if seenLogger == nil || seenLogger.Component() != applog.ComponentHTTP {
		t.Errorf("request logger not stored in context")
	}
	out := buf.String()
	for _, want := range []string{`"request_id":"` + seenID + `"`, `"status_code":201`, `"client_ip":"203.0.113.9"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %s: %s", want, out)
		}
	}
}

func TestMiddleware_KeepsUpstreamRequestID(t *testing.T) {
	var buf bytes.Buffer
	m := NewMiddleware(newTestLogger(&buf), nil)
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if got := rr.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("request id = %q, want abc-123", got)
	}
}

func TestMiddleware_Metrics(t *testing.T) {
	var buf bytes.Buffer
	m := NewMiddleware(newTestLogger(&buf), nil)
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time {
		clock = clock.Add(5 * time.Millisecond)
		return clock
	}

	statuses := []int{http.StatusOK, http.StatusNotFound, http.StatusUnauthorized, http.StatusInternalServerError}
	for _, status := range statuses {
		h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	}

	got := m.GetMetrics()
	if got.TotalRequests != 4 || got.ClientErrors != 2 || got.ServerErrors != 1 || got.InFlight != 0 {
		t.Errorf("GetMetrics() = %+v", got)
	}
	if avg := got.AverageResponseTime(); avg != 5*time.Millisecond {
		t.Errorf("AverageResponseTime() = %v, want 5ms", avg)
	}
}

func TestGetRequestID_Missing(t *testing.T) {
	if id := GetRequestID(httptest.NewRequest(http.MethodGet, "/", nil).Context()); id != "" {
		t.Errorf("GetRequestID() = %q, want empty", id)
	}
}
