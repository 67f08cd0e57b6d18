package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"expensetracker/internal/auth"
	"expensetracker/internal/cache"
	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
	"expensetracker/internal/services"
	"expensetracker/internal/storage/memory"
)

type testEnv struct {
	srv   *Server
	store *memory.Store
}

func newTestEnv(t *testing.T, opts Options) *testEnv {
	t.Helper()
	logger := applog.New(applog.Config{Level: applog.ParseLevel("error"), Output: io.Discard})
	store := memory.New()
	users := cache.NewLRUCache[core.User](100, time.Minute)

	if opts.Transactions == nil {
		opts.Transactions = services.NewTransactionService(store, nil, logger)
	}
	if opts.Accounts == nil {
		tokens := auth.NewTokenIssuer("test-secret-with-enough-length-123", "expensetracker", time.Hour)
		opts.Accounts = services.NewAuthService(store, tokens, users, logger)
	}
	if opts.Store == nil {
		opts.Store = store
	}
	opts.UserCache = users
	opts.Logger = logger
	if opts.FrontendURL == "" {
		opts.FrontendURL = "http://localhost:3000"
	}

	srv := NewServer(opts)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return &testEnv{srv: srv, store: store}
}

func (e *testEnv) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) register(t *testing.T, email string) string {
	t.Helper()
	rr := e.do(t, http.MethodPost, "/api/auth/register", "",
		`{"name":"Test","email":"`+email+`","password":"secret123"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("register status = %d body = %s", rr.Code, rr.Body.String())
	}
	var session struct {
		Token string `json:"token"`
	}
	decodeBody(t, rr, &session)
	return session.Token
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
}

func message(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var m messageResponse
	decodeBody(t, rr, &m)
	return m.Message
}

func TestHealthReadyMetrics(t *testing.T) {
	env := newTestEnv(t, Options{})

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := env.do(t, http.MethodGet, path, "", "")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status = %d body = %s", path, rr.Code, rr.Body.String())
		}
	}

	env.do(t, http.MethodGet, "/api/transactions", "", "")
	rr := env.do(t, http.MethodGet, "/metrics", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rr.Code)
	}
	for _, want := range []string{
		"# TYPE http_requests_total counter",
		`http_request_errors_total{class="4xx"} 1`,
		`transactions_changed_total{op="create"} 0`,
		"user_cache_entries 0",
	} {
		if !strings.Contains(rr.Body.String(), want) {
			t.Errorf("metrics missing %q:\n%s", want, rr.Body.String())
		}
	}
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("database is locked") }

func TestReadyReportsStoreFailure(t *testing.T) {
	env := newTestEnv(t, Options{Store: failingPinger{}})
	rr := env.do(t, http.MethodGet, "/readyz", "", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "database is locked") {
		t.Errorf("body missing store error: %s", rr.Body.String())
	}
}

func TestAuthEndpoints(t *testing.T) {
	env := newTestEnv(t, Options{})
	token := env.register(t, "alice@example.com")

	rr := env.do(t, http.MethodGet, "/api/auth/me", token, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("me status = %d", rr.Code)
	}
	var me core.User
	decodeBody(t, rr, &me)
	if me.Email != "alice@example.com" {
		t.Errorf("me email = %q", me.Email)
	}
	if strings.Contains(rr.Body.String(), "secret123") || strings.Contains(rr.Body.String(), "PasswordHash") {
		t.Errorf("me leaks credentials: %s", rr.Body.String())
	}

	tests := []struct {
		name    string
		path    string
		body    string
		status  int
		message string
	}{
		{"login ok", "/api/auth/login", `{"email":"ALICE@example.com","password":"secret123"}`, http.StatusOK, ""},
		{"login wrong password", "/api/auth/login", `{"email":"alice@example.com","password":"nope123"}`, http.StatusUnauthorized, "Invalid credentials"},
		{"login unknown user", "/api/auth/login", `{"email":"bob@example.com","password":"secret123"}`, http.StatusUnauthorized, "Invalid credentials"},
		{"login missing fields", "/api/auth/login", `{"email":""}`, http.StatusBadRequest, "Please provide email and password"},
		{"register duplicate", "/api/auth/register", `{"name":"A","email":"alice@example.com","password":"secret123"}`, http.StatusConflict, "User already exists"},
		{"register missing name", "/api/auth/register", `{"email":"c@example.com","password":"secret123"}`, http.StatusBadRequest, "Please provide name, email, and password"},
		{"register bad json", "/api/auth/register", `{"email":`, http.StatusBadRequest, "Invalid request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, http.MethodPost, tt.path, "", tt.body)
			if rr.Code != tt.status {
				t.Fatalf("status = %d, want %d body = %s", rr.Code, tt.status, rr.Body.String())
			}
			if tt.message != "" {
				if got := message(t, rr); got != tt.message {
					t.Errorf("message = %q, want %q", got, tt.message)
				}
			}
		})
	}
}

func TestTransactionsRequireToken(t *testing.T) {
	env := newTestEnv(t, Options{})

	tests := []struct {
		name    string
		token   string
		message string
	}{
		{"missing token", "", "No token, authorization denied"},
		{"garbage token", "not-a-jwt", "Token is not valid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, http.MethodGet, "/api/transactions", tt.token, "")
			if rr.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rr.Code)
			}
			if got := message(t, rr); got != tt.message {
				t.Errorf("message = %q, want %q", got, tt.message)
			}
		})
	}
}

func TestTransactionLifecycle(t *testing.T) {
	env := newTestEnv(t, Options{})
	token := env.register(t, "alice@example.com")

	rr := env.do(t, http.MethodPost, "/api/transactions", token,
		`{"title":" Lunch ","amount":"12.50","category":"Food","date":"2024-03-05","notes":"with team"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status = %d body = %s", rr.Code, rr.Body.String())
	}
	var created core.Transaction
	decodeBody(t, rr, &created)
	if created.ID == "" || created.Title != "Lunch" || created.Amount != 12.5 || created.Category != core.Food {
		t.Fatalf("created = %+v", created)
	}
	if !strings.Contains(rr.Body.String(), `"_id":`) || !strings.Contains(rr.Body.String(), `"userId":`) {
		t.Errorf("wire names missing: %s", rr.Body.String())
	}

	rr = env.do(t, http.MethodGet, "/api/transactions/"+created.ID, token, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("get status = %d", rr.Code)
	}

	rr = env.do(t, http.MethodPut, "/api/transactions/"+created.ID, token, `{"amount":0,"notes":""}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("update status = %d body = %s", rr.Code, rr.Body.String())
	}
	var updated core.Transaction
	decodeBody(t, rr, &updated)
	if updated.Amount != 0 || updated.Notes != "" || updated.Title != "Lunch" {
		t.Errorf("updated = %+v", updated)
	}

	rr = env.do(t, http.MethodDelete, "/api/transactions/"+created.ID, token, "")
	if rr.Code != http.StatusOK || message(t, rr) != "Transaction deleted successfully" {
		t.Fatalf("delete status = %d body = %s", rr.Code, rr.Body.String())
	}

	rr = env.do(t, http.MethodGet, "/api/transactions/"+created.ID, token, "")
	if rr.Code != http.StatusNotFound || message(t, rr) != "Transaction not found" {
		t.Fatalf("get after delete status = %d body = %s", rr.Code, rr.Body.String())
	}
}

func TestCreateValidation(t *testing.T) {
	env := newTestEnv(t, Options{})
	token := env.register(t, "alice@example.com")

	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"missing title", `{"amount":5,"category":"Food"}`, "Please provide title, amount, and category"},
		{"missing amount", `{"title":"x","category":"Food"}`, "Please provide title, amount, and category"},
		{"missing category", `{"title":"x","amount":5}`, "Please provide title, amount, and category"},
		{"negative amount", `{"title":"x","amount":-1,"category":"Food"}`, ""},
		{"unknown category", `{"title":"x","amount":1,"category":"Pets"}`, ""},
		{"malformed body", `not json`, "Invalid request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, http.MethodPost, "/api/transactions", token, tt.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 body = %s", rr.Code, rr.Body.String())
			}
			if tt.message != "" {
				if got := message(t, rr); got != tt.message {
					t.Errorf("message = %q, want %q", got, tt.message)
				}
			}
		})
	}

	rr := env.do(t, http.MethodPost, "/api/transactions", token, `{"title":"Free sample","amount":0,"category":"Other"}`)
	if rr.Code != http.StatusCreated {
		t.Errorf("zero amount status = %d, want 201", rr.Code)
	}
}

func TestListPagingAndIsolation(t *testing.T) {
	env := newTestEnv(t, Options{})
	alice := env.register(t, "alice@example.com")
	bob := env.register(t, "bob@example.com")

	for day := 1; day <= 12; day++ {
		body := fmt.Sprintf(`{"title":"t","amount":1,"category":"Food","date":"2024-01-%02d"}`, day)
		if rr := env.do(t, http.MethodPost, "/api/transactions", alice, body); rr.Code != http.StatusCreated {
			t.Fatalf("seed status = %d", rr.Code)
		}
	}

	rr := env.do(t, http.MethodGet, "/api/transactions", alice, "")
	var first core.Page
	decodeBody(t, rr, &first)
	if len(first.Items) != 10 || first.CurrentPage != 1 || first.TotalPages != 2 || first.TotalCount != 12 || !first.HasMore {
		t.Fatalf("first page = %+v", first)
	}
	if first.Items[0].Date.Day() != 12 {
		t.Errorf("first item day = %d, want newest (12)", first.Items[0].Date.Day())
	}

	rr = env.do(t, http.MethodGet, "/api/transactions?page=2&limit=10", alice, "")
	var second core.Page
	decodeBody(t, rr, &second)
	if len(second.Items) != 2 || second.HasMore {
		t.Errorf("second page = %+v", second)
	}

	rr = env.do(t, http.MethodGet, "/api/transactions?page=9", alice, "")
	var beyond core.Page
	decodeBody(t, rr, &beyond)
	if rr.Code != http.StatusOK || len(beyond.Items) != 0 || beyond.HasMore {
		t.Errorf("out of range page = %d %+v", rr.Code, beyond)
	}
	if !strings.Contains(rr.Body.String(), `"transactions":[]`) {
		t.Errorf("empty page must encode an empty array: %s", rr.Body.String())
	}

	extremes := []struct {
		query     string
		wantLen   int
		wantPages int
	}{
		{"page=9223372036854775807", 0, 2},
		{"limit=9223372036854775807", 12, 1},
		{"page=9223372036854775807&limit=9223372036854775807", 0, 1},
		{"page=2&limit=9223372036854775807", 0, 1},
	}
	for _, tt := range extremes {
		rr = env.do(t, http.MethodGet, "/api/transactions?"+tt.query, alice, "")
		var got core.Page
		decodeBody(t, rr, &got)
		if rr.Code != http.StatusOK || len(got.Items) != tt.wantLen || got.TotalPages != tt.wantPages || got.HasMore {
			t.Errorf("%s: status %d len %d pages %d more %v", tt.query, rr.Code, len(got.Items), got.TotalPages, got.HasMore)
		}
	}

	rr = env.do(t, http.MethodGet, "/api/transactions", bob, "")
	var bobs core.Page
	decodeBody(t, rr, &bobs)
	if bobs.TotalCount != 0 {
		t.Errorf("bob sees %d of alice's transactions", bobs.TotalCount)
	}

	id := first.Items[0].ID
	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		if rr := env.do(t, method, "/api/transactions/"+id, bob, ""); rr.Code != http.StatusNotFound {
			t.Errorf("%s foreign id status = %d, want 404", method, rr.Code)
		}
	}
	if rr := env.do(t, http.MethodPut, "/api/transactions/"+id, bob, `{"title":"mine"}`); rr.Code != http.StatusNotFound {
		t.Errorf("PUT foreign id status = %d, want 404", rr.Code)
	}
}

func TestSummary(t *testing.T) {
	env := newTestEnv(t, Options{})
	token := env.register(t, "alice@example.com")

	for _, body := range []string{
		`{"title":"Groceries","amount":10,"category":"Food"}`,
		`{"title":"Snack","amount":5,"category":"Food"}`,
		`{"title":"Bus","amount":20,"category":"Transport"}`,
	} {
		env.do(t, http.MethodPost, "/api/transactions", token, body)
	}

	rr := env.do(t, http.MethodGet, "/api/transactions/stats/summary", token, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("summary status = %d", rr.Code)
	}
	var got struct {
		TotalExpenses     float64               `json:"totalExpenses"`
		CategoryTotals    map[string]float64    `json:"categoryTotals"`
		TotalTransactions int                   `json:"totalTransactions"`
		Breakdown         []core.CategoryAmount `json:"breakdown"`
	}
	decodeBody(t, rr, &got)
	if got.TotalExpenses != 35 || got.TotalTransactions != 3 {
		t.Errorf("summary totals = %+v", got)
	}
	if got.CategoryTotals["Food"] != 15 || got.CategoryTotals["Transport"] != 20 || len(got.CategoryTotals) != 2 {
		t.Errorf("categoryTotals = %v", got.CategoryTotals)
	}
	if len(got.Breakdown) != 2 || got.Breakdown[0].Category != core.Transport {
		t.Errorf("breakdown = %+v", got.Breakdown)
	}

	other := env.register(t, "empty@example.com")
	rr = env.do(t, http.MethodGet, "/api/transactions/stats/summary", other, "")
	if !strings.Contains(rr.Body.String(), `"categoryTotals":{}`) {
		t.Errorf("empty summary = %s", rr.Body.String())
	}
}

type brokenTransactions struct{ Transactions }

func (brokenTransactions) List(context.Context, string, core.PageRequest) (core.Page, error) {
	return core.Page{}, errors.New("disk I/O error")
}

func TestUnexpectedErrorIs500(t *testing.T) {
	env := newTestEnv(t, Options{Transactions: brokenTransactions{}})
	token := env.register(t, "alice@example.com")

	rr := env.do(t, http.MethodGet, "/api/transactions", token, "")
	if rr.Code != http.StatusInternalServerError || message(t, rr) != "disk I/O error" {
		t.Fatalf("status = %d body = %s", rr.Code, rr.Body.String())
	}
}

func TestLoginRateLimit(t *testing.T) {
	env := newTestEnv(t, Options{LoginRatePerMinute: 2})
	body := `{"email":"nobody@example.com","password":"secret123"}`

	for i := 0; i < 2; i++ {
		if rr := env.do(t, http.MethodPost, "/api/auth/login", "", body); rr.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d status = %d, want 401", i+1, rr.Code)
		}
	}
	rr := env.do(t, http.MethodPost, "/api/auth/login", "", body)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}
}

func TestCORSAndHeaders(t *testing.T) {
	env := newTestEnv(t, Options{})

	req := httptest.NewRequest(http.MethodOptions, "/api/transactions", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "authorization,content-type")
	rr := httptest.NewRecorder()
	env.srv.Handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d, want 204", rr.Code)
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "http://localhost:3000" {
		t.Errorf("Allow-Origin = %q", rr.Header().Get("Access-Control-Allow-Origin"))
	}
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers missing")
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("request id header missing")
	}
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv(t, Options{})
	rr := env.do(t, http.MethodGet, "/api/nothing", "", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
}
