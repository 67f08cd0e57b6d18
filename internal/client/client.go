// Package client is a typed client for the expense tracker REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"expensetracker/internal/core"
	"expensetracker/internal/explorer"
	"expensetracker/internal/services"
)

// Client calls the API on behalf of one logged-in user.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	mu    sync.RWMutex
	token string
}

var _ explorer.PageFetcher = (*Client)(nil)

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// APIError is a non-2xx response. It matches the core sentinel for its status.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusBadRequest:
		return core.ErrValidation
	case http.StatusUnauthorized:
		return core.ErrUnauthorized
	case http.StatusNotFound:
		return core.ErrNotFound
	case http.StatusConflict:
		return core.ErrConflict
	}
	return nil
}

// SetToken sets the bearer token sent with every request.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Login exchanges credentials for a session and keeps its token.
func (c *Client) Login(ctx context.Context, email, password string) (services.Session, error) {
	return c.authenticate(ctx, "/api/auth/login", map[string]string{"email": email, "password": password})
}

// Register creates an account and keeps the returned token.
func (c *Client) Register(ctx context.Context, name, email, password string) (services.Session, error) {
	return c.authenticate(ctx, "/api/auth/register", map[string]string{"name": name, "email": email, "password": password})
}

func (c *Client) authenticate(ctx context.Context, path string, body any) (services.Session, error) {
	var session services.Session
	if err := c.do(ctx, http.MethodPost, path, body, &session); err != nil {
		return services.Session{}, err
	}
	c.SetToken(session.Token)
	return session, nil
}

func (c *Client) Me(ctx context.Context) (core.User, error) {
	var u core.User
	return u, c.do(ctx, http.MethodGet, "/api/auth/me", nil, &u)
}

// FetchPage lists one page of the caller's transactions, newest first.
func (c *Client) FetchPage(ctx context.Context, page, size int) (core.Page, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(size))
	var p core.Page
	return p, c.do(ctx, http.MethodGet, "/api/transactions?"+q.Encode(), nil, &p)
}

func (c *Client) Get(ctx context.Context, id string) (core.Transaction, error) {
	var t core.Transaction
	return t, c.do(ctx, http.MethodGet, "/api/transactions/"+url.PathEscape(id), nil, &t)
}

func (c *Client) Create(ctx context.Context, in core.TransactionInput) (core.Transaction, error) {
	var t core.Transaction
	return t, c.do(ctx, http.MethodPost, "/api/transactions", in, &t)
}

// Update sends only the fields present in in.
func (c *Client) Update(ctx context.Context, id string, in core.TransactionInput) (core.Transaction, error) {
	var t core.Transaction
	return t, c.do(ctx, http.MethodPut, "/api/transactions/"+url.PathEscape(id), in, &t)
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/transactions/"+url.PathEscape(id), nil, nil)
}

// Summary is the category summary with its ranked breakdown.
type Summary struct {
	core.CategorySummary
	Breakdown []core.CategoryAmount `json:"breakdown"`
}

func (c *Client) Summary(ctx context.Context) (Summary, error) {
	var s Summary
	return s, c.do(ctx, http.MethodGet, "/api/transactions/stats/summary", nil, &s)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body struct {
		Message string `json:"message"`
	}
	msg := strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &body) == nil && body.Message != "" {
		msg = body.Message
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}
