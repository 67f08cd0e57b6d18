package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
	"expensetracker/internal/middleware/auth"
	"expensetracker/internal/middleware/ratelimit"
	"expensetracker/internal/middleware/security"
	"expensetracker/internal/middleware/trace"
	"expensetracker/internal/services"
)

// Transactions is the owner-scoped record API the handlers call.
type Transactions interface {
	List(ctx context.Context, owner string, req core.PageRequest) (core.Page, error)
	Get(ctx context.Context, owner, id string) (core.Transaction, error)
	Create(ctx context.Context, owner string, in core.TransactionInput) (core.Transaction, error)
	Update(ctx context.Context, owner, id string, in core.TransactionInput) (core.Transaction, error)
	Delete(ctx context.Context, owner, id string) error
	Summarize(ctx context.Context, owner string) (core.CategorySummary, error)
}

// Accounts registers and logs in users and resolves bearer tokens.
type Accounts interface {
	auth.Authenticator
	Register(ctx context.Context, name, email, password string) (services.Session, error)
	Login(ctx context.Context, email, password string) (services.Session, error)
}

// Pinger reports whether the record store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Sizer is implemented by caches whose size is exported as a metric.
type Sizer interface {
	Size() int
}

// Options configures NewServer. Transactions and Accounts are required.
type Options struct {
	Addr         string
	Transactions Transactions
	Accounts     Accounts
	Store        Pinger
	UserCache    Sizer
	Logger       *applog.Logger

	FrontendURL        string
	LoginRatePerMinute int
	WriteRatePerMinute int
}

type Server struct {
	http.Server

	tx       Transactions
	accounts Accounts
	store    Pinger
	cache    Sizer
	logger   *applog.Logger

	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	authLimiter      *ratelimit.Limiter
	writeLimiter     *ratelimit.Limiter

	appMetrics   *appMetrics
	shutdownOnce sync.Once
}

type appMetrics struct {
	uptime             time.Time
	transactionsMade   int64
	transactionsEdited int64
	transactionsGone   int64
	logins             int64
	registrations      int64
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	if opts.LoginRatePerMinute <= 0 {
		opts.LoginRatePerMinute = 10
	}
	if opts.WriteRatePerMinute <= 0 {
		opts.WriteRatePerMinute = 120
	}

	s := &Server{
		tx:               opts.Transactions,
		accounts:         opts.Accounts,
		store:            opts.Store,
		cache:            opts.UserCache,
		logger:           logger,
		securityDetector: security.NewDetector(),
		authLimiter:      ratelimit.NewLimiter(ratelimit.Config{Requests: opts.LoginRatePerMinute, Window: time.Minute}),
		writeLimiter:     ratelimit.NewLimiter(ratelimit.Config{Requests: opts.WriteRatePerMinute, Window: time.Minute}),
		appMetrics:       &appMetrics{uptime: time.Now()},
	}
	s.traceMiddleware = trace.NewMiddleware(logger, s.securityDetector.ExtractClientIP)
	s.authLimiter.Start()
	s.writeLimiter.Start()

	mux := http.NewServeMux()
	s.routes(mux)

	var handler http.Handler = mux
	handler = security.CORS(security.DefaultCORSConfig(opts.FrontendURL))(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.traceMiddleware.Middleware(handler)
	handler = s.securityDetector.Middleware(handler)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	requireUser := auth.RequireUser(s.accounts, s.writeError)
	limitWrites := s.writeLimiter.Middleware(s.ownerKey, s.writeRateLimited)
	limitAuth := s.authLimiter.Middleware(s.securityDetector.ExtractClientIP, s.writeRateLimited)

	protected := func(h http.HandlerFunc) http.Handler { return requireUser(h) }
	mutating := func(h http.HandlerFunc) http.Handler { return requireUser(limitWrites(h)) }

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.Handle("GET /api/transactions", protected(s.handleListTransactions))
	mux.Handle("GET /api/transactions/stats/summary", protected(s.handleSummary))
	mux.Handle("GET /api/transactions/{id}", protected(s.handleGetTransaction))
	mux.Handle("POST /api/transactions", mutating(s.handleCreateTransaction))
	mux.Handle("PUT /api/transactions/{id}", mutating(s.handleUpdateTransaction))
	mux.Handle("DELETE /api/transactions/{id}", mutating(s.handleDeleteTransaction))

	mux.Handle("POST /api/auth/register", limitAuth(http.HandlerFunc(s.handleRegister)))
	mux.Handle("POST /api/auth/login", limitAuth(http.HandlerFunc(s.handleLogin)))
	mux.Handle("GET /api/auth/me", protected(s.handleMe))

	mux.HandleFunc("/", s.handleNotFound)
}

// ownerKey rate limits writes per user, falling back to the client address.
func (s *Server) ownerKey(r *http.Request) string {
	if u, ok := auth.UserFromContext(r.Context()); ok {
		return "user:" + u.ID
	}
	return "ip:" + s.securityDetector.ExtractClientIP(r)
}

// Shutdown stops the limiter cleanup loops and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.authLimiter.Stop()
		s.writeLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
