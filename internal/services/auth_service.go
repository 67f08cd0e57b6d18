package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"expensetracker/internal/auth"
	"expensetracker/internal/cache"
	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
	"expensetracker/internal/storage"
)

var (
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Session is returned by Register and Login.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      core.User `json:"user"`
}

// AuthService registers accounts, logs them in and resolves bearer tokens.
type AuthService struct {
	users  storage.UserStore
	tokens *auth.TokenIssuer
	cache  cache.Cache[core.User]
	logger *applog.Logger
	now    func() time.Time
}

// NewAuthService wires the service. userCache may be nil to always hit the store.
func NewAuthService(users storage.UserStore, tokens *auth.TokenIssuer, userCache cache.Cache[core.User], logger *applog.Logger) *AuthService {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &AuthService{
		users:  users,
		tokens: tokens,
		cache:  userCache,
		logger: logger.WithComponent(applog.ComponentAuth),
		now:    time.Now,
	}
}

func (s *AuthService) Register(ctx context.Context, name, email, password string) (Session, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" || password == "" {
		return Session{}, core.Invalid("", errors.New("Please provide name, email, and password"))
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return Session{}, core.Invalid("email", errors.New("invalid email address"))
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return Session{}, err
	}

	user, err := s.users.CreateUser(ctx, core.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	})
	if errors.Is(err, core.ErrConflict) {
		return Session{}, fmt.Errorf("%w: %w", core.ErrConflict, ErrUserExists)
	}
	if err != nil {
		return Session{}, fmt.Errorf("create user: %w", err)
	}

	s.logger.InfoContext(ctx, "User registered",
		applog.FieldOperation, applog.OpRegister,
		applog.FieldOwnerID, user.ID)
	return s.session(user)
}

// Login checks credentials. Unknown emails and wrong passwords are indistinguishable.
func (s *AuthService) Login(ctx context.Context, email, password string) (Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return Session{}, core.Invalid("", errors.New("Please provide email and password"))
	}

	user, err := s.users.UserByEmail(ctx, email)
	if errors.Is(err, core.ErrNotFound) {
		return Session{}, fmt.Errorf("%w: %w", core.ErrUnauthorized, ErrInvalidCredentials)
	}
	if err != nil {
		return Session{}, fmt.Errorf("find user: %w", err)
	}
	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		s.logger.WarnContext(ctx, "Login rejected",
			applog.FieldOperation, applog.OpLogin,
			applog.FieldOwnerID, user.ID,
			applog.FieldErrorType, applog.ErrorTypeAuth)
		return Session{}, fmt.Errorf("%w: %w", core.ErrUnauthorized, ErrInvalidCredentials)
	}

	s.logger.InfoContext(ctx, "User logged in",
		applog.FieldOperation, applog.OpLogin,
		applog.FieldOwnerID, user.ID)
	return s.session(user)
}

// Authenticate resolves a bearer token to a user that still exists.
func (s *AuthService) Authenticate(ctx context.Context, token string) (core.User, error) {
	userID, err := s.tokens.Validate(token)
	if err != nil {
		return core.User{}, err
	}
	return s.Me(ctx, userID)
}

// Me returns the account for userID, served from the cache when possible.
func (s *AuthService) Me(ctx context.Context, userID string) (core.User, error) {
	if s.cache != nil {
		if u, ok := s.cache.Get(userID); ok {
			return u, nil
		}
	}
	user, err := s.users.UserByID(ctx, userID)
	if errors.Is(err, core.ErrNotFound) {
		return core.User{}, fmt.Errorf("%w: user no longer exists", core.ErrUnauthorized)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("find user: %w", err)
	}
	if s.cache != nil {
		s.cache.Set(userID, user)
	}
	return user, nil
}

func (s *AuthService) session(user core.User) (Session, error) {
	token, expiresAt, err := s.tokens.Issue(user.ID)
	if err != nil {
		return Session{}, err
	}
	if s.cache != nil {
		s.cache.Set(user.ID, user)
	}
	return Session{Token: token, ExpiresAt: expiresAt, User: user}, nil
}
