package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"expensetracker/internal/core"
	"expensetracker/internal/storage"
)

// Store keeps users and transactions in process memory.
type Store struct {
	mu    sync.RWMutex
	now   func() time.Time
	users map[string]core.User
	items map[string]core.Transaction
	seq   int64
	// insertion order, used to break ties between equal dates
	order map[string]int64
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		now:   time.Now,
		users: make(map[string]core.User),
		items: make(map[string]core.Transaction),
		order: make(map[string]int64),
	}
}

// WithClock replaces the time source; used by tests that need distinct timestamps.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func (s *Store) Insert(_ context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	t.ID = uuid.NewString()
	t.CreatedAt = now
	t.UpdatedAt = now
	s.seq++
	s.items[t.ID] = t
	s.order[t.ID] = s.seq
	return t, nil
}

func (s *Store) Get(_ context.Context, owner, id string) (core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.items[id]
	if !ok || t.OwnerID != owner {
		return core.Transaction{}, core.ErrNotFound
	}
	return t, nil
}

func (s *Store) Update(_ context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.items[t.ID]
	if !ok || prev.OwnerID != t.OwnerID {
		return core.Transaction{}, core.ErrNotFound
	}
	t.CreatedAt = prev.CreatedAt
	t.UpdatedAt = s.now().UTC()
	s.items[t.ID] = t
	return t, nil
}

func (s *Store) Delete(_ context.Context, owner, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.items[id]
	if !ok || t.OwnerID != owner {
		return core.ErrNotFound
	}
	delete(s.items, id)
	delete(s.order, id)
	return nil
}

func (s *Store) ListByOwner(_ context.Context, owner string, offset, limit int) ([]core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := s.ownedLocked(owner)
	sort.SliceStable(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		// newer insertions first, matching created_at DESC
		return s.order[a.ID] > s.order[b.ID]
	})
	if offset < 0 {
		offset = 0
	}
	if offset >= len(all) || limit <= 0 {
		return []core.Transaction{}, nil
	}
	end := len(all)
	if limit < end-offset {
		end = offset + limit
	}
	return append([]core.Transaction(nil), all[offset:end]...), nil
}

func (s *Store) CountByOwner(_ context.Context, owner string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, t := range s.items {
		if t.OwnerID == owner {
			n++
		}
	}
	return n, nil
}

func (s *Store) AllByOwner(_ context.Context, owner string) ([]core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ownedLocked(owner), nil
}

func (s *Store) ownedLocked(owner string) []core.Transaction {
	out := []core.Transaction{}
	for _, t := range s.items {
		if t.OwnerID == owner {
			out = append(out, t)
		}
	}
	return out
}

func (s *Store) CreateUser(_ context.Context, u core.User) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return core.User{}, fmt.Errorf("create user %s: %w", u.Email, core.ErrConflict)
		}
	}
	u.ID = uuid.NewString()
	u.CreatedAt = s.now().UTC()
	s.users[u.ID] = u
	return u, nil
}

func (s *Store) UserByEmail(_ context.Context, email string) (core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return core.User{}, core.ErrNotFound
}

func (s *Store) UserByID(_ context.Context, id string) (core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return core.User{}, core.ErrNotFound
	}
	return u, nil
}
