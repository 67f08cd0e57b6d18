package storage

import (
	"context"

	"expensetracker/internal/core"
)

// TransactionStore persists transactions. Every read and write is scoped to
// an owner; a record owned by someone else behaves exactly like a missing one.
type TransactionStore interface {
	// Insert assigns ID, CreatedAt and UpdatedAt and returns the stored record.
	Insert(ctx context.Context, t core.Transaction) (core.Transaction, error)
	Get(ctx context.Context, owner, id string) (core.Transaction, error)
	// Update replaces all user fields of an existing record and refreshes UpdatedAt.
	Update(ctx context.Context, t core.Transaction) (core.Transaction, error)
	Delete(ctx context.Context, owner, id string) error
	// ListByOwner returns up to limit records sorted by date descending, skipping offset.
	ListByOwner(ctx context.Context, owner string, offset, limit int) ([]core.Transaction, error)
	CountByOwner(ctx context.Context, owner string) (int, error)
	// AllByOwner returns every record of owner in no guaranteed order.
	AllByOwner(ctx context.Context, owner string) ([]core.Transaction, error)
}

// UserStore persists accounts for the auth layer.
type UserStore interface {
	CreateUser(ctx context.Context, u core.User) (core.User, error)
	UserByEmail(ctx context.Context, email string) (core.User, error)
	UserByID(ctx context.Context, id string) (core.User, error)
}

// Store is the full record store used by the server.
type Store interface {
	TransactionStore
	UserStore
	Ping(ctx context.Context) error
	Close() error
}
