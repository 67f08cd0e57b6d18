package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"expensetracker/internal/core"

	_ "modernc.org/sqlite"
)

// timeLayout is fixed-width UTC so that TEXT ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const transactionColumns = `id, owner_id, title, amount, category, date, notes, created_at, updated_at`

// SQLiteRepository implements Store on a SQLite database.
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

var _ Store = (*SQLiteRepository)(nil)

// NewSQLiteRepository opens (creating if needed) the database at dbPath and migrates it.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

	if err := RunMigrations(dsn); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite serializes writers; one connection avoids SQLITE_BUSY under load.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) Insert(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	now := r.now().UTC()
	t.ID = uuid.NewString()
	t.CreatedAt = now
	t.UpdatedAt = now
	t.Date = t.Date.UTC()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (`+transactionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.OwnerID, t.Title, t.Amount, string(t.Category),
		formatTime(t.Date), t.Notes, formatTime(t.CreatedAt), formatTime(t.UpdatedAt))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	slog.DebugContext(ctx, "Transaction saved to SQLite",
		"transaction_id", t.ID,
		"owner_id", t.OwnerID,
		"amount", t.Amount,
		"category", t.Category)

	return t, nil
}

func (r *SQLiteRepository) Get(ctx context.Context, owner, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ? AND owner_id = ?`, id, owner)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func (r *SQLiteRepository) Update(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t.UpdatedAt = r.now().UTC()
	t.Date = t.Date.UTC()

	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions
		    SET title = ?, amount = ?, category = ?, date = ?, notes = ?, updated_at = ?
		  WHERE id = ? AND owner_id = ?`,
		t.Title, t.Amount, string(t.Category), formatTime(t.Date), t.Notes, formatTime(t.UpdatedAt),
		t.ID, t.OwnerID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	} else if n == 0 {
		return core.Transaction{}, core.ErrNotFound
	}

	// Re-read so CreatedAt comes from the stored row.
	return r.Get(ctx, t.OwnerID, t.ID)
}

func (r *SQLiteRepository) Delete(ctx context.Context, owner, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ? AND owner_id = ?`, id, owner)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// ListByOwner returns up to limit records after offset. A negative offset reads
// from the start and a non-positive limit yields no records.
func (r *SQLiteRepository) ListByOwner(ctx context.Context, owner string, offset, limit int) ([]core.Transaction, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		return []core.Transaction{}, nil
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		  WHERE owner_id = ?
		  ORDER BY date DESC, created_at DESC, id
		  LIMIT ? OFFSET ?`, owner, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return collectTransactions(rows)
}

func (r *SQLiteRepository) CountByOwner(ctx context.Context, owner string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE owner_id = ?`, owner).Scan(&n); err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) AllByOwner(ctx context.Context, owner string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE owner_id = ?`, owner)
	if err != nil {
		return nil, fmt.Errorf("scan transactions: %w", err)
	}
	return collectTransactions(rows)
}

func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	u.ID = uuid.NewString()
	u.CreatedAt = r.now().UTC()
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, password_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.PasswordHash, formatTime(u.CreatedAt))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return core.User{}, fmt.Errorf("create user %s: %w", u.Email, core.ErrConflict)
		}
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (r *SQLiteRepository) UserByEmail(ctx context.Context, email string) (core.User, error) {
	return r.queryUser(ctx, `WHERE email = ?`, strings.ToLower(strings.TrimSpace(email)))
}

func (r *SQLiteRepository) UserByID(ctx context.Context, id string) (core.User, error) {
	return r.queryUser(ctx, `WHERE id = ?`, id)
}

func (r *SQLiteRepository) queryUser(ctx context.Context, where string, arg any) (core.User, error) {
	var (
		u       core.User
		created string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, created_at FROM users `+where, arg).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	if u.CreatedAt, err = parseTime(created); err != nil {
		return core.User{}, err
	}
	return u, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t                      core.Transaction
		category               string
		date, created, updated string
	)
	if err := row.Scan(&t.ID, &t.OwnerID, &t.Title, &t.Amount, &category,
		&date, &t.Notes, &created, &updated); err != nil {
		return core.Transaction{}, err
	}
	t.Category = core.Category(category)
	if t.Category == "" {
		t.Category = core.DefaultCategory
	}

	var err error
	if t.Date, err = parseTime(date); err != nil {
		return core.Transaction{}, err
	}
	if t.CreatedAt, err = parseTime(created); err != nil {
		return core.Transaction{}, err
	}
	if t.UpdatedAt, err = parseTime(updated); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

func collectTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	defer rows.Close()
	out := []core.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored time %q: %w", s, err)
	}
	return t, nil
}
