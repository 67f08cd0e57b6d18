// Package storagetest holds behaviour tests shared by every Store implementation.
package storagetest

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"expensetracker/internal/core"
	"expensetracker/internal/storage"
)

// Run exercises the owner scoping, ordering and paging contract of a Store.
func Run(t *testing.T, newStore func(t *testing.T) storage.Store) {
	t.Run("insert and get", func(t *testing.T) { testInsertGet(t, newStore(t)) })
	t.Run("owner scoping", func(t *testing.T) { testOwnerScoping(t, newStore(t)) })
	t.Run("list ordering and paging", func(t *testing.T) { testListPaging(t, newStore(t)) })
	t.Run("update and delete", func(t *testing.T) { testUpdateDelete(t, newStore(t)) })
	t.Run("users", func(t *testing.T) { testUsers(t, newStore(t)) })
}

func mustUser(t *testing.T, s storage.Store, email string) core.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), core.User{Name: "n", Email: email, PasswordHash: "h"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func mustInsert(t *testing.T, s storage.Store, owner, title string, date time.Time) core.Transaction {
	t.Helper()
	tx, err := s.Insert(context.Background(), core.Transaction{
		OwnerID: owner, Title: title, Amount: 1, Category: core.Food, Date: date,
	})
	if err != nil {
		t.Fatalf("insert %s: %v", title, err)
	}
	return tx
}

func testInsertGet(t *testing.T, s storage.Store) {
	ctx := context.Background()
	u := mustUser(t, s, "a@example.com")
	date := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	tx := mustInsert(t, s, u.ID, "Lunch", date)
	if tx.ID == "" || tx.CreatedAt.IsZero() || tx.UpdatedAt.IsZero() {
		t.Fatalf("store must assign id and timestamps: %+v", tx)
	}
	got, err := s.Get(ctx, u.ID, tx.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "Lunch" || !got.Date.Equal(date) || got.Category != core.Food || got.Amount != 1 {
		t.Fatalf("unexpected record: %+v", got)
	}
	if _, err := s.Get(ctx, u.ID, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func testOwnerScoping(t *testing.T, s storage.Store) {
	ctx := context.Background()
	alice := mustUser(t, s, "alice@example.com")
	bob := mustUser(t, s, "bob@example.com")
	tx := mustInsert(t, s, alice.ID, "Private", time.Now())

	if _, err := s.Get(ctx, bob.ID, tx.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("foreign get must be not found, got %v", err)
	}
	foreign := tx
	foreign.OwnerID = bob.ID
	foreign.Title = "Hijack"
	if _, err := s.Update(ctx, foreign); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("foreign update must be not found, got %v", err)
	}
	if err := s.Delete(ctx, bob.ID, tx.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("foreign delete must be not found, got %v", err)
	}
	if n, _ := s.CountByOwner(ctx, bob.ID); n != 0 {
		t.Fatalf("bob must see nothing, count=%d", n)
	}
	items, _ := s.ListByOwner(ctx, bob.ID, 0, 10)
	if len(items) != 0 {
		t.Fatalf("bob must list nothing, got %v", items)
	}
	got, err := s.Get(ctx, alice.ID, tx.ID)
	if err != nil || got.Title != "Private" {
		t.Fatalf("alice record must be untouched: %+v err=%v", got, err)
	}
}

func testListPaging(t *testing.T, s storage.Store) {
	ctx := context.Background()
	u := mustUser(t, s, "p@example.com")
	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		mustInsert(t, s, u.ID, string(rune('a'+i)), base.AddDate(0, 0, i))
	}

	first, err := s.ListByOwner(ctx, u.ID, 0, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(first) != 2 || first[0].Title != "e" || first[1].Title != "d" {
		t.Fatalf("expected date descending e,d got %v", titles(first))
	}
	last, _ := s.ListByOwner(ctx, u.ID, 4, 2)
	if len(last) != 1 || last[0].Title != "a" {
		t.Fatalf("expected final a, got %v", titles(last))
	}
	beyond, _ := s.ListByOwner(ctx, u.ID, 10, 2)
	if len(beyond) != 0 {
		t.Fatalf("expected empty page beyond end, got %v", titles(beyond))
	}
	huge, err := s.ListByOwner(ctx, u.ID, 3, math.MaxInt)
	if err != nil || len(huge) != 2 || huge[0].Title != "b" {
		t.Fatalf("expected b,a for an unbounded limit, got %v err=%v", titles(huge), err)
	}
	far, err := s.ListByOwner(ctx, u.ID, math.MaxInt, math.MaxInt)
	if err != nil || len(far) != 0 {
		t.Fatalf("expected empty page at the maximum offset, got %v err=%v", titles(far), err)
	}
	negative, err := s.ListByOwner(ctx, u.ID, -10, 2)
	if err != nil || len(negative) != 2 || negative[0].Title != "e" {
		t.Fatalf("expected a negative offset to read from the start, got %v err=%v", titles(negative), err)
	}
	if n, _ := s.CountByOwner(ctx, u.ID); n != 5 {
		t.Fatalf("expected count 5, got %d", n)
	}
	all, _ := s.AllByOwner(ctx, u.ID)
	if len(all) != 5 {
		t.Fatalf("expected 5 records, got %d", len(all))
	}
}

func testUpdateDelete(t *testing.T, s storage.Store) {
	ctx := context.Background()
	u := mustUser(t, s, "u@example.com")
	tx := mustInsert(t, s, u.ID, "Old", time.Now())

	tx.Title = "New"
	tx.Amount = 0
	tx.Category = core.Rent
	tx.Notes = "n"
	updated, err := s.Update(ctx, tx)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != "New" || updated.Amount != 0 || updated.Category != core.Rent || updated.Notes != "n" {
		t.Fatalf("unexpected update result: %+v", updated)
	}
	if !updated.CreatedAt.Equal(tx.CreatedAt) {
		t.Fatalf("createdAt must be preserved: %v vs %v", updated.CreatedAt, tx.CreatedAt)
	}

	if err := s.Delete(ctx, u.ID, tx.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, u.ID, tx.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if err := s.Delete(ctx, u.ID, tx.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("second delete must be not found, got %v", err)
	}
}

func testUsers(t *testing.T, s storage.Store) {
	ctx := context.Background()
	u := mustUser(t, s, "Mixed@Example.com")
	if u.Email != "mixed@example.com" {
		t.Fatalf("email must be normalized, got %q", u.Email)
	}
	if _, err := s.CreateUser(ctx, core.User{Name: "x", Email: "mixed@example.com", PasswordHash: "h"}); !errors.Is(err, core.ErrConflict) {
		t.Fatalf("duplicate email must conflict, got %v", err)
	}
	byEmail, err := s.UserByEmail(ctx, "MIXED@example.com")
	if err != nil || byEmail.ID != u.ID {
		t.Fatalf("lookup by email: %+v err=%v", byEmail, err)
	}
	byID, err := s.UserByID(ctx, u.ID)
	if err != nil || byID.Email != u.Email || byID.PasswordHash != "h" {
		t.Fatalf("lookup by id: %+v err=%v", byID, err)
	}
	if _, err := s.UserByID(ctx, "nope"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func titles(items []core.Transaction) []string {
	out := make([]string, len(items))
	for i, t := range items {
		out[i] = t.Title
	}
	return out
}
