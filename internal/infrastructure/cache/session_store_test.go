package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"assesseez/internal/infrastructure/persistence/sqlite/model"
)

func setupSessionStore(t *testing.T) *SessionStore {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "session.sqlite")
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	if err := db.AutoMigrate(&model.SessionKV{}); err != nil {
		t.Fatalf("auto migrate session_kv: %v", err)
	}

	return NewSessionStore(db)
}

func TestSessionStoreSetGetDelete(t *testing.T) {
	store := setupSessionStore(t)
	ctx := context.Background()
	key := SelectedBusinessKey("person-1")

	if err := store.Set(ctx, key, "business-a", 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	value, found, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !found || value != "business-a" {
		t.Fatalf("Get() = %q, found=%v", value, found)
	}

	if err := store.Set(ctx, key, "business-b", 0); err != nil {
		t.Fatalf("Set(update) error = %v", err)
	}
	value, found, err = store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !found || value != "business-b" {
		t.Fatalf("Get() after update = %q, found=%v", value, found)
	}

	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, found, err = store.Get(ctx, key); err != nil || found {
		t.Fatalf("Get() after delete found=%v err=%v", found, err)
	}
}

func TestSessionStoreExpiry(t *testing.T) {
	store := setupSessionStore(t)
	ctx := context.Background()

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	if err := store.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if _, found, err := store.Get(ctx, "k"); err != nil || !found {
		t.Fatalf("Get() before expiry found=%v err=%v", found, err)
	}

	now = now.Add(2 * time.Minute)
	if _, found, err := store.Get(ctx, "k"); err != nil || found {
		t.Fatalf("Get() after expiry found=%v err=%v", found, err)
	}
}

func TestSessionStoreRejectsEmptyKey(t *testing.T) {
	store := setupSessionStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "", "v", 0); err == nil {
		t.Fatalf("Set() expected error for empty key")
	}
	if _, _, err := store.Get(ctx, " "); err == nil {
		t.Fatalf("Get() expected error for empty key")
	}
	if err := store.Delete(ctx, ""); err == nil {
		t.Fatalf("Delete() expected error for empty key")
	}
}
