package database

import (
	"context"
	"path/filepath"
	"testing"

	"assesseez/internal/bootstrap/config"
)

func TestOpenSQLiteCreatesDirectory(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "nested", "assesseez.sqlite")

	db, err := Open(context.Background(), config.DatabaseConfig{Driver: "sqlite", DSN: dsn})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	var enabled int
	if err := db.Raw("PRAGMA foreign_keys").Scan(&enabled).Error; err != nil {
		t.Fatalf("query pragma: %v", err)
	}
	if enabled != 1 {
		t.Fatalf("foreign_keys = %d, want 1", enabled)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), config.DatabaseConfig{Driver: "oracle", DSN: "x"}); err == nil {
		t.Fatalf("Open() expected error for unsupported driver")
	}
}

func TestSQLiteDSN(t *testing.T) {
	if got := sqliteDSN("a.sqlite"); got != "a.sqlite?_pragma=foreign_keys(1)" {
		t.Fatalf("sqliteDSN() = %q", got)
	}
	if got := sqliteDSN("file:a.sqlite?cache=shared"); got != "file:a.sqlite?cache=shared&_pragma=foreign_keys(1)" {
		t.Fatalf("sqliteDSN() = %q", got)
	}
}
