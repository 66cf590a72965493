package bootstrap

import (
	"context"
	"path/filepath"
	"testing"

	"assesseez/internal/bootstrap/config"
	"assesseez/internal/bootstrap/database"
	"assesseez/internal/infrastructure/persistence/schema"
	"assesseez/internal/infrastructure/persistence/sqlite/model"
)

func TestInitSchemaIsRepeatable(t *testing.T) {
	ctx := context.Background()
	cfg := config.DatabaseConfig{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "app.sqlite")}
	db, err := database.Open(ctx, cfg)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	app := &App{Config: config.Config{Database: cfg}, DB: db}

	for i := 0; i < 2; i++ {
		if err := app.InitSchema(ctx); err != nil {
			t.Fatalf("InitSchema() run %d error = %v", i+1, err)
		}
	}

	version, err := schema.CurrentVersion(ctx, db)
	if err != nil {
		t.Fatalf("CurrentVersion() error = %v", err)
	}
	if version != schema.Version {
		t.Fatalf("version = %q, want %q", version, schema.Version)
	}
	for _, table := range model.All() {
		if !db.Migrator().HasTable(table) {
			t.Fatalf("table for %T was not created", table)
		}
	}

	if err := app.Close(ctx); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}
