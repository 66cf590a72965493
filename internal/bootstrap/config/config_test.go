package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(context.Background(), "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Driver != "sqlite" {
		t.Fatalf("database.driver = %q, want sqlite", cfg.Database.Driver)
	}
	if cfg.Upload.MaxUploadBytes() != 1000*1024*1024 {
		t.Fatalf("MaxUploadBytes() = %d", cfg.Upload.MaxUploadBytes())
	}
	if len(cfg.Upload.AllowedExtensions) != 12 {
		t.Fatalf("allowed extensions = %v", cfg.Upload.AllowedExtensions)
	}
	if cfg.Mail.Timeout != 10*time.Second {
		t.Fatalf("mail.timeout = %s", cfg.Mail.Timeout)
	}
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "app:\n  env: test\ndatabase:\n  dsn: file.sqlite\nmail:\n  provider: none\n  timeout: 3s\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("AEZ_DATABASE_DSN", "env.sqlite")

	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.App.Env != "test" {
		t.Fatalf("app.env = %q, want test", cfg.App.Env)
	}
	if cfg.Database.DSN != "env.sqlite" {
		t.Fatalf("database.dsn = %q, want env.sqlite", cfg.Database.DSN)
	}
	if cfg.Mail.Provider != "none" || cfg.Mail.Timeout != 3*time.Second {
		t.Fatalf("mail = %+v", cfg.Mail)
	}
}

func TestLoadRejectsSendgridWithoutKey(t *testing.T) {
	t.Setenv("AEZ_MAIL_PROVIDER", "sendgrid")

	if _, err := Load(context.Background(), ""); err == nil {
		t.Fatalf("Load() expected error for sendgrid without api key")
	}
}
