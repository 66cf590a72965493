package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestWithAttrsOverridesByKey(t *testing.T) {
	ctx := WithAttrs(context.Background(), slog.String("component", "a"), slog.String("command", "x"))
	ctx = WithAttrs(ctx, slog.String("component", "b"))

	attrs := Attrs(ctx)
	if len(attrs) != 2 {
		t.Fatalf("Attrs() len = %d, want 2", len(attrs))
	}
	if attrs[0].Value.String() != "b" {
		t.Fatalf("component = %q, want b", attrs[0].Value.String())
	}
}

func TestWithRequestWritesIdentity(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	ctx := WithLogger(context.Background(), logger)
	ctx = WithRequest(ctx, "p-1", "b-1", "")
	Warn(ctx, "email failed", slog.String("recipient", "a@example.com"))

	out := buf.String()
	for _, want := range []string{"person_id=p-1", "business_id=b-1", "recipient=a@example.com", "level=WARN"} {
		if !strings.Contains(out, want) {
			t.Fatalf("log output %q missing %q", out, want)
		}
	}
	if strings.Contains(out, "qualification_id") {
		t.Fatalf("empty qualification id should be skipped: %q", out)
	}
}

func TestLoggerFallsBackAndAttrsAreCopies(t *testing.T) {
	if Logger(context.Background()) == nil {
		t.Fatalf("Logger() without attached logger = nil")
	}
	if got := Attrs(context.Background()); got != nil {
		t.Fatalf("Attrs() on bare context = %v", got)
	}

	var buf bytes.Buffer
	ctx := WithAttrs(context.Background(), slog.String("component", "workflow"))
	ctx = WithLogger(ctx, slog.New(slog.NewTextHandler(&buf, nil)))

	attrs := Attrs(ctx)
	attrs[0] = slog.String("component", "changed")
	Info(ctx, "evidence submitted", slog.String("component", "evidence"))

	if !strings.Contains(buf.String(), "component=evidence") {
		t.Fatalf("log output %q missing call-site override", buf.String())
	}
	if got := Attrs(ctx)[0].Value.String(); got != "workflow" {
		t.Fatalf("context attrs mutated through copy: %q", got)
	}
}
