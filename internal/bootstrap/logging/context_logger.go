// Package logging carries a slog logger and the identity of the current
// workflow call (person, business, qualification) through context.Context,
// so every package logs with the same request fields without passing them
// around explicitly.
package logging

import (
	"context"
	"log/slog"
	"os"
	"slices"
	"sync"
)

type scopeKey struct{}

// scope is the logging state stored on a context. It is never mutated after
// it is attached; derived contexts get a copy.
type scope struct {
	logger *slog.Logger
	attrs  []slog.Attr
}

var stderrLogger = sync.OnceValue(func() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
})

func scopeOf(ctx context.Context) scope {
	if ctx == nil {
		return scope{}
	}
	s, _ := ctx.Value(scopeKey{}).(scope)
	return s
}

func withScope(ctx context.Context, s scope) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, scopeKey{}, s)
}

// WithLogger makes logger the destination for every later call on ctx.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	if logger == nil {
		if ctx == nil {
			return context.Background()
		}
		return ctx
	}
	s := scopeOf(ctx)
	s.logger = logger
	return withScope(ctx, s)
}

// WithAttrs adds fields to every later log line. A field with a key that is
// already present replaces the earlier value in place.
func WithAttrs(ctx context.Context, attrs ...slog.Attr) context.Context {
	if len(attrs) == 0 {
		if ctx == nil {
			return context.Background()
		}
		return ctx
	}
	s := scopeOf(ctx)
	s.attrs = upsertAttrs(s.attrs, attrs)
	return withScope(ctx, s)
}

// WithRequest tags the context with the caller of a workflow operation.
// Empty identifiers are left out.
func WithRequest(ctx context.Context, personID string, businessID string, qualificationID string) context.Context {
	identity := []struct{ key, value string }{
		{"person_id", personID},
		{"business_id", businessID},
		{"qualification_id", qualificationID},
	}
	attrs := make([]slog.Attr, 0, len(identity))
	for _, field := range identity {
		if field.value != "" {
			attrs = append(attrs, slog.String(field.key, field.value))
		}
	}
	return WithAttrs(ctx, attrs...)
}

// Logger returns the logger attached to ctx, or a text logger on stderr.
func Logger(ctx context.Context) *slog.Logger {
	if logger := scopeOf(ctx).logger; logger != nil {
		return logger
	}
	return stderrLogger()
}

// Attrs returns a copy of the fields attached to ctx.
func Attrs(ctx context.Context) []slog.Attr {
	attrs := scopeOf(ctx).attrs
	if len(attrs) == 0 {
		return nil
	}
	return slices.Clone(attrs)
}

func Info(ctx context.Context, msg string, attrs ...slog.Attr) {
	emit(ctx, slog.LevelInfo, msg, attrs)
}

func Warn(ctx context.Context, msg string, attrs ...slog.Attr) {
	emit(ctx, slog.LevelWarn, msg, attrs)
}

func Error(ctx context.Context, msg string, attrs ...slog.Attr) {
	emit(ctx, slog.LevelError, msg, attrs)
}

func emit(ctx context.Context, level slog.Level, msg string, attrs []slog.Attr) {
	s := scopeOf(ctx)
	logger := s.logger
	if logger == nil {
		logger = stderrLogger()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	logger.LogAttrs(ctx, level, msg, upsertAttrs(s.attrs, attrs)...)
}

// upsertAttrs returns a new slice holding current followed by extra, where an
// extra field whose key already exists overwrites that position instead.
func upsertAttrs(current []slog.Attr, extra []slog.Attr) []slog.Attr {
	out := make([]slog.Attr, len(current), len(current)+len(extra))
	copy(out, current)
	for _, attr := range extra {
		if attr.Key != "" {
			at := slices.IndexFunc(out, func(existing slog.Attr) bool { return existing.Key == attr.Key })
			if at >= 0 {
				out[at] = attr
				continue
			}
		}
		out = append(out, attr)
	}
	return out
}
