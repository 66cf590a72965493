package errs

import (
	"errors"
	"fmt"
	"log/slog"

	pkgerrors "github.com/pkg/errors"
)

// Wrap adds context and preserves the error chain (errors.Is/As works).
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf adds formatted context and preserves the error chain.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}

	args = append(args, err)
	return fmt.Errorf(format+": %w", args...)
}

type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

// WithStack records the call stack once, at the boundary where an unexpected
// infrastructure error first enters the workflow layer.
func WithStack(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := findStack(err); ok {
		return err
	}
	return pkgerrors.WithStack(err)
}

// Stack returns the formatted stack recorded by WithStack, if any.
func Stack(err error) (string, bool) {
	st, ok := findStack(err)
	if !ok {
		return "", false
	}
	return fmt.Sprintf("%+v", st.StackTrace()), true
}

func findStack(err error) (stackTracer, bool) {
	for e := err; e != nil; e = errors.Unwrap(e) {
		if st, ok := e.(stackTracer); ok {
			return st, true
		}
	}
	return nil, false
}

// Usage: slog.Any("err", errs.Loggable(err))
type loggable struct{ err error }

func Loggable(err error) slog.LogValuer { return loggable{err: err} }

func (l loggable) LogValue() slog.Value {
	if l.err == nil {
		return slog.GroupValue()
	}

	attrs := []slog.Attr{
		slog.String("message", l.err.Error()),
		slog.Any("chain", ErrorChainStrings(l.err)),
	}
	if stack, ok := Stack(l.err); ok {
		attrs = append(attrs, slog.String("stack", stack))
	}
	return slog.GroupValue(attrs...)
}

// ErrorChainStrings returns the unwrap chain as strings (outer -> inner).
func ErrorChainStrings(err error) []string {
	if err == nil {
		return nil
	}

	out := make([]string, 0, 8)
	for e := err; e != nil; e = errors.Unwrap(e) {
		out = append(out, e.Error())
	}
	return out
}
