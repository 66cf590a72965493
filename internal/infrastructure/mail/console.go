package mail

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"

	"assesseez/internal/bootstrap/logging"
	"assesseez/internal/errs"
	"assesseez/internal/ports"
)

// ConsoleSender prints messages instead of sending them; used for local runs.
type ConsoleSender struct {
	mu  sync.Mutex
	out io.Writer
}

func NewConsoleSender(out io.Writer) *ConsoleSender {
	if out == nil {
		out = os.Stderr
	}
	return &ConsoleSender{out: out}
}

func (s *ConsoleSender) Send(ctx context.Context, msg ports.EmailMessage) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}
	if strings.TrimSpace(msg.ToAddress) == "" {
		return errors.New("recipient address is required")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "---- email to %s <%s>\n", msg.ToName, msg.ToAddress)
	fmt.Fprintf(&b, "subject: %s\n", msg.Subject)
	if msg.TemplateID != "" {
		fmt.Fprintf(&b, "template: %s\n", msg.TemplateID)
	}
	keys := make([]string, 0, len(msg.Data))
	for key := range msg.Data {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(&b, "  %s: %v\n", key, msg.Data[key])
	}
	if msg.Body != "" {
		b.WriteString(msg.Body)
		b.WriteString("\n")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := io.WriteString(s.out, b.String()); err != nil {
		return errs.Wrap(err, "write console email")
	}

	logging.Info(
		logging.WithAttrs(ctx, slog.String("component", "mail.console")),
		"email printed",
		slog.String("to", msg.ToAddress),
		slog.String("template", msg.TemplateID),
	)
	return nil
}
