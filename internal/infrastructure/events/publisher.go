package events

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"assesseez/internal/bootstrap/config"
	"assesseez/internal/bootstrap/logging"
	"assesseez/internal/errs"
	"assesseez/internal/ports"
)

// NoopPublisher is used when no NATS server is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, _ string, _ []byte) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	return nil
}

type natsConn interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Drain() error
}

// NatsPublisher publishes workflow events as core NATS messages under a subject prefix.
type NatsPublisher struct {
	conn   natsConn
	prefix string
}

// NewPublisher connects to NATS when cfg.NatsURL is set, otherwise returns a NoopPublisher.
func NewPublisher(ctx context.Context, cfg config.EventsConfig) (ports.EventPublisher, func() error, error) {
	if ctx == nil {
		return nil, nil, errors.New("context is required")
	}
	url := strings.TrimSpace(cfg.NatsURL)
	if url == "" {
		return NoopPublisher{}, func() error { return nil }, nil
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "events.nats"))
	conn, err := nats.Connect(
		url,
		nats.Name("assesseez"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logging.Warn(logCtx, "nats disconnected", slog.Any("err", errs.Loggable(err)))
			}
		}),
	)
	if err != nil {
		return nil, nil, errs.Wrap(err, "connect nats")
	}
	logging.Info(logCtx, "nats connected", slog.String("url", conn.ConnectedUrlRedacted()))

	publisher := &NatsPublisher{conn: conn, prefix: strings.Trim(strings.TrimSpace(cfg.SubjectPrefix), ".")}
	return publisher, publisher.Close, nil
}

func (p *NatsPublisher) Publish(ctx context.Context, subject string, payload []byte) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}
	full := p.subject(subject)
	if full == "" {
		return errors.New("subject is required")
	}
	if err := p.conn.Publish(full, payload); err != nil {
		return errs.Wrapf(err, "publish %s", full)
	}
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return errs.Wrapf(err, "flush %s", full)
	}
	return nil
}

func (p *NatsPublisher) Close() error {
	if err := p.conn.Drain(); err != nil {
		return errs.Wrap(err, "drain nats")
	}
	return nil
}

func (p *NatsPublisher) subject(subject string) string {
	subject = strings.Trim(strings.TrimSpace(subject), ".")
	if subject == "" {
		return ""
	}
	if p.prefix == "" {
		return subject
	}
	return p.prefix + "." + subject
}
