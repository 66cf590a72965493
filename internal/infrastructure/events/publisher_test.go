package events

import (
	"context"
	"errors"
	"testing"

	"assesseez/internal/bootstrap/config"
)

type fakeConn struct {
	subjects []string
	payloads [][]byte
	flushes  int
	drained  bool
	err      error
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.subjects = append(f.subjects, subject)
	f.payloads = append(f.payloads, data)
	return nil
}

func (f *fakeConn) FlushWithContext(context.Context) error {
	f.flushes++
	return nil
}

func (f *fakeConn) Drain() error {
	f.drained = true
	return nil
}

func TestNewPublisherWithoutURLIsNoop(t *testing.T) {
	publisher, closeFn, err := NewPublisher(context.Background(), config.EventsConfig{})
	if err != nil {
		t.Fatalf("NewPublisher() error = %v", err)
	}
	if _, ok := publisher.(NoopPublisher); !ok {
		t.Fatalf("NewPublisher() = %T, want NoopPublisher", publisher)
	}
	if err := publisher.Publish(context.Background(), "notification.created", nil); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if err := closeFn(); err != nil {
		t.Fatalf("close error = %v", err)
	}
}

func TestNatsPublisherPrefixesSubject(t *testing.T) {
	conn := &fakeConn{}
	publisher := &NatsPublisher{conn: conn, prefix: "assesseez"}

	if err := publisher.Publish(context.Background(), "notification.created", []byte(`{"id":"n-1"}`)); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if len(conn.subjects) != 1 || conn.subjects[0] != "assesseez.notification.created" {
		t.Fatalf("subjects = %v", conn.subjects)
	}
	if conn.flushes != 1 {
		t.Fatalf("flushes = %d, want 1", conn.flushes)
	}
	if err := publisher.Publish(context.Background(), " ", nil); err == nil {
		t.Fatalf("Publish() expected error for empty subject")
	}
	if err := publisher.Close(); err != nil || !conn.drained {
		t.Fatalf("Close() = %v, drained=%v", err, conn.drained)
	}
}

func TestNatsPublisherWrapsErrors(t *testing.T) {
	boom := errors.New("nats: connection closed")
	publisher := &NatsPublisher{conn: &fakeConn{err: boom}}

	if err := publisher.Publish(context.Background(), "x", nil); !errors.Is(err, boom) {
		t.Fatalf("Publish() error = %v, want wrapped %v", err, boom)
	}
}
