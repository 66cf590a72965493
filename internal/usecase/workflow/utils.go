package workflow

import (
	"context"
	"errors"
	"strings"

	domain "assesseez/internal/domain/workflow"
	"assesseez/internal/errs"
	"assesseez/internal/ports"
)

const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var errDependencyMissing = errors.New("workflow service dependency is missing")

func (s *Service) stamp() string {
	return s.now().UTC().Format(timeLayout)
}

func checkContext(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}
	return nil
}

func (s *Service) checkReady() error {
	if s == nil || s.directory == nil || s.structure == nil || s.assignments == nil || s.uow == nil {
		return errDependencyMissing
	}
	return nil
}

// lookup maps a missing row onto the domain NotFound kind and stamps other
// storage errors with a stack.
func lookup(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ports.ErrRecordNotFound) {
		return domain.NotFound(what)
	}
	return errs.WithStack(errs.Wrapf(err, "load %s", what))
}

func storage(err error, op string) error {
	if err == nil {
		return nil
	}
	return errs.WithStack(errs.Wrap(err, op))
}

func isNotFound(err error) bool {
	return errors.Is(err, ports.ErrRecordNotFound)
}

// deliver runs best-effort delivery after commit and merges the warnings.
func (s *Service) deliver(ctx context.Context, pending []ports.PendingDelivery, warnings []string) []string {
	if s.notifier == nil || len(pending) == 0 {
		return warnings
	}
	return append(warnings, s.notifier.Deliver(ctx, pending)...)
}

func (s *Service) record(ctx context.Context, notice ports.Notice) (ports.PendingDelivery, error) {
	if s.notifier == nil {
		return ports.PendingDelivery{}, errDependencyMissing
	}
	pending, err := s.notifier.Record(ctx, notice)
	if err != nil {
		return ports.PendingDelivery{}, storage(err, "record notification")
	}
	return pending, nil
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, raw := range values {
		value := strings.TrimSpace(raw)
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}
