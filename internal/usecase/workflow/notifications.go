package workflow

import (
	"context"

	domain "assesseez/internal/domain/workflow"
	"assesseez/internal/ports"
)

// ListNotifications returns the caller's notifications in this business, newest first.
func (s *Service) ListNotifications(ctx context.Context, req domain.RequestContext, unreadOnly bool) ([]ports.Notification, error) {
	ctx, c, err := s.resolveCaller(ctx, req, false)
	if err != nil {
		return nil, err
	}
	items, err := s.notifications.ListNotifications(ctx, c.member.ID, unreadOnly)
	if err != nil {
		return nil, storage(err, "list notifications")
	}
	return items, nil
}

// MarkNotificationsRead marks the given notifications read, or all of them when ids is empty.
func (s *Service) MarkNotificationsRead(ctx context.Context, req domain.RequestContext, ids []string) (int64, error) {
	ctx, c, err := s.resolveCaller(ctx, req, false)
	if err != nil {
		return 0, err
	}
	n, err := s.notifications.MarkRead(ctx, c.member.ID, trimAll(ids))
	if err != nil {
		return 0, storage(err, "mark notifications read")
	}
	return n, nil
}
