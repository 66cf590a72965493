package workflow

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"assesseez/internal/bootstrap/logging"
	domain "assesseez/internal/domain/workflow"
	"assesseez/internal/ports"
)

// MessageRecipients lists who the caller may write to on the qualification.
// Admins reach everyone holding a role there. Staff and learners reach the
// people attached to the same learners plus the business admins.
func (s *Service) MessageRecipients(ctx context.Context, req domain.RequestContext) ([]ports.Member, error) {
	ctx, c, err := s.resolveCaller(ctx, req, true)
	if err != nil {
		return nil, err
	}
	allowed, err := s.recipientSet(ctx, c)
	if err != nil {
		return nil, err
	}
	out := make([]ports.Member, 0, len(allowed))
	for _, member := range allowed {
		out = append(out, member)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayName() != out[j].DisplayName() {
			return out[i].DisplayName() < out[j].DisplayName()
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// ComposeMessage sends one message to every listed person. Each recipient must
// be reachable from the caller on the qualification and gets a notification.
func (s *Service) ComposeMessage(ctx context.Context, req domain.RequestContext, input ComposeMessageInput) (Result, error) {
	ctx, c, err := s.resolveCaller(ctx, req, true)
	if err != nil {
		return Result{}, err
	}
	if s.messages == nil {
		return Result{}, errDependencyMissing
	}

	subject, err := domain.RequireText("subject", domain.ThreadSubject(input.Subject), domain.MaxTitleLength)
	if err != nil {
		return Result{}, err
	}
	body, err := domain.RequireText("body", input.Body, domain.MaxBodyLength)
	if err != nil {
		return Result{}, err
	}
	var attachment *domain.FileRef
	if input.Attachment != nil {
		valid, err := s.files.Validate(*input.Attachment)
		if err != nil {
			return Result{}, err
		}
		attachment = &valid
	}

	personIDs := trimAll(input.RecipientPersonIDs)
	if len(personIDs) == 0 {
		return Result{}, domain.Invalid("recipients", "at least one recipient is required")
	}
	allowed, err := s.recipientSet(ctx, c)
	if err != nil {
		return Result{}, err
	}
	recipients := make([]ports.Member, 0, len(personIDs))
	for _, personID := range personIDs {
		member, err := s.memberOf(ctx, c, personID)
		if err != nil {
			return Result{}, err
		}
		if _, ok := allowed[member.ID]; !ok {
			return Result{}, domain.NotAssigned("recipient does not share this qualification with the sender")
		}
		recipients = append(recipients, member)
	}

	message := ports.Message{
		ID:                 s.newID(),
		BusinessID:         c.req.BusinessID,
		SenderMembershipID: c.member.ID,
		QualificationID:    c.qualification.ID,
		Subject:            subject,
		Body:               body,
		Attachment:         attachment,
		SentAt:             s.stamp(),
	}
	for _, member := range recipients {
		message.Recipients = append(message.Recipients, ports.MessageRecipient{MessageID: message.ID, RecipientMembershipID: member.ID})
	}

	var pending []ports.PendingDelivery
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.messages.CreateMessage(txCtx, message); err != nil {
			return storage(err, "create message")
		}
		sender := c.member.DisplayName()
		for _, member := range recipients {
			delivery, err := s.record(txCtx, ports.Notice{
				Recipient:  member,
				Message:    domain.MessageReceivedNotice(sender, subject),
				TemplateID: domain.TemplateMessage,
				Data: map[string]any{
					"sender":        sender,
					"subject":       subject,
					"qualification": c.qualification.Title,
				},
			})
			if err != nil {
				return err
			}
			pending = append(pending, delivery)
		}
		return nil
	}); err != nil {
		return Result{}, err
	}

	logging.Info(ctx, "message sent",
		slog.String("message_id", message.ID),
		slog.Int("recipients", len(recipients)),
	)
	return Result{ID: message.ID, Warnings: s.deliver(ctx, pending, nil)}, nil
}

// Inbox groups received messages by subject, newest thread first.
func (s *Service) Inbox(ctx context.Context, req domain.RequestContext) ([]ThreadSummary, error) {
	ctx, c, err := s.resolveCaller(ctx, req, false)
	if err != nil {
		return nil, err
	}
	if s.messages == nil {
		return nil, errDependencyMissing
	}
	received, err := s.messages.ListReceived(ctx, c.member.ID)
	if err != nil {
		return nil, storage(err, "list received messages")
	}
	return summarize(received, c.member.ID), nil
}

// SentMessages groups the caller's sent messages by subject.
func (s *Service) SentMessages(ctx context.Context, req domain.RequestContext) ([]ThreadSummary, error) {
	ctx, c, err := s.resolveCaller(ctx, req, false)
	if err != nil {
		return nil, err
	}
	if s.messages == nil {
		return nil, errDependencyMissing
	}
	sent, err := s.messages.ListSent(ctx, c.member.ID)
	if err != nil {
		return nil, storage(err, "list sent messages")
	}
	return summarize(sent, c.member.ID), nil
}

// OpenThread returns the conversation under subject, oldest first, and marks
// the caller's copies read.
func (s *Service) OpenThread(ctx context.Context, req domain.RequestContext, subject string) ([]ports.Message, error) {
	ctx, c, err := s.resolveCaller(ctx, req, false)
	if err != nil {
		return nil, err
	}
	if s.messages == nil {
		return nil, errDependencyMissing
	}
	subject = domain.ThreadSubject(subject)
	if subject == "" {
		return nil, domain.Invalid("subject", "subject is required")
	}
	thread, err := s.messages.ListThread(ctx, c.req.BusinessID, c.member.ID, subject)
	if err != nil {
		return nil, storage(err, "list message thread")
	}
	if len(thread) == 0 {
		return nil, domain.NotFound("message thread")
	}

	unread := make([]string, 0, len(thread))
	for _, message := range thread {
		for _, recipient := range message.Recipients {
			if recipient.RecipientMembershipID == c.member.ID && !recipient.IsRead {
				unread = append(unread, message.ID)
			}
		}
	}
	if len(unread) > 0 {
		readAt := s.stamp()
		if _, err := s.messages.MarkRead(ctx, c.member.ID, unread, readAt); err != nil {
			return nil, storage(err, "mark thread read")
		}
		for i := range thread {
			for j := range thread[i].Recipients {
				recipient := &thread[i].Recipients[j]
				if recipient.RecipientMembershipID == c.member.ID && !recipient.IsRead {
					recipient.IsRead = true
					recipient.ReadAt = readAt
				}
			}
		}
	}
	return thread, nil
}

// ReadMessage returns one message the caller sent or received and marks the
// caller's copy read.
func (s *Service) ReadMessage(ctx context.Context, req domain.RequestContext, messageID string) (ports.Message, error) {
	ctx, c, err := s.resolveCaller(ctx, req, false)
	if err != nil {
		return ports.Message{}, err
	}
	if s.messages == nil {
		return ports.Message{}, errDependencyMissing
	}
	message, err := s.messages.GetMessage(ctx, strings.TrimSpace(messageID))
	if err != nil {
		return ports.Message{}, lookup(err, "message")
	}
	if message.BusinessID != c.req.BusinessID || !message.Addressed(c.member.ID) {
		return ports.Message{}, domain.NotFound("message")
	}
	if _, err := s.messages.MarkRead(ctx, c.member.ID, []string{message.ID}, s.stamp()); err != nil {
		return ports.Message{}, storage(err, "mark message read")
	}
	return message, nil
}

// MarkMessagesRead marks the caller's copies of the messages read, or every
// unread message when ids is empty.
func (s *Service) MarkMessagesRead(ctx context.Context, req domain.RequestContext, ids []string) (int64, error) {
	ctx, c, err := s.resolveCaller(ctx, req, false)
	if err != nil {
		return 0, err
	}
	if s.messages == nil {
		return 0, errDependencyMissing
	}
	n, err := s.messages.MarkRead(ctx, c.member.ID, trimAll(ids), s.stamp())
	if err != nil {
		return 0, storage(err, "mark messages read")
	}
	return n, nil
}

func (s *Service) UnreadMessageCount(ctx context.Context, req domain.RequestContext) (int64, error) {
	ctx, c, err := s.resolveCaller(ctx, req, false)
	if err != nil {
		return 0, err
	}
	if s.messages == nil {
		return 0, errDependencyMissing
	}
	n, err := s.messages.CountUnread(ctx, c.member.ID)
	if err != nil {
		return 0, storage(err, "count unread messages")
	}
	return n, nil
}

// recipientSet maps membership ID to member for everyone the caller may message.
func (s *Service) recipientSet(ctx context.Context, c caller) (map[string]ports.Member, error) {
	ids := make(map[string]struct{})
	add := func(membershipIDs ...string) {
		for _, id := range membershipIDs {
			if id != "" && id != c.member.ID {
				ids[id] = struct{}{}
			}
		}
	}

	admins, err := s.directory.ListAdmins(ctx, c.req.BusinessID)
	if err != nil {
		return nil, storage(err, "load business admins")
	}
	for _, admin := range admins {
		add(admin.ID)
	}

	if c.isAdmin() {
		learners, err := s.assignments.ListLearners(ctx, ports.LearnerFilter{QualificationID: c.qualification.ID})
		if err != nil {
			return nil, storage(err, "list learners")
		}
		for _, learner := range learners {
			add(learner.MembershipID)
		}
		staff, err := s.assignments.ListStaff(ctx, c.qualification.ID, "")
		if err != nil {
			return nil, storage(err, "list staff")
		}
		for _, assignment := range staff {
			add(assignment.MembershipID)
		}
	} else {
		held, err := s.assignments.HeldRoles(ctx, c.member.ID, c.qualification.ID)
		if err != nil {
			return nil, storage(err, "load held roles")
		}
		if len(held) == 0 {
			return nil, domain.NotAssigned("caller holds no role on this qualification")
		}
		if held.Has(domain.RoleLearner) {
			learner, err := s.assignments.FindLearner(ctx, c.member.ID, c.qualification.ID)
			if err != nil {
				return nil, lookup(err, "learner")
			}
			add(learner.AssessorMembershipID, learner.IQAMembershipID)
		}
		for role, filter := range map[domain.Role]ports.LearnerFilter{
			domain.RoleAssessor: {QualificationID: c.qualification.ID, AssessorMembershipID: c.member.ID},
			domain.RoleIQA:      {QualificationID: c.qualification.ID, IQAMembershipID: c.member.ID},
		} {
			if !held.Has(role) {
				continue
			}
			learners, err := s.assignments.ListLearners(ctx, filter)
			if err != nil {
				return nil, storage(err, "list learners")
			}
			for _, learner := range learners {
				add(learner.MembershipID, learner.AssessorMembershipID, learner.IQAMembershipID)
			}
		}
	}

	out := make(map[string]ports.Member, len(ids))
	for id := range ids {
		member, err := s.directory.GetMemberByID(ctx, id)
		if err != nil {
			if isNotFound(err) {
				continue
			}
			return nil, storage(err, "load recipient")
		}
		out[id] = member
	}
	return out, nil
}

// summarize groups messages, already sorted newest first, by subject.
func summarize(messages []ports.Message, membershipID string) []ThreadSummary {
	index := make(map[string]int)
	out := make([]ThreadSummary, 0)
	for _, message := range messages {
		at, ok := index[message.Subject]
		if !ok {
			at = len(out)
			index[message.Subject] = at
			out = append(out, ThreadSummary{Subject: message.Subject, Latest: message})
		}
		summary := &out[at]
		summary.MessageIDs = append(summary.MessageIDs, message.ID)
		for _, recipient := range message.Recipients {
			if recipient.RecipientMembershipID == membershipID && !recipient.IsRead {
				summary.Unread++
			}
		}
	}
	return out
}
