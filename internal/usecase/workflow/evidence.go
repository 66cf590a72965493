package workflow

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"assesseez/internal/bootstrap/logging"
	domain "assesseez/internal/domain/workflow"
	"assesseez/internal/ports"
)

const warnNoReviewer = "no assessor or business admin to notify about this submission"

// SubmitEvidence stores a learner's evidence against an assessment criterion.
// A SUBMITTED latest row is edited in place, otherwise a new history row is created.
func (s *Service) SubmitEvidence(ctx context.Context, req domain.RequestContext, input SubmitEvidenceInput) (SubmitResult, error) {
	ctx, c, err := s.resolveCaller(ctx, req, true)
	if err != nil {
		return SubmitResult{}, err
	}
	learner, err := s.learnerSelf(ctx, c)
	if err != nil {
		return SubmitResult{}, err
	}
	criterion, err := s.criterionOf(ctx, c, input.CriterionID)
	if err != nil {
		return SubmitResult{}, err
	}
	files, err := s.files.ValidateAll(input.Files)
	if err != nil {
		return SubmitResult{}, err
	}
	detail := strings.TrimSpace(input.Detail)

	var (
		out     SubmitResult
		pending []ports.PendingDelivery
	)
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		current := domain.EvidenceNotSubmitted
		latest, err := s.evidence.LatestEvidence(txCtx, learner.ID, criterion.ID)
		switch {
		case err == nil:
			current = latest.Status
		case !isNotFound(err):
			return storage(err, "load latest evidence")
		}

		action, err := domain.PlanEvidenceSubmission(current)
		if err != nil {
			return err
		}

		now := s.stamp()
		if action == domain.SubmissionUpdateInPlace {
			out.SubmissionID = latest.ID
			var records []ports.FileRecord
			if len(files) > 0 {
				records = s.fileRecords(latest.ID, files, now)
			}
			if err := s.evidence.UpdatePendingEvidence(txCtx, latest.ID, detail, records, now); err != nil {
				if isNotFound(err) {
					return domain.Locked("evidence was decided while it was being edited")
				}
				return storage(err, "update evidence")
			}
		} else {
			out.SubmissionID = s.newID()
			out.Created = true
			if err := s.evidence.CreateEvidence(txCtx, ports.EvidenceSubmission{
				ID:          out.SubmissionID,
				LearnerID:   learner.ID,
				CriterionID: criterion.ID,
				Detail:      detail,
				Status:      domain.EvidenceSubmitted,
				SubmittedAt: now,
				UpdatedAt:   now,
				Files:       s.fileRecords(out.SubmissionID, files, now),
			}); err != nil {
				if errors.Is(err, ports.ErrDuplicate) {
					return domain.Precondition("another submission for this criterion is already awaiting review")
				}
				return storage(err, "create evidence")
			}
		}

		delivery, ok, err := s.recordSubmissionNotice(txCtx, c, learner, out.SubmissionID, "evidence", map[string]any{
			"criterion": criterion.Detail,
		})
		if err != nil {
			return err
		}
		if ok {
			pending = append(pending, delivery)
		} else {
			out.Warnings = append(out.Warnings, warnNoReviewer)
		}
		return nil
	}); err != nil {
		return SubmitResult{}, err
	}

	logging.Info(ctx, "evidence submitted",
		slog.String("submission_id", out.SubmissionID),
		slog.Bool("created", out.Created),
	)
	out.Warnings = s.deliver(ctx, pending, out.Warnings)
	return out, nil
}

// recordSubmissionNotice tells the reviewer about a learner upload. ok is false
// when the business has neither an assessor for the learner nor an admin.
func (s *Service) recordSubmissionNotice(ctx context.Context, c caller, learner ports.LearnerAssignment, submissionID string, kind string, data map[string]any) (ports.PendingDelivery, bool, error) {
	recipient, ok, err := s.submissionRecipient(ctx, learner, c.req.BusinessID)
	if err != nil || !ok {
		return ports.PendingDelivery{}, false, err
	}
	learnerName := c.member.DisplayName()
	if data == nil {
		data = map[string]any{}
	}
	data["learner"] = learnerName
	data["qualification"] = c.qualification.Title
	data["kind"] = kind

	delivery, err := s.record(ctx, ports.Notice{
		Recipient:    recipient,
		Message:      domain.EvidenceSubmittedMessage(learnerName, kind, c.qualification.Title),
		SubmissionID: submissionID,
		TemplateID:   domain.TemplateSubmissionReceived,
		Data:         data,
	})
	if err != nil {
		return ports.PendingDelivery{}, false, err
	}
	return delivery, true, nil
}

func (s *Service) fileRecords(submissionID string, files []domain.FileRef, now string) []ports.FileRecord {
	out := make([]ports.FileRecord, 0, len(files))
	for _, file := range files {
		out = append(out, ports.FileRecord{
			ID:           s.newID(),
			SubmissionID: submissionID,
			Name:         file.Name,
			StorageKey:   file.StorageKey,
			SizeBytes:    file.SizeBytes,
			CreatedAt:    now,
		})
	}
	return out
}

// DecideEvidence applies a single assessor decision.
func (s *Service) DecideEvidence(ctx context.Context, req domain.RequestContext, decision Decision) (DecideResult, error) {
	return s.DecideEvidenceBatch(ctx, req, []Decision{decision})
}

// DecideEvidenceBatch applies several decisions in one transaction. Rows that
// already left SUBMITTED are reported with Applied=false and left untouched.
func (s *Service) DecideEvidenceBatch(ctx context.Context, req domain.RequestContext, decisions []Decision) (DecideResult, error) {
	ctx, c, err := s.resolveCaller(ctx, req, true)
	if err != nil {
		return DecideResult{}, err
	}
	if len(decisions) == 0 {
		return DecideResult{}, domain.Invalid("decisions", "at least one decision is required")
	}

	type parsed struct {
		id       string
		status   domain.EvidenceStatus
		feedback string
	}
	items := make([]parsed, 0, len(decisions))
	for _, d := range decisions {
		status, err := domain.ParseDecision(d.Status)
		if err != nil {
			return DecideResult{}, err
		}
		id := strings.TrimSpace(d.SubmissionID)
		if id == "" {
			return DecideResult{}, domain.Invalid("submission", "submission is required")
		}
		items = append(items, parsed{id: id, status: status, feedback: strings.TrimSpace(d.Feedback)})
	}

	var (
		out     DecideResult
		pending []ports.PendingDelivery
	)
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		for _, item := range items {
			submission, err := s.evidence.GetEvidence(txCtx, item.id)
			if err != nil {
				return lookup(err, "evidence")
			}
			learner, err := s.loadLearner(txCtx, c, submission.LearnerID)
			if err != nil {
				return err
			}
			if err := s.requireAssessorOf(c, learner); err != nil {
				return err
			}

			now := s.stamp()
			applied, err := s.evidence.DecideEvidence(txCtx, submission.ID, item.status, c.member.ID, now)
			if err != nil {
				return storage(err, "decide evidence")
			}
			out.Outcomes = append(out.Outcomes, DecisionOutcome{SubmissionID: submission.ID, Status: item.status, Applied: applied})
			if !applied {
				continue
			}

			if item.feedback != "" {
				if err := s.evidence.CreateFeedback(txCtx, ports.Feedback{
					ID:                   s.newID(),
					SubmissionID:         submission.ID,
					AssessorMembershipID: c.member.ID,
					Text:                 item.feedback,
					CreatedAt:            now,
				}); err != nil {
					return storage(err, "create feedback")
				}
			}

			criterion, err := s.structure.GetCriterion(txCtx, submission.CriterionID)
			if err != nil {
				return lookup(err, "criterion")
			}
			recipient, err := s.directory.GetMemberByID(txCtx, learner.MembershipID)
			if err != nil {
				return lookup(err, "learner member")
			}
			delivery, err := s.record(txCtx, ports.Notice{
				Recipient:    recipient,
				Message:      domain.EvidenceDecisionMessage(criterion.Detail, item.status),
				SubmissionID: submission.ID,
				TemplateID:   domain.TemplateDecision,
				Data: map[string]any{
					"criterion": criterion.Detail,
					"status":    item.status.Label(),
					"feedback":  item.feedback,
				},
			})
			if err != nil {
				return err
			}
			pending = append(pending, delivery)
		}
		return nil
	}); err != nil {
		return DecideResult{}, err
	}

	out.Warnings = s.deliver(ctx, pending, out.Warnings)
	return out, nil
}

// EvidenceHistory lists every submission for a criterion, newest first.
// An empty learnerID means the caller's own learner assignment.
func (s *Service) EvidenceHistory(ctx context.Context, req domain.RequestContext, learnerID string, criterionID string) ([]EvidenceEntry, error) {
	ctx, c, err := s.resolveCaller(ctx, req, true)
	if err != nil {
		return nil, err
	}
	learner, err := s.viewableLearner(ctx, c, learnerID)
	if err != nil {
		return nil, err
	}
	criterion, err := s.criterionOf(ctx, c, criterionID)
	if err != nil {
		return nil, err
	}

	history, err := s.evidence.ListEvidenceHistory(ctx, learner.ID, criterion.ID)
	if err != nil {
		return nil, storage(err, "list evidence history")
	}
	out := make([]EvidenceEntry, 0, len(history))
	for _, submission := range history {
		feedback, err := s.evidence.ListFeedback(ctx, submission.ID)
		if err != nil {
			return nil, storage(err, "list feedback")
		}
		out = append(out, EvidenceEntry{Submission: submission, Label: submission.Status.Label(), Feedback: feedback})
	}
	return out, nil
}

func (s *Service) viewableLearner(ctx context.Context, c caller, learnerID string) (ports.LearnerAssignment, error) {
	if strings.TrimSpace(learnerID) == "" {
		learner, err := s.assignments.FindLearner(ctx, c.member.ID, c.qualification.ID)
		if err != nil {
			if isNotFound(err) {
				return ports.LearnerAssignment{}, domain.Invalid("learner", "learner is required")
			}
			return ports.LearnerAssignment{}, storage(err, "load learner assignment")
		}
		return learner, nil
	}
	learner, err := s.loadLearner(ctx, c, learnerID)
	if err != nil {
		return ports.LearnerAssignment{}, err
	}
	if err := s.canView(ctx, c, learner); err != nil {
		return ports.LearnerAssignment{}, err
	}
	return learner, nil
}
