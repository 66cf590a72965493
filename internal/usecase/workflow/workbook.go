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

type WorkbookEntry struct {
	Submission ports.WorkbookSubmission
	Label      string
}

// SubmitWorkbook stores a learner's workbook for a learning outcome. A file is
// required for a new row; an in-place edit keeps the old file unless one is given.
func (s *Service) SubmitWorkbook(ctx context.Context, req domain.RequestContext, input SubmitWorkbookInput) (SubmitResult, error) {
	ctx, c, err := s.resolveCaller(ctx, req, true)
	if err != nil {
		return SubmitResult{}, err
	}
	learner, err := s.learnerSelf(ctx, c)
	if err != nil {
		return SubmitResult{}, err
	}
	outcome, err := s.outcomeOf(ctx, c, input.LearningOutcomeID)
	if err != nil {
		return SubmitResult{}, err
	}
	var file *domain.FileRef
	if input.File != nil {
		valid, err := s.files.Validate(*input.File)
		if err != nil {
			return SubmitResult{}, err
		}
		file = &valid
	}
	detail := strings.TrimSpace(input.Detail)

	var (
		out     SubmitResult
		pending []ports.PendingDelivery
	)
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		current := domain.EvidenceNotSubmitted
		latest, err := s.evidence.LatestWorkbook(txCtx, learner.ID, outcome.ID)
		switch {
		case err == nil:
			current = latest.Status
		case !isNotFound(err):
			return storage(err, "load latest workbook")
		}

		action, err := domain.PlanEvidenceSubmission(current)
		if err != nil {
			return err
		}

		now := s.stamp()
		if action == domain.SubmissionUpdateInPlace {
			out.SubmissionID = latest.ID
			if err := s.evidence.UpdatePendingWorkbook(txCtx, latest.ID, detail, file, now); err != nil {
				if isNotFound(err) {
					return domain.Locked("workbook was decided while it was being edited")
				}
				return storage(err, "update workbook")
			}
		} else {
			if file == nil {
				return domain.Invalid("file", "a workbook file is required")
			}
			out.SubmissionID = s.newID()
			out.Created = true
			if err := s.evidence.CreateWorkbook(txCtx, ports.WorkbookSubmission{
				ID:                out.SubmissionID,
				LearnerID:         learner.ID,
				LearningOutcomeID: outcome.ID,
				Detail:            detail,
				Status:            domain.EvidenceSubmitted,
				File:              *file,
				SubmittedAt:       now,
				UpdatedAt:         now,
			}); err != nil {
				if errors.Is(err, ports.ErrDuplicate) {
					return domain.Precondition("another submission for this learning outcome is already awaiting review")
				}
				return storage(err, "create workbook")
			}
		}

		delivery, ok, err := s.recordSubmissionNotice(txCtx, c, learner, out.SubmissionID, "a workbook", map[string]any{
			"learning_outcome": outcome.Detail,
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

	logging.Info(ctx, "workbook submitted", slog.String("submission_id", out.SubmissionID))
	out.Warnings = s.deliver(ctx, pending, out.Warnings)
	return out, nil
}

// DecideWorkbook follows the same compare-and-swap rule as evidence decisions.
func (s *Service) DecideWorkbook(ctx context.Context, req domain.RequestContext, decision Decision) (DecideResult, error) {
	ctx, c, err := s.resolveCaller(ctx, req, true)
	if err != nil {
		return DecideResult{}, err
	}
	status, err := domain.ParseDecision(decision.Status)
	if err != nil {
		return DecideResult{}, err
	}
	submissionID := strings.TrimSpace(decision.SubmissionID)
	if submissionID == "" {
		return DecideResult{}, domain.Invalid("submission", "submission is required")
	}

	var (
		out     DecideResult
		pending []ports.PendingDelivery
	)
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		submission, err := s.evidence.GetWorkbook(txCtx, submissionID)
		if err != nil {
			return lookup(err, "workbook")
		}
		learner, err := s.loadLearner(txCtx, c, submission.LearnerID)
		if err != nil {
			return err
		}
		if err := s.requireAssessorOf(c, learner); err != nil {
			return err
		}

		applied, err := s.evidence.DecideWorkbook(txCtx, submission.ID, status, c.member.ID, s.stamp())
		if err != nil {
			return storage(err, "decide workbook")
		}
		out.Outcomes = append(out.Outcomes, DecisionOutcome{SubmissionID: submission.ID, Status: status, Applied: applied})
		if !applied {
			return nil
		}

		outcome, err := s.structure.GetLearningOutcome(txCtx, submission.LearningOutcomeID)
		if err != nil {
			return lookup(err, "learning outcome")
		}
		recipient, err := s.directory.GetMemberByID(txCtx, learner.MembershipID)
		if err != nil {
			return lookup(err, "learner member")
		}
		delivery, err := s.record(txCtx, ports.Notice{
			Recipient:    recipient,
			Message:      domain.WorkbookDecisionMessage(outcome.Detail, status),
			SubmissionID: submission.ID,
			TemplateID:   domain.TemplateDecision,
			Data: map[string]any{
				"learning_outcome": outcome.Detail,
				"status":           status.Label(),
				"feedback":         strings.TrimSpace(decision.Feedback),
			},
		})
		if err != nil {
			return err
		}
		pending = append(pending, delivery)
		return nil
	}); err != nil {
		return DecideResult{}, err
	}

	out.Warnings = s.deliver(ctx, pending, out.Warnings)
	return out, nil
}

func (s *Service) WorkbookHistory(ctx context.Context, req domain.RequestContext, learnerID string, outcomeID string) ([]WorkbookEntry, error) {
	ctx, c, err := s.resolveCaller(ctx, req, true)
	if err != nil {
		return nil, err
	}
	learner, err := s.viewableLearner(ctx, c, learnerID)
	if err != nil {
		return nil, err
	}
	outcome, err := s.outcomeOf(ctx, c, outcomeID)
	if err != nil {
		return nil, err
	}

	history, err := s.evidence.ListWorkbookHistory(ctx, learner.ID, outcome.ID)
	if err != nil {
		return nil, storage(err, "list workbook history")
	}
	out := make([]WorkbookEntry, 0, len(history))
	for _, submission := range history {
		out = append(out, WorkbookEntry{Submission: submission, Label: submission.Status.Label()})
	}
	return out, nil
}
