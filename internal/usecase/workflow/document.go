package workflow

import (
	"context"
	"errors"
	"strings"

	domain "assesseez/internal/domain/workflow"
	"assesseez/internal/ports"
)

var errDocumentChanged = domain.Precondition("document submission changed while saving; reload and retry")

func (s *Service) AddDocumentRequirement(ctx context.Context, req domain.RequestContext, input AddRequirementInput) (Result, error) {
	ctx, c, err := s.resolveCaller(ctx, req, true)
	if err != nil {
		return Result{}, err
	}
	if err := requireAdmin(c); err != nil {
		return Result{}, err
	}

	title, err := domain.RequireText("title", input.Title, domain.MaxTitleLength)
	if err != nil {
		return Result{}, err
	}
	var template *domain.FileRef
	if input.Template != nil {
		valid, err := s.files.Validate(*input.Template)
		if err != nil {
			return Result{}, err
		}
		template = &valid
	}

	requirement := ports.DocumentRequirement{
		ID:              s.newID(),
		QualificationID: c.qualification.ID,
		Title:           title,
		Description:     strings.TrimSpace(input.Description),
		Template:        template,
		CreatedAt:       s.stamp(),
	}
	if err := s.documents.CreateRequirement(ctx, requirement); err != nil {
		return Result{}, storage(err, "create document requirement")
	}
	return Result{ID: requirement.ID}, nil
}

// SubmitDocument keeps a single row per (learner, requirement); a pending or
// rejected row is replaced in place and set back to PENDING.
func (s *Service) SubmitDocument(ctx context.Context, req domain.RequestContext, input SubmitDocumentInput) (SubmitResult, error) {
	ctx, c, err := s.resolveCaller(ctx, req, true)
	if err != nil {
		return SubmitResult{}, err
	}
	learner, err := s.learnerSelf(ctx, c)
	if err != nil {
		return SubmitResult{}, err
	}
	requirement, err := s.requirementOf(ctx, c, input.RequirementID)
	if err != nil {
		return SubmitResult{}, err
	}
	file, err := s.files.Validate(input.File)
	if err != nil {
		return SubmitResult{}, err
	}
	comments := strings.TrimSpace(input.Comments)

	var (
		out     SubmitResult
		pending []ports.PendingDelivery
	)
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		current := domain.DocumentNotSubmitted
		existing, err := s.documents.FindSubmission(txCtx, learner.ID, requirement.ID)
		switch {
		case err == nil:
			current = existing.Status
		case !isNotFound(err):
			return storage(err, "load document submission")
		}

		action, err := domain.PlanDocumentSubmission(current)
		if err != nil {
			return err
		}

		now := s.stamp()
		if action == domain.SubmissionUpdateInPlace {
			existing.File = file
			existing.Comments = comments
			existing.Status = domain.DocumentPending
			existing.AssessorMembershipID = ""
			existing.UpdatedAt = now
			out.SubmissionID = existing.ID
			applied, err := s.documents.UpdateSubmission(txCtx, existing, current)
			if err != nil {
				return storage(err, "update document submission")
			}
			if !applied {
				return errDocumentChanged
			}
		} else {
			out.SubmissionID = s.newID()
			out.Created = true
			if err := s.documents.CreateSubmission(txCtx, ports.DocumentSubmission{
				ID:            out.SubmissionID,
				LearnerID:     learner.ID,
				RequirementID: requirement.ID,
				File:          file,
				Status:        domain.DocumentPending,
				Comments:      comments,
				SubmittedAt:   now,
				UpdatedAt:     now,
			}); err != nil {
				if errors.Is(err, ports.ErrDuplicate) {
					return errDocumentChanged
				}
				return storage(err, "create document submission")
			}
		}

		delivery, ok, err := s.recordSubmissionNotice(txCtx, c, learner, out.SubmissionID, "a document", map[string]any{
			"document": requirement.Title,
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

	out.Warnings = s.deliver(ctx, pending, out.Warnings)
	return out, nil
}

// DecideDocument lets the learner's assessor accept or reject a document.
// Rejection needs comments; an accepted document cannot be decided again.
func (s *Service) DecideDocument(ctx context.Context, req domain.RequestContext, input DecideDocumentInput) (Result, error) {
	ctx, c, err := s.resolveCaller(ctx, req, true)
	if err != nil {
		return Result{}, err
	}
	status, err := domain.ParseDocumentDecision(input.Status)
	if err != nil {
		return Result{}, err
	}
	comments := strings.TrimSpace(input.Comments)

	var (
		out     Result
		pending []ports.PendingDelivery
	)
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		submission, requirement, learner, err := s.loadDocument(txCtx, c, input.SubmissionID)
		if err != nil {
			return err
		}
		if err := s.requireAssessorOf(c, learner); err != nil {
			return err
		}
		if err := domain.CheckDocumentDecision(submission.Status, status, comments); err != nil {
			return err
		}

		current := submission.Status
		submission.Status = status
		submission.Comments = comments
		submission.AssessorMembershipID = c.member.ID
		submission.UpdatedAt = s.stamp()
		applied, err := s.documents.UpdateSubmission(txCtx, submission, current)
		if err != nil {
			return storage(err, "update document submission")
		}
		if !applied {
			return errDocumentChanged
		}
		out.ID = submission.ID

		recipient, err := s.directory.GetMemberByID(txCtx, learner.MembershipID)
		if err != nil {
			return lookup(err, "learner member")
		}
		delivery, err := s.record(txCtx, ports.Notice{
			Recipient:    recipient,
			Message:      domain.DocumentDecisionMessage(requirement.Title, status, comments),
			SubmissionID: submission.ID,
			TemplateID:   domain.TemplateDecision,
			Data: map[string]any{
				"document": requirement.Title,
				"status":   string(status),
				"comments": comments,
			},
		})
		if err != nil {
			return err
		}
		pending = append(pending, delivery)
		return nil
	}); err != nil {
		return Result{}, err
	}

	out.Warnings = s.deliver(ctx, pending, out.Warnings)
	return out, nil
}

// RemarkDocument records the IQA's remark, replacing an earlier one by the
// same IQA. Non-Conformance notifies both the learner and the assessor.
func (s *Service) RemarkDocument(ctx context.Context, req domain.RequestContext, input RemarkDocumentInput) (Result, error) {
	ctx, c, err := s.resolveCaller(ctx, req, true)
	if err != nil {
		return Result{}, err
	}
	remark, err := domain.ParseOutcome(input.Remark)
	if err != nil {
		return Result{}, err
	}
	comments := strings.TrimSpace(input.Comments)
	if err := domain.CheckRemark(remark, comments); err != nil {
		return Result{}, err
	}

	var (
		out     Result
		pending []ports.PendingDelivery
	)
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		submission, requirement, learner, err := s.loadDocument(txCtx, c, input.SubmissionID)
		if err != nil {
			return err
		}
		if err := s.requireIQAOf(c, learner); err != nil {
			return err
		}

		out.ID = s.newID()
		if err := s.documents.ReplaceRemark(txCtx, ports.DocumentRemark{
			ID:              out.ID,
			SubmissionID:    submission.ID,
			IQAMembershipID: c.member.ID,
			Remark:          remark,
			Comments:        comments,
			CreatedAt:       s.stamp(),
		}); err != nil {
			return storage(err, "replace document remark")
		}
		if remark != domain.OutcomeNonConformance {
			return nil
		}

		learnerMember, err := s.directory.GetMemberByID(txCtx, learner.MembershipID)
		if err != nil {
			return lookup(err, "learner member")
		}
		data := map[string]any{"document": requirement.Title, "comments": comments}
		delivery, err := s.record(txCtx, ports.Notice{
			Recipient:    learnerMember,
			Message:      domain.DocumentRemarkLearnerMessage(requirement.Title, comments),
			SubmissionID: submission.ID,
			TemplateID:   domain.TemplateNonConformance,
			Data:         data,
		})
		if err != nil {
			return err
		}
		pending = append(pending, delivery)

		if learner.AssessorMembershipID == "" {
			out.Warnings = append(out.Warnings, "learner has no assessor to notify about the Non-Conformance remark")
			return nil
		}
		assessor, err := s.directory.GetMemberByID(txCtx, learner.AssessorMembershipID)
		if err != nil {
			return lookup(err, "assessor member")
		}
		delivery, err = s.record(txCtx, ports.Notice{
			Recipient:    assessor,
			Message:      domain.DocumentRemarkAssessorMessage(learnerMember.DisplayName(), requirement.Title, comments),
			SubmissionID: submission.ID,
			TemplateID:   domain.TemplateNonConformance,
			Data:         data,
		})
		if err != nil {
			return err
		}
		pending = append(pending, delivery)
		return nil
	}); err != nil {
		return Result{}, err
	}

	out.Warnings = s.deliver(ctx, pending, out.Warnings)
	return out, nil
}

// ListDocuments returns every requirement of the qualification with the
// learner's submission state and IQA remarks.
func (s *Service) ListDocuments(ctx context.Context, req domain.RequestContext, learnerID string) ([]DocumentEntry, error) {
	ctx, c, err := s.resolveCaller(ctx, req, true)
	if err != nil {
		return nil, err
	}
	learner, err := s.viewableLearner(ctx, c, learnerID)
	if err != nil {
		return nil, err
	}

	requirements, err := s.documents.ListRequirements(ctx, c.qualification.ID)
	if err != nil {
		return nil, storage(err, "list document requirements")
	}
	submissions, err := s.documents.ListSubmissions(ctx, learner.ID)
	if err != nil {
		return nil, storage(err, "list document submissions")
	}
	byRequirement := make(map[string]ports.DocumentSubmission, len(submissions))
	for _, submission := range submissions {
		byRequirement[submission.RequirementID] = submission
	}

	out := make([]DocumentEntry, 0, len(requirements))
	for _, requirement := range requirements {
		entry := DocumentEntry{Requirement: requirement, Status: domain.DocumentNotSubmitted}
		if submission, ok := byRequirement[requirement.ID]; ok {
			entry.Submission = &submission
			entry.Status = submission.Status
			remarks, err := s.documents.ListRemarks(ctx, submission.ID)
			if err != nil {
				return nil, storage(err, "list document remarks")
			}
			entry.Remarks = remarks
		}
		out = append(out, entry)
	}
	return out, nil
}

func (s *Service) requirementOf(ctx context.Context, c caller, requirementID string) (ports.DocumentRequirement, error) {
	requirementID = strings.TrimSpace(requirementID)
	if requirementID == "" {
		return ports.DocumentRequirement{}, domain.Invalid("requirement", "requirement is required")
	}
	requirement, err := s.documents.GetRequirement(ctx, requirementID)
	if err != nil {
		return ports.DocumentRequirement{}, lookup(err, "document requirement")
	}
	if requirement.QualificationID != c.qualification.ID {
		return ports.DocumentRequirement{}, domain.NotFound("document requirement")
	}
	return requirement, nil
}

func (s *Service) loadDocument(ctx context.Context, c caller, submissionID string) (ports.DocumentSubmission, ports.DocumentRequirement, ports.LearnerAssignment, error) {
	submissionID = strings.TrimSpace(submissionID)
	if submissionID == "" {
		return ports.DocumentSubmission{}, ports.DocumentRequirement{}, ports.LearnerAssignment{}, domain.Invalid("submission", "submission is required")
	}
	submission, err := s.documents.GetSubmission(ctx, submissionID)
	if err != nil {
		return ports.DocumentSubmission{}, ports.DocumentRequirement{}, ports.LearnerAssignment{}, lookup(err, "document submission")
	}
	requirement, err := s.requirementOf(ctx, c, submission.RequirementID)
	if err != nil {
		return ports.DocumentSubmission{}, ports.DocumentRequirement{}, ports.LearnerAssignment{}, err
	}
	learner, err := s.loadLearner(ctx, c, submission.LearnerID)
	if err != nil {
		return ports.DocumentSubmission{}, ports.DocumentRequirement{}, ports.LearnerAssignment{}, err
	}
	return submission, requirement, learner, nil
}
