package workflow

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"assesseez/internal/bootstrap/logging"
	domain "assesseez/internal/domain/workflow"
	"assesseez/internal/ports"
)

// CanSample reports whether every criterion of the unit has an ACCEPTED latest
// submission for the learner. A unit without criteria cannot be sampled.
func (s *Service) CanSample(ctx context.Context, req domain.RequestContext, target SampleTarget) (bool, error) {
	ctx, c, err := s.resolveCaller(ctx, req, true)
	if err != nil {
		return false, err
	}
	learner, err := s.loadLearner(ctx, c, target.LearnerID)
	if err != nil {
		return false, err
	}
	if err := s.canView(ctx, c, learner); err != nil {
		return false, err
	}
	unit, err := s.unitOf(ctx, c, target.UnitID)
	if err != nil {
		return false, err
	}
	return s.unitAccepted(ctx, learner.ID, unit.ID)
}

func (s *Service) unitAccepted(ctx context.Context, learnerID string, unitID string) (bool, error) {
	criteria, err := s.structure.ListCriteriaByUnit(ctx, unitID)
	if err != nil {
		return false, storage(err, "list unit criteria")
	}
	if len(criteria) == 0 {
		return false, nil
	}
	ids := make([]string, 0, len(criteria))
	for _, criterion := range criteria {
		ids = append(ids, criterion.ID)
	}
	statuses, err := s.evidence.LatestStatuses(ctx, learnerID, ids)
	if err != nil {
		return false, storage(err, "load latest statuses")
	}
	return domain.CanSample(len(ids), statuses), nil
}

// RecordSampling stores the IQA's sampling of a fully accepted unit together
// with the feedback addressed to the learner's assessor.
func (s *Service) RecordSampling(ctx context.Context, req domain.RequestContext, input RecordSamplingInput) (SamplingResult, error) {
	ctx, c, err := s.resolveCaller(ctx, req, true)
	if err != nil {
		return SamplingResult{}, err
	}
	samplingType, err := domain.ParseSamplingType(input.SamplingType)
	if err != nil {
		return SamplingResult{}, err
	}
	outcome, err := domain.ParseOutcome(input.Outcome)
	if err != nil {
		return SamplingResult{}, err
	}
	learner, err := s.loadLearner(ctx, c, input.LearnerID)
	if err != nil {
		return SamplingResult{}, err
	}
	if err := s.requireIQAOf(c, learner); err != nil {
		return SamplingResult{}, err
	}
	unit, err := s.unitOf(ctx, c, input.UnitID)
	if err != nil {
		return SamplingResult{}, err
	}
	if learner.AssessorMembershipID == "" {
		return SamplingResult{}, domain.Invalid("assessor", "learner has no assessor to receive sampling feedback")
	}
	comments := strings.TrimSpace(input.Comments)

	var (
		out     SamplingResult
		pending []ports.PendingDelivery
	)
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		ready, err := s.unitAccepted(txCtx, learner.ID, unit.ID)
		if err != nil {
			return err
		}
		if !ready {
			return domain.Precondition("every assessment criterion in the unit must be accepted before sampling")
		}
		anchor, err := s.evidence.LatestEvidenceInUnit(txCtx, learner.ID, unit.ID)
		if err != nil {
			return lookup(err, "unit evidence")
		}

		now := s.stamp()
		out.SamplingID = s.newID()
		if err := s.sampling.CreateSampling(txCtx, ports.Sampling{
			ID:              out.SamplingID,
			IQAMembershipID: c.member.ID,
			LearnerID:       learner.ID,
			UnitID:          unit.ID,
			EvidenceID:      anchor.ID,
			SamplingType:    samplingType,
			Outcome:         outcome,
			Comments:        comments,
			CreatedAt:       now,
		}); err != nil {
			return storage(err, "create sampling")
		}

		feedback := comments
		if feedback == "" {
			feedback = domain.DefaultSamplingFeedback(samplingType, outcome)
		}
		out.IQAFeedbackID = s.newID()
		if err := s.sampling.CreateIQAFeedback(txCtx, ports.IQAFeedback{
			ID:                   out.IQAFeedbackID,
			SamplingID:           out.SamplingID,
			AssessorMembershipID: learner.AssessorMembershipID,
			Feedback:             feedback,
			CreatedAt:            now,
		}); err != nil {
			return storage(err, "create iqa feedback")
		}

		if outcome != domain.OutcomeNonConformance {
			return nil
		}
		assessor, err := s.directory.GetMemberByID(txCtx, learner.AssessorMembershipID)
		if err != nil {
			return lookup(err, "assessor member")
		}
		learnerName := s.memberName(txCtx, learner.MembershipID)
		delivery, err := s.record(txCtx, ports.Notice{
			Recipient:    assessor,
			Message:      domain.SamplingNonConformanceMessage(learnerName, unit.Title, c.member.DisplayName()),
			SubmissionID: anchor.ID,
			TemplateID:   domain.TemplateNonConformance,
			Data: map[string]any{
				"learner":  learnerName,
				"unit":     unit.Title,
				"iqa":      c.member.DisplayName(),
				"comments": comments,
			},
		})
		if err != nil {
			return err
		}
		pending = append(pending, delivery)
		return nil
	}); err != nil {
		return SamplingResult{}, err
	}

	logging.Info(ctx, "sampling recorded",
		slog.String("sampling_id", out.SamplingID),
		slog.String("outcome", string(outcome)),
	)
	out.Warnings = s.deliver(ctx, pending, out.Warnings)
	return out, nil
}

// GiveFeedbackToAssessor records IQA feedback outside a sampling event. The
// IQA and the assessor must share at least one learner. No notification is sent.
func (s *Service) GiveFeedbackToAssessor(ctx context.Context, req domain.RequestContext, input AssessorFeedbackInput) (Result, error) {
	ctx, c, err := s.resolveCaller(ctx, req, true)
	if err != nil {
		return Result{}, err
	}
	if _, err := s.assignments.FindStaff(ctx, domain.RoleIQA, c.member.ID, c.qualification.ID); err != nil {
		if isNotFound(err) {
			return Result{}, domain.NotAssigned("caller is not an IQA on this qualification")
		}
		return Result{}, storage(err, "load iqa assignment")
	}
	samplingType, err := domain.ParseSamplingType(input.SamplingType)
	if err != nil {
		return Result{}, err
	}
	comments, err := domain.RequireText("comments", input.Comments, 0)
	if err != nil {
		return Result{}, err
	}
	date := strings.TrimSpace(input.Date)
	if date == "" {
		date = s.now().UTC().Format(time.DateOnly)
	} else if _, err := time.Parse(time.DateOnly, date); err != nil {
		return Result{}, domain.Invalid("date", "must be YYYY-MM-DD")
	}

	assessor, err := s.memberOf(ctx, c, input.AssessorPersonID)
	if err != nil {
		return Result{}, err
	}
	shared, err := s.assignments.ShareLearner(ctx, c.member.ID, assessor.ID)
	if err != nil {
		return Result{}, storage(err, "check shared learner")
	}
	if !shared {
		return Result{}, domain.NotAssigned("IQA and assessor share no learner")
	}

	feedback := ports.AssessorFeedback{
		ID:                   s.newID(),
		IQAMembershipID:      c.member.ID,
		AssessorMembershipID: assessor.ID,
		QualificationID:      c.qualification.ID,
		SamplingType:         samplingType,
		Date:                 date,
		Comments:             comments,
		CreatedAt:            s.stamp(),
	}
	if err := s.sampling.CreateAssessorFeedback(ctx, feedback); err != nil {
		return Result{}, storage(err, "create assessor feedback")
	}
	return Result{ID: feedback.ID}, nil
}

func (s *Service) ListSamplings(ctx context.Context, req domain.RequestContext, learnerID string, unitID string) ([]ports.Sampling, error) {
	ctx, c, err := s.resolveCaller(ctx, req, true)
	if err != nil {
		return nil, err
	}
	learner, err := s.viewableLearner(ctx, c, learnerID)
	if err != nil {
		return nil, err
	}
	filter := ports.SamplingFilter{LearnerID: learner.ID}
	if strings.TrimSpace(unitID) != "" {
		unit, err := s.unitOf(ctx, c, unitID)
		if err != nil {
			return nil, err
		}
		filter.UnitID = unit.ID
	}
	items, err := s.sampling.ListSamplings(ctx, filter)
	if err != nil {
		return nil, storage(err, "list samplings")
	}
	return items, nil
}

// ListIQAFeedback returns sampling feedback addressed to the calling assessor.
func (s *Service) ListIQAFeedback(ctx context.Context, req domain.RequestContext) ([]ports.IQAFeedback, error) {
	ctx, c, err := s.resolveCaller(ctx, req, false)
	if err != nil {
		return nil, err
	}
	items, err := s.sampling.ListIQAFeedback(ctx, c.member.ID)
	if err != nil {
		return nil, storage(err, "list iqa feedback")
	}
	return items, nil
}

// ListAssessorFeedback returns direct IQA feedback for the calling assessor,
// optionally narrowed to one IQA.
func (s *Service) ListAssessorFeedback(ctx context.Context, req domain.RequestContext, iqaPersonID string) ([]ports.AssessorFeedback, error) {
	ctx, c, err := s.resolveCaller(ctx, req, false)
	if err != nil {
		return nil, err
	}
	iqaID := ""
	if strings.TrimSpace(iqaPersonID) != "" {
		iqa, err := s.memberOf(ctx, c, iqaPersonID)
		if err != nil {
			return nil, err
		}
		iqaID = iqa.ID
	}
	items, err := s.sampling.ListAssessorFeedback(ctx, c.member.ID, iqaID)
	if err != nil {
		return nil, storage(err, "list assessor feedback")
	}
	return items, nil
}
