package workflow

import (
	"context"
	"strings"

	domain "assesseez/internal/domain/workflow"
	"assesseez/internal/ports"
)

// CompletionPercentage is accepted criteria over all criteria of the qualification.
func (s *Service) CompletionPercentage(ctx context.Context, req domain.RequestContext, learnerID string) (float64, error) {
	ctx, c, err := s.resolveCaller(ctx, req, true)
	if err != nil {
		return 0, err
	}
	learner, err := s.viewableLearner(ctx, c, learnerID)
	if err != nil {
		return 0, err
	}
	criteria, err := s.structure.ListCriteriaByQualification(ctx, c.qualification.ID)
	if err != nil {
		return 0, storage(err, "list criteria")
	}
	return s.completion(ctx, learner.ID, criteria)
}

func (s *Service) completion(ctx context.Context, learnerID string, criteria []ports.AssessmentCriterion) (float64, error) {
	if len(criteria) == 0 {
		return 0, nil
	}
	ids := make([]string, 0, len(criteria))
	for _, criterion := range criteria {
		ids = append(ids, criterion.ID)
	}
	statuses, err := s.evidence.LatestStatuses(ctx, learnerID, ids)
	if err != nil {
		return 0, storage(err, "load latest statuses")
	}
	accepted := 0
	for _, status := range statuses {
		if status == domain.EvidenceAccepted {
			accepted++
		}
	}
	return domain.CompletionPercentage(accepted, len(ids)), nil
}

// SamplingRatio is the share of units the IQA has sampled for the learner.
// Without iqaPersonID the learner's assigned IQA is used.
func (s *Service) SamplingRatio(ctx context.Context, req domain.RequestContext, learnerID string, iqaPersonID string) (float64, error) {
	ctx, c, err := s.resolveCaller(ctx, req, true)
	if err != nil {
		return 0, err
	}
	learner, err := s.viewableLearner(ctx, c, learnerID)
	if err != nil {
		return 0, err
	}
	iqaID := learner.IQAMembershipID
	if strings.TrimSpace(iqaPersonID) != "" {
		iqa, err := s.memberOf(ctx, c, iqaPersonID)
		if err != nil {
			return 0, err
		}
		iqaID = iqa.ID
	}
	units, err := s.structure.ListUnits(ctx, c.qualification.ID)
	if err != nil {
		return 0, storage(err, "list units")
	}
	return s.samplingRatio(ctx, iqaID, learner.ID, len(units))
}

func (s *Service) samplingRatio(ctx context.Context, iqaMembershipID string, learnerID string, totalUnits int) (float64, error) {
	if iqaMembershipID == "" || totalUnits == 0 {
		return 0, nil
	}
	sampled, err := s.sampling.CountSampledUnits(ctx, iqaMembershipID, learnerID)
	if err != nil {
		return 0, storage(err, "count sampled units")
	}
	return domain.SamplingRatio(sampled, totalUnits), nil
}

// ProgressBoard lists the learners the caller may see with their completion and sampling ratio.
func (s *Service) ProgressBoard(ctx context.Context, req domain.RequestContext) ([]LearnerProgress, error) {
	ctx, c, err := s.resolveCaller(ctx, req, true)
	if err != nil {
		return nil, err
	}
	learners, err := s.visibleLearners(ctx, c)
	if err != nil {
		return nil, err
	}

	criteria, err := s.structure.ListCriteriaByQualification(ctx, c.qualification.ID)
	if err != nil {
		return nil, storage(err, "list criteria")
	}
	units, err := s.structure.ListUnits(ctx, c.qualification.ID)
	if err != nil {
		return nil, storage(err, "list units")
	}

	out := make([]LearnerProgress, 0, len(learners))
	for _, learner := range learners {
		completion, err := s.completion(ctx, learner.ID, criteria)
		if err != nil {
			return nil, err
		}
		ratio, err := s.samplingRatio(ctx, learner.IQAMembershipID, learner.ID, len(units))
		if err != nil {
			return nil, err
		}
		row := LearnerProgress{
			LearnerID:     learner.ID,
			Name:          learner.MembershipID,
			Completion:    completion,
			SamplingRatio: ratio,
			IsActive:      learner.IsActive,
			SignedOff:     learner.SignedOff,
		}
		if member, err := s.directory.GetMemberByID(ctx, learner.MembershipID); err == nil {
			row.Name = member.DisplayName()
			row.Email = member.Email
		} else if !isNotFound(err) {
			return nil, storage(err, "load learner member")
		}
		out = append(out, row)
	}
	return out, nil
}

func (s *Service) visibleLearners(ctx context.Context, c caller) ([]ports.LearnerAssignment, error) {
	filter := ports.LearnerFilter{QualificationID: c.qualification.ID}
	if !c.isAdmin() {
		held, err := s.assignments.HeldRoles(ctx, c.member.ID, c.qualification.ID)
		if err != nil {
			return nil, storage(err, "load held roles")
		}
		switch {
		case held.Has(domain.RoleAssessor):
			filter.AssessorMembershipID = c.member.ID
		case held.Has(domain.RoleIQA):
			filter.IQAMembershipID = c.member.ID
		case held.Has(domain.RoleEQA):
			return s.eqaLearners(ctx, c)
		case held.Has(domain.RoleLearner):
			learner, err := s.assignments.FindLearner(ctx, c.member.ID, c.qualification.ID)
			if err != nil {
				return nil, lookup(err, "learner")
			}
			return []ports.LearnerAssignment{learner}, nil
		default:
			return nil, domain.NotAssigned("caller holds no role on this qualification")
		}
	}
	learners, err := s.assignments.ListLearners(ctx, filter)
	if err != nil {
		return nil, storage(err, "list learners")
	}
	return learners, nil
}

func (s *Service) eqaLearners(ctx context.Context, c caller) ([]ports.LearnerAssignment, error) {
	eqa, err := s.assignments.FindStaff(ctx, domain.RoleEQA, c.member.ID, c.qualification.ID)
	if err != nil {
		return nil, lookup(err, "EQA assignment")
	}
	ids, err := s.assignments.ListEQALearners(ctx, eqa.ID)
	if err != nil {
		return nil, storage(err, "list eqa learners")
	}
	out := make([]ports.LearnerAssignment, 0, len(ids))
	for _, id := range ids {
		learner, err := s.assignments.GetLearner(ctx, id)
		if err != nil {
			return nil, lookup(err, "learner")
		}
		out = append(out, learner)
	}
	return out, nil
}
