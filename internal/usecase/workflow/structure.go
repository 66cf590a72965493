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

func (s *Service) CreateQualification(ctx context.Context, req domain.RequestContext, input CreateQualificationInput) (Result, error) {
	ctx, c, err := s.resolveCaller(ctx, req, false)
	if err != nil {
		return Result{}, err
	}
	if err := requireAdmin(c); err != nil {
		return Result{}, err
	}

	qualification, err := s.newQualification(c.req.BusinessID, input)
	if err != nil {
		return Result{}, err
	}
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		return s.insertQualification(txCtx, qualification)
	}); err != nil {
		return Result{}, err
	}

	logging.Info(ctx, "qualification created", slog.String("qualification_id", qualification.ID))
	return Result{ID: qualification.ID}, nil
}

func (s *Service) newQualification(businessID string, input CreateQualificationInput) (ports.Qualification, error) {
	title, err := domain.RequireText("title", input.Title, domain.MaxTitleLength)
	if err != nil {
		return ports.Qualification{}, err
	}
	number, err := domain.RequireText("number", input.Number, domain.MaxNumberLength)
	if err != nil {
		return ports.Qualification{}, err
	}
	now := s.stamp()
	return ports.Qualification{
		ID:           s.newID(),
		BusinessID:   businessID,
		Title:        title,
		Number:       number,
		AwardingBody: strings.TrimSpace(input.AwardingBody),
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (s *Service) insertQualification(ctx context.Context, qualification ports.Qualification) error {
	_, err := s.structure.FindQualificationByNumber(ctx, qualification.BusinessID, qualification.Number)
	if err == nil {
		return domain.Invalid("number", "qualification number already exists in this business")
	}
	if !isNotFound(err) {
		return storage(err, "check qualification number")
	}
	err = s.structure.CreateQualification(ctx, qualification)
	if errors.Is(err, ports.ErrDuplicate) {
		return domain.Invalid("number", "qualification number already exists in this business")
	}
	return storage(err, "create qualification")
}

func (s *Service) ListQualifications(ctx context.Context, req domain.RequestContext) ([]ports.Qualification, error) {
	ctx, c, err := s.resolveCaller(ctx, req, false)
	if err != nil {
		return nil, err
	}
	items, err := s.structure.ListQualifications(ctx, c.req.BusinessID)
	if err != nil {
		return nil, storage(err, "list qualifications")
	}
	return items, nil
}

func (s *Service) AddUnit(ctx context.Context, req domain.RequestContext, input AddUnitInput) (Result, error) {
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
	number, err := domain.RequireText("number", input.Number, domain.MaxNumberLength)
	if err != nil {
		return Result{}, err
	}

	id := s.newID()
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		return s.insertUnit(txCtx, ports.Unit{
			ID:              id,
			QualificationID: c.qualification.ID,
			Title:           title,
			Number:          number,
			SerialNumber:    input.SerialNumber,
		})
	}); err != nil {
		return Result{}, err
	}
	return Result{ID: id}, nil
}

// insertUnit assigns the next serial number when none is given.
func (s *Service) insertUnit(ctx context.Context, unit ports.Unit) error {
	_, err := s.structure.FindUnitByNumber(ctx, unit.QualificationID, unit.Number)
	if err == nil {
		return domain.Invalid("number", "unit number already exists in this qualification")
	}
	if !isNotFound(err) {
		return storage(err, "check unit number")
	}
	if unit.SerialNumber <= 0 {
		units, err := s.structure.ListUnits(ctx, unit.QualificationID)
		if err != nil {
			return storage(err, "list units")
		}
		unit.SerialNumber = nextSerial(len(units), func(i int) float64 { return units[i].SerialNumber })
	}
	unit.CreatedAt = s.stamp()
	unit.UpdatedAt = unit.CreatedAt
	err = s.structure.CreateUnit(ctx, unit)
	if errors.Is(err, ports.ErrDuplicate) {
		return domain.Invalid("number", "unit number already exists in this qualification")
	}
	return storage(err, "create unit")
}

func (s *Service) AddLearningOutcome(ctx context.Context, req domain.RequestContext, input AddLearningOutcomeInput) (Result, error) {
	ctx, c, err := s.resolveCaller(ctx, req, true)
	if err != nil {
		return Result{}, err
	}
	if err := requireAdmin(c); err != nil {
		return Result{}, err
	}

	detail, err := domain.RequireText("detail", input.Detail, 0)
	if err != nil {
		return Result{}, err
	}
	unit, err := s.unitOf(ctx, c, input.UnitID)
	if err != nil {
		return Result{}, err
	}

	id := s.newID()
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		return s.insertOutcome(txCtx, ports.LearningOutcome{
			ID:              id,
			UnitID:          unit.ID,
			QualificationID: unit.QualificationID,
			Detail:          detail,
			SerialNumber:    input.SerialNumber,
		})
	}); err != nil {
		return Result{}, err
	}
	return Result{ID: id}, nil
}

func (s *Service) insertOutcome(ctx context.Context, outcome ports.LearningOutcome) error {
	if outcome.SerialNumber <= 0 {
		outcomes, err := s.structure.ListLearningOutcomes(ctx, outcome.UnitID)
		if err != nil {
			return storage(err, "list learning outcomes")
		}
		outcome.SerialNumber = nextSerial(len(outcomes), func(i int) float64 { return outcomes[i].SerialNumber })
	}
	outcome.CreatedAt = s.stamp()
	outcome.UpdatedAt = outcome.CreatedAt
	err := s.structure.CreateLearningOutcome(ctx, outcome)
	if errors.Is(err, ports.ErrDuplicate) {
		return domain.Invalid("detail", "learning outcome already exists in this unit")
	}
	return storage(err, "create learning outcome")
}

func (s *Service) AddCriterion(ctx context.Context, req domain.RequestContext, input AddCriterionInput) (Result, error) {
	ctx, c, err := s.resolveCaller(ctx, req, true)
	if err != nil {
		return Result{}, err
	}
	if err := requireAdmin(c); err != nil {
		return Result{}, err
	}

	detail, err := domain.RequireText("detail", input.Detail, 0)
	if err != nil {
		return Result{}, err
	}
	outcome, err := s.outcomeOf(ctx, c, input.LearningOutcomeID)
	if err != nil {
		return Result{}, err
	}

	id := s.newID()
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		return s.insertCriterion(txCtx, ports.AssessmentCriterion{
			ID:                id,
			LearningOutcomeID: outcome.ID,
			UnitID:            outcome.UnitID,
			QualificationID:   outcome.QualificationID,
			Detail:            detail,
			SerialNumber:      input.SerialNumber,
		})
	}); err != nil {
		return Result{}, err
	}
	return Result{ID: id}, nil
}

func (s *Service) insertCriterion(ctx context.Context, criterion ports.AssessmentCriterion) error {
	if criterion.SerialNumber <= 0 {
		criteria, err := s.structure.ListCriteriaByOutcome(ctx, criterion.LearningOutcomeID)
		if err != nil {
			return storage(err, "list criteria")
		}
		criterion.SerialNumber = nextSerial(len(criteria), func(i int) float64 { return criteria[i].SerialNumber })
	}
	criterion.CreatedAt = s.stamp()
	criterion.UpdatedAt = criterion.CreatedAt
	err := s.structure.CreateCriterion(ctx, criterion)
	if errors.Is(err, ports.ErrDuplicate) {
		return domain.Invalid("detail", "criterion already exists in this learning outcome")
	}
	return storage(err, "create criterion")
}

// DeleteNode removes a unit, learning outcome or criterion that no submission references.
func (s *Service) DeleteNode(ctx context.Context, req domain.RequestContext, kind string, nodeID string) error {
	ctx, c, err := s.resolveCaller(ctx, req, true)
	if err != nil {
		return err
	}
	if err := requireAdmin(c); err != nil {
		return err
	}

	node := ports.StructureNode{Kind: ports.StructureNodeKind(strings.ToLower(strings.TrimSpace(kind))), ID: strings.TrimSpace(nodeID)}
	switch node.Kind {
	case ports.NodeUnit:
		_, err = s.unitOf(ctx, c, node.ID)
	case ports.NodeLearningOutcome:
		_, err = s.outcomeOf(ctx, c, node.ID)
	case ports.NodeCriterion:
		_, err = s.criterionOf(ctx, c, node.ID)
	default:
		return domain.Invalid("kind", "must be unit, learning_outcome or criterion")
	}
	if err != nil {
		return err
	}

	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		count, err := s.structure.CountSubmissionsUnder(txCtx, node)
		if err != nil {
			return storage(err, "count submissions")
		}
		if err := domain.CheckStructuralDelete(string(node.Kind), count); err != nil {
			return err
		}
		switch node.Kind {
		case ports.NodeUnit:
			err = s.structure.DeleteUnit(txCtx, node.ID)
		case ports.NodeLearningOutcome:
			err = s.structure.DeleteLearningOutcome(txCtx, node.ID)
		default:
			err = s.structure.DeleteCriterion(txCtx, node.ID)
		}
		if errors.Is(err, ports.ErrReferenced) {
			return domain.CheckStructuralDelete(string(node.Kind), 1)
		}
		return storage(err, "delete "+string(node.Kind))
	}); err != nil {
		return err
	}

	logging.Info(ctx, "structure node deleted", slog.String("kind", string(node.Kind)), slog.String("node_id", node.ID))
	return nil
}

// GetQualificationTree returns units, learning outcomes and criteria ordered by serial number.
func (s *Service) GetQualificationTree(ctx context.Context, req domain.RequestContext) (QualificationTree, error) {
	ctx, c, err := s.resolveCaller(ctx, req, true)
	if err != nil {
		return QualificationTree{}, err
	}
	return s.buildTree(ctx, c.qualification)
}

func (s *Service) buildTree(ctx context.Context, qualification ports.Qualification) (QualificationTree, error) {
	tree := QualificationTree{Qualification: qualification}
	units, err := s.structure.ListUnits(ctx, qualification.ID)
	if err != nil {
		return QualificationTree{}, storage(err, "list units")
	}
	for _, unit := range units {
		outcomes, err := s.structure.ListLearningOutcomes(ctx, unit.ID)
		if err != nil {
			return QualificationTree{}, storage(err, "list learning outcomes")
		}
		node := UnitNode{Unit: unit, Outcomes: make([]OutcomeNode, 0, len(outcomes))}
		for _, outcome := range outcomes {
			criteria, err := s.structure.ListCriteriaByOutcome(ctx, outcome.ID)
			if err != nil {
				return QualificationTree{}, storage(err, "list criteria")
			}
			node.Outcomes = append(node.Outcomes, OutcomeNode{Outcome: outcome, Criteria: criteria})
		}
		tree.Units = append(tree.Units, node)
	}
	return tree, nil
}

func (s *Service) unitOf(ctx context.Context, c caller, unitID string) (ports.Unit, error) {
	unitID = strings.TrimSpace(unitID)
	if unitID == "" {
		return ports.Unit{}, domain.Invalid("unit", "unit is required")
	}
	unit, err := s.structure.GetUnit(ctx, unitID)
	if err != nil {
		return ports.Unit{}, lookup(err, "unit")
	}
	if unit.QualificationID != c.qualification.ID {
		return ports.Unit{}, domain.NotFound("unit")
	}
	return unit, nil
}

func (s *Service) outcomeOf(ctx context.Context, c caller, outcomeID string) (ports.LearningOutcome, error) {
	outcomeID = strings.TrimSpace(outcomeID)
	if outcomeID == "" {
		return ports.LearningOutcome{}, domain.Invalid("learning_outcome", "learning outcome is required")
	}
	outcome, err := s.structure.GetLearningOutcome(ctx, outcomeID)
	if err != nil {
		return ports.LearningOutcome{}, lookup(err, "learning outcome")
	}
	if outcome.QualificationID != c.qualification.ID {
		return ports.LearningOutcome{}, domain.NotFound("learning outcome")
	}
	return outcome, nil
}

func (s *Service) criterionOf(ctx context.Context, c caller, criterionID string) (ports.AssessmentCriterion, error) {
	criterionID = strings.TrimSpace(criterionID)
	if criterionID == "" {
		return ports.AssessmentCriterion{}, domain.Invalid("criterion", "criterion is required")
	}
	criterion, err := s.structure.GetCriterion(ctx, criterionID)
	if err != nil {
		return ports.AssessmentCriterion{}, lookup(err, "criterion")
	}
	if criterion.QualificationID != c.qualification.ID {
		return ports.AssessmentCriterion{}, domain.NotFound("criterion")
	}
	return criterion, nil
}

func nextSerial(n int, at func(int) float64) float64 {
	next := 1.0
	for i := 0; i < n; i++ {
		if v := at(i); v >= next {
			next = v + 1
		}
	}
	return next
}
