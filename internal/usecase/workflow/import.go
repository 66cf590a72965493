package workflow

import (
	"context"
	"log/slog"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"assesseez/internal/bootstrap/logging"
	domain "assesseez/internal/domain/workflow"
	"assesseez/internal/errs"
	"assesseez/internal/ports"
)

// qualificationFile is the TOML layout accepted by ImportQualification:
//
//	title = "Level 3 Diploma in Adult Care"
//	number = "610/0001/2"
//	[[units]]
//	title = "Duty of care"
//	number = "DC301"
//	  [[units.outcomes]]
//	  detail = "Understand duty of care"
//	  criteria = ["Define duty of care", "Explain how it affects your role"]
type qualificationFile struct {
	Title        string     `toml:"title"`
	Number       string     `toml:"number"`
	AwardingBody string     `toml:"awarding_body"`
	Units        []unitFile `toml:"units"`
}

type unitFile struct {
	Title    string        `toml:"title"`
	Number   string        `toml:"number"`
	Serial   float64       `toml:"serial"`
	Outcomes []outcomeFile `toml:"outcomes"`
}

type outcomeFile struct {
	Detail   string   `toml:"detail"`
	Serial   float64  `toml:"serial"`
	Criteria []string `toml:"criteria"`
}

// ImportQualification creates a full qualification tree from TOML in one transaction.
func (s *Service) ImportQualification(ctx context.Context, req domain.RequestContext, data []byte) (Result, error) {
	ctx, c, err := s.resolveCaller(ctx, req, false)
	if err != nil {
		return Result{}, err
	}
	if err := requireAdmin(c); err != nil {
		return Result{}, err
	}

	var file qualificationFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return Result{}, domain.Invalid("file", "invalid qualification TOML: "+err.Error())
	}

	qualification, err := s.newQualification(c.req.BusinessID, CreateQualificationInput{
		Title:        file.Title,
		Number:       file.Number,
		AwardingBody: file.AwardingBody,
	})
	if err != nil {
		return Result{}, err
	}

	tree := QualificationTree{Qualification: qualification}
	for _, u := range file.Units {
		node := UnitNode{Unit: ports.Unit{Title: u.Title, Number: u.Number, SerialNumber: u.Serial}}
		for _, o := range u.Outcomes {
			outcome := OutcomeNode{Outcome: ports.LearningOutcome{Detail: o.Detail, SerialNumber: o.Serial}}
			for _, detail := range o.Criteria {
				outcome.Criteria = append(outcome.Criteria, ports.AssessmentCriterion{Detail: detail})
			}
			node.Outcomes = append(node.Outcomes, outcome)
		}
		tree.Units = append(tree.Units, node)
	}

	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		return s.insertTree(txCtx, tree)
	}); err != nil {
		return Result{}, err
	}

	logging.Info(ctx, "qualification imported",
		slog.String("qualification_id", qualification.ID),
		slog.Int("units", len(tree.Units)),
	)
	return Result{ID: qualification.ID}, nil
}

// CopyToBusiness duplicates the caller's qualification structure into another
// business where the caller is also an admin. Submissions are not copied.
func (s *Service) CopyToBusiness(ctx context.Context, req domain.RequestContext, targetBusinessID string) (Result, error) {
	ctx, c, err := s.resolveCaller(ctx, req, true)
	if err != nil {
		return Result{}, err
	}
	if err := requireAdmin(c); err != nil {
		return Result{}, err
	}

	target := strings.TrimSpace(targetBusinessID)
	if target == "" {
		return Result{}, domain.Invalid("business", "target business is required")
	}
	if _, err := s.directory.GetBusiness(ctx, target); err != nil {
		return Result{}, lookup(err, "business")
	}
	member, err := s.directory.GetMember(ctx, c.req.PersonID, target)
	if err != nil {
		if isNotFound(err) {
			return Result{}, domain.NotAssigned("caller is not a member of the target business")
		}
		return Result{}, storage(err, "load target membership")
	}
	if member.Type != domain.MembershipAdmin {
		return Result{}, domain.NotAssigned("business admin role required in the target business")
	}

	tree, err := s.buildTree(ctx, c.qualification)
	if err != nil {
		return Result{}, err
	}
	now := s.stamp()
	tree.Qualification.ID = s.newID()
	tree.Qualification.BusinessID = target
	tree.Qualification.CreatedAt = now
	tree.Qualification.UpdatedAt = now

	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		return s.insertTree(txCtx, tree)
	}); err != nil {
		return Result{}, err
	}
	return Result{ID: tree.Qualification.ID}, nil
}

// insertTree stores tree.Qualification and assigns fresh ids to every node below it.
func (s *Service) insertTree(ctx context.Context, tree QualificationTree) error {
	qualification := tree.Qualification
	if err := s.insertQualification(ctx, qualification); err != nil {
		return err
	}

	for i, node := range tree.Units {
		title, err := domain.RequireText("units.title", node.Unit.Title, domain.MaxTitleLength)
		if err != nil {
			return err
		}
		number, err := domain.RequireText("units.number", node.Unit.Number, domain.MaxNumberLength)
		if err != nil {
			return err
		}
		unit := ports.Unit{
			ID:              s.newID(),
			QualificationID: qualification.ID,
			Title:           title,
			Number:          number,
			SerialNumber:    serialOr(node.Unit.SerialNumber, i),
		}
		if err := s.insertUnit(ctx, unit); err != nil {
			return errs.Wrapf(err, "unit %s", number)
		}

		for j, o := range node.Outcomes {
			detail, err := domain.RequireText("outcomes.detail", o.Outcome.Detail, 0)
			if err != nil {
				return err
			}
			outcome := ports.LearningOutcome{
				ID:              s.newID(),
				UnitID:          unit.ID,
				QualificationID: qualification.ID,
				Detail:          detail,
				SerialNumber:    serialOr(o.Outcome.SerialNumber, j),
			}
			if err := s.insertOutcome(ctx, outcome); err != nil {
				return errs.Wrapf(err, "unit %s", number)
			}

			for k, ac := range o.Criteria {
				detail, err := domain.RequireText("criteria", ac.Detail, 0)
				if err != nil {
					return err
				}
				if err := s.insertCriterion(ctx, ports.AssessmentCriterion{
					ID:                s.newID(),
					LearningOutcomeID: outcome.ID,
					UnitID:            unit.ID,
					QualificationID:   qualification.ID,
					Detail:            detail,
					SerialNumber:      serialOr(ac.SerialNumber, k),
				}); err != nil {
					return errs.Wrapf(err, "unit %s", number)
				}
			}
		}
	}
	return nil
}

func serialOr(serial float64, index int) float64 {
	if serial > 0 {
		return serial
	}
	return float64(index + 1)
}
