package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"assesseez/internal/infrastructure/persistence/sqlite/model"
	"assesseez/internal/ports"
)

type StructureRepository struct {
	db *gorm.DB
}

func NewStructureRepository(db *gorm.DB) *StructureRepository {
	return &StructureRepository{db: db}
}

var _ ports.StructureRepository = (*StructureRepository)(nil)

func (r *StructureRepository) CreateQualification(ctx context.Context, q ports.Qualification) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}
	row := model.Qualification{
		ID:           q.ID,
		BusinessID:   q.BusinessID,
		Title:        q.Title,
		Number:       q.Number,
		AwardingBody: q.AwardingBody,
		CreatedAt:    q.CreatedAt,
		UpdatedAt:    q.UpdatedAt,
	}
	return translate(db.Create(&row).Error, "insert qualification")
}

func (r *StructureRepository) GetQualification(ctx context.Context, qualificationID string) (ports.Qualification, error) {
	return r.takeQualification(ctx, "id = ?", qualificationID)
}

func (r *StructureRepository) FindQualificationByNumber(ctx context.Context, businessID string, number string) (ports.Qualification, error) {
	return r.takeQualification(ctx, "business_id = ? AND number = ?", businessID, number)
}

func (r *StructureRepository) takeQualification(ctx context.Context, where string, args ...any) (ports.Qualification, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.Qualification{}, err
	}
	var row model.Qualification
	if err := db.Where(where, args...).Take(&row).Error; err != nil {
		return ports.Qualification{}, translate(err, "query qualification")
	}
	return mapQualification(row), nil
}

func (r *StructureRepository) ListQualifications(ctx context.Context, businessID string) ([]ports.Qualification, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}
	var rows []model.Qualification
	if err := db.Where("business_id = ?", businessID).Order("number asc").Find(&rows).Error; err != nil {
		return nil, translate(err, "query qualifications")
	}
	items := make([]ports.Qualification, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapQualification(row))
	}
	return items, nil
}

func (r *StructureRepository) CreateUnit(ctx context.Context, unit ports.Unit) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}
	row := model.Unit{
		ID:              unit.ID,
		QualificationID: unit.QualificationID,
		Title:           unit.Title,
		Number:          unit.Number,
		SerialNumber:    unit.SerialNumber,
		CreatedAt:       unit.CreatedAt,
		UpdatedAt:       unit.UpdatedAt,
	}
	return translate(db.Create(&row).Error, "insert unit")
}

func (r *StructureRepository) GetUnit(ctx context.Context, unitID string) (ports.Unit, error) {
	return r.takeUnit(ctx, "id = ?", unitID)
}

func (r *StructureRepository) FindUnitByNumber(ctx context.Context, qualificationID string, number string) (ports.Unit, error) {
	return r.takeUnit(ctx, "qualification_id = ? AND number = ?", qualificationID, number)
}

func (r *StructureRepository) takeUnit(ctx context.Context, where string, args ...any) (ports.Unit, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.Unit{}, err
	}
	var row model.Unit
	if err := db.Where(where, args...).Take(&row).Error; err != nil {
		return ports.Unit{}, translate(err, "query unit")
	}
	return mapUnit(row), nil
}

func (r *StructureRepository) ListUnits(ctx context.Context, qualificationID string) ([]ports.Unit, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}
	var rows []model.Unit
	if err := db.Where("qualification_id = ?", qualificationID).
		Order("serial_number asc, number asc").
		Find(&rows).Error; err != nil {
		return nil, translate(err, "query units")
	}
	items := make([]ports.Unit, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapUnit(row))
	}
	return items, nil
}

// DeleteUnit removes the unit with its outcomes and criteria.
func (r *StructureRepository) DeleteUnit(ctx context.Context, unitID string) error {
	return withinTx(ctx, r.db, func(db *gorm.DB) error {
		if err := db.Where("unit_id = ?", unitID).Delete(&model.AssessmentCriterion{}).Error; err != nil {
			return translate(err, "delete unit criteria")
		}
		if err := db.Where("unit_id = ?", unitID).Delete(&model.LearningOutcome{}).Error; err != nil {
			return translate(err, "delete unit outcomes")
		}
		if err := db.Where("id = ?", unitID).Delete(&model.Unit{}).Error; err != nil {
			return translate(err, "delete unit")
		}
		return nil
	})
}

func (r *StructureRepository) CreateLearningOutcome(ctx context.Context, outcome ports.LearningOutcome) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}
	row := model.LearningOutcome{
		ID:              outcome.ID,
		UnitID:          outcome.UnitID,
		QualificationID: outcome.QualificationID,
		Detail:          outcome.Detail,
		SerialNumber:    outcome.SerialNumber,
		CreatedAt:       outcome.CreatedAt,
		UpdatedAt:       outcome.UpdatedAt,
	}
	return translate(db.Create(&row).Error, "insert learning outcome")
}

func (r *StructureRepository) GetLearningOutcome(ctx context.Context, outcomeID string) (ports.LearningOutcome, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.LearningOutcome{}, err
	}
	var row model.LearningOutcome
	if err := db.Where("id = ?", outcomeID).Take(&row).Error; err != nil {
		return ports.LearningOutcome{}, translate(err, "query learning outcome")
	}
	return mapLearningOutcome(row), nil
}

func (r *StructureRepository) ListLearningOutcomes(ctx context.Context, unitID string) ([]ports.LearningOutcome, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}
	var rows []model.LearningOutcome
	if err := db.Where("unit_id = ?", unitID).Order("serial_number asc, id asc").Find(&rows).Error; err != nil {
		return nil, translate(err, "query learning outcomes")
	}
	items := make([]ports.LearningOutcome, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapLearningOutcome(row))
	}
	return items, nil
}

func (r *StructureRepository) DeleteLearningOutcome(ctx context.Context, outcomeID string) error {
	return withinTx(ctx, r.db, func(db *gorm.DB) error {
		if err := db.Where("learning_outcome_id = ?", outcomeID).Delete(&model.AssessmentCriterion{}).Error; err != nil {
			return translate(err, "delete outcome criteria")
		}
		if err := db.Where("id = ?", outcomeID).Delete(&model.LearningOutcome{}).Error; err != nil {
			return translate(err, "delete learning outcome")
		}
		return nil
	})
}

func (r *StructureRepository) CreateCriterion(ctx context.Context, criterion ports.AssessmentCriterion) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}
	row := model.AssessmentCriterion{
		ID:                criterion.ID,
		LearningOutcomeID: criterion.LearningOutcomeID,
		UnitID:            criterion.UnitID,
		QualificationID:   criterion.QualificationID,
		Detail:            criterion.Detail,
		SerialNumber:      criterion.SerialNumber,
		CreatedAt:         criterion.CreatedAt,
		UpdatedAt:         criterion.UpdatedAt,
	}
	return translate(db.Create(&row).Error, "insert assessment criterion")
}

func (r *StructureRepository) GetCriterion(ctx context.Context, criterionID string) (ports.AssessmentCriterion, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.AssessmentCriterion{}, err
	}
	var row model.AssessmentCriterion
	if err := db.Where("id = ?", criterionID).Take(&row).Error; err != nil {
		return ports.AssessmentCriterion{}, translate(err, "query assessment criterion")
	}
	return mapCriterion(row), nil
}

func (r *StructureRepository) ListCriteriaByOutcome(ctx context.Context, outcomeID string) ([]ports.AssessmentCriterion, error) {
	return r.listCriteria(ctx, "learning_outcome_id = ?", outcomeID)
}

func (r *StructureRepository) ListCriteriaByUnit(ctx context.Context, unitID string) ([]ports.AssessmentCriterion, error) {
	return r.listCriteria(ctx, "unit_id = ?", unitID)
}

func (r *StructureRepository) ListCriteriaByQualification(ctx context.Context, qualificationID string) ([]ports.AssessmentCriterion, error) {
	return r.listCriteria(ctx, "qualification_id = ?", qualificationID)
}

func (r *StructureRepository) listCriteria(ctx context.Context, where string, arg string) ([]ports.AssessmentCriterion, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}
	var rows []model.AssessmentCriterion
	if err := db.Where(where, arg).Order("serial_number asc, id asc").Find(&rows).Error; err != nil {
		return nil, translate(err, "query assessment criteria")
	}
	items := make([]ports.AssessmentCriterion, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapCriterion(row))
	}
	return items, nil
}

func (r *StructureRepository) DeleteCriterion(ctx context.Context, criterionID string) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}
	return translate(db.Where("id = ?", criterionID).Delete(&model.AssessmentCriterion{}).Error, "delete assessment criterion")
}

func (r *StructureRepository) CountSubmissionsUnder(ctx context.Context, node ports.StructureNode) (int64, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return 0, err
	}

	var criteria *gorm.DB
	workbooks := db.Model(&model.WorkbookSubmission{})
	switch node.Kind {
	case ports.NodeUnit:
		criteria = db.Model(&model.AssessmentCriterion{}).Select("id").Where("unit_id = ?", node.ID)
		workbooks = workbooks.Where("learning_outcome_id IN (?)",
			db.Model(&model.LearningOutcome{}).Select("id").Where("unit_id = ?", node.ID))
	case ports.NodeLearningOutcome:
		criteria = db.Model(&model.AssessmentCriterion{}).Select("id").Where("learning_outcome_id = ?", node.ID)
		workbooks = workbooks.Where("learning_outcome_id = ?", node.ID)
	case ports.NodeCriterion:
		criteria = db.Model(&model.AssessmentCriterion{}).Select("id").Where("id = ?", node.ID)
		workbooks = nil
	default:
		return 0, fmt.Errorf("unknown structure node kind %q", node.Kind)
	}

	var evidenceCount int64
	if err := db.Model(&model.EvidenceSubmission{}).
		Where("criterion_id IN (?)", criteria).
		Count(&evidenceCount).Error; err != nil {
		return 0, translate(err, "count evidence under node")
	}
	if workbooks == nil {
		return evidenceCount, nil
	}

	var workbookCount int64
	if err := workbooks.Count(&workbookCount).Error; err != nil {
		return 0, translate(err, "count workbooks under node")
	}
	return evidenceCount + workbookCount, nil
}

func mapQualification(row model.Qualification) ports.Qualification {
	return ports.Qualification{
		ID:           row.ID,
		BusinessID:   row.BusinessID,
		Title:        row.Title,
		Number:       row.Number,
		AwardingBody: row.AwardingBody,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

func mapUnit(row model.Unit) ports.Unit {
	return ports.Unit{
		ID:              row.ID,
		QualificationID: row.QualificationID,
		Title:           row.Title,
		Number:          row.Number,
		SerialNumber:    row.SerialNumber,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
}

func mapLearningOutcome(row model.LearningOutcome) ports.LearningOutcome {
	return ports.LearningOutcome{
		ID:              row.ID,
		UnitID:          row.UnitID,
		QualificationID: row.QualificationID,
		Detail:          row.Detail,
		SerialNumber:    row.SerialNumber,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
}

func mapCriterion(row model.AssessmentCriterion) ports.AssessmentCriterion {
	return ports.AssessmentCriterion{
		ID:                row.ID,
		LearningOutcomeID: row.LearningOutcomeID,
		UnitID:            row.UnitID,
		QualificationID:   row.QualificationID,
		Detail:            row.Detail,
		SerialNumber:      row.SerialNumber,
		CreatedAt:         row.CreatedAt,
		UpdatedAt:         row.UpdatedAt,
	}
}
