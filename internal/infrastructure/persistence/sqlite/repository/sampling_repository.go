package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"assesseez/internal/domain/workflow"
	"assesseez/internal/infrastructure/persistence/sqlite/model"
	"assesseez/internal/ports"
)

type SamplingRepository struct {
	db *gorm.DB
}

func NewSamplingRepository(db *gorm.DB) *SamplingRepository {
	return &SamplingRepository{db: db}
}

var _ ports.SamplingRepository = (*SamplingRepository)(nil)

func (r *SamplingRepository) CreateSampling(ctx context.Context, sampling ports.Sampling) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}
	row := model.Sampling{
		ID:              sampling.ID,
		IQAMembershipID: sampling.IQAMembershipID,
		LearnerID:       sampling.LearnerID,
		UnitID:          sampling.UnitID,
		EvidenceID:      sampling.EvidenceID,
		SamplingType:    string(sampling.SamplingType),
		Outcome:         string(sampling.Outcome),
		Comments:        sampling.Comments,
		CreatedAt:       sampling.CreatedAt,
	}
	return translate(db.Create(&row).Error, "insert sampling")
}

func (r *SamplingRepository) ListSamplings(ctx context.Context, filter ports.SamplingFilter) ([]ports.Sampling, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	query := db.Model(&model.Sampling{})
	if id := strings.TrimSpace(filter.LearnerID); id != "" {
		query = query.Where("learner_id = ?", id)
	}
	if id := strings.TrimSpace(filter.UnitID); id != "" {
		query = query.Where("unit_id = ?", id)
	}
	if id := strings.TrimSpace(filter.IQAMembershipID); id != "" {
		query = query.Where("iqa_membership_id = ?", id)
	}

	var rows []model.Sampling
	if err := query.Order("created_at desc, id desc").Find(&rows).Error; err != nil {
		return nil, translate(err, "query samplings")
	}
	items := make([]ports.Sampling, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.Sampling{
			ID:              row.ID,
			IQAMembershipID: row.IQAMembershipID,
			LearnerID:       row.LearnerID,
			UnitID:          row.UnitID,
			EvidenceID:      row.EvidenceID,
			SamplingType:    workflow.SamplingType(row.SamplingType),
			Outcome:         workflow.Outcome(row.Outcome),
			Comments:        row.Comments,
			CreatedAt:       row.CreatedAt,
		})
	}
	return items, nil
}

func (r *SamplingRepository) CountSampledUnits(ctx context.Context, iqaMembershipID string, learnerID string) (int, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return 0, err
	}
	var count int64
	if err := db.Model(&model.Sampling{}).
		Where("iqa_membership_id = ? AND learner_id = ?", iqaMembershipID, learnerID).
		Distinct("unit_id").
		Count(&count).Error; err != nil {
		return 0, translate(err, "count sampled units")
	}
	return int(count), nil
}

func (r *SamplingRepository) CreateIQAFeedback(ctx context.Context, feedback ports.IQAFeedback) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}
	row := model.IQAFeedback{
		ID:                   feedback.ID,
		SamplingID:           feedback.SamplingID,
		AssessorMembershipID: feedback.AssessorMembershipID,
		Feedback:             feedback.Feedback,
		CreatedAt:            feedback.CreatedAt,
	}
	return translate(db.Create(&row).Error, "insert iqa feedback")
}

func (r *SamplingRepository) ListIQAFeedback(ctx context.Context, assessorMembershipID string) ([]ports.IQAFeedback, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}
	var rows []model.IQAFeedback
	if err := db.Where("assessor_membership_id = ?", assessorMembershipID).
		Order("created_at desc, id desc").
		Find(&rows).Error; err != nil {
		return nil, translate(err, "query iqa feedback")
	}
	items := make([]ports.IQAFeedback, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.IQAFeedback{
			ID:                   row.ID,
			SamplingID:           row.SamplingID,
			AssessorMembershipID: row.AssessorMembershipID,
			Feedback:             row.Feedback,
			CreatedAt:            row.CreatedAt,
		})
	}
	return items, nil
}

func (r *SamplingRepository) CreateAssessorFeedback(ctx context.Context, feedback ports.AssessorFeedback) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}
	row := model.AssessorFeedback{
		ID:                   feedback.ID,
		IQAMembershipID:      feedback.IQAMembershipID,
		AssessorMembershipID: feedback.AssessorMembershipID,
		QualificationID:      feedback.QualificationID,
		SamplingType:         string(feedback.SamplingType),
		Date:                 feedback.Date,
		Comments:             feedback.Comments,
		CreatedAt:            feedback.CreatedAt,
	}
	return translate(db.Create(&row).Error, "insert assessor feedback")
}

func (r *SamplingRepository) ListAssessorFeedback(ctx context.Context, assessorMembershipID string, iqaMembershipID string) ([]ports.AssessorFeedback, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}
	query := db.Model(&model.AssessorFeedback{})
	if id := strings.TrimSpace(assessorMembershipID); id != "" {
		query = query.Where("assessor_membership_id = ?", id)
	}
	if id := strings.TrimSpace(iqaMembershipID); id != "" {
		query = query.Where("iqa_membership_id = ?", id)
	}
	var rows []model.AssessorFeedback
	if err := query.Order("date desc, created_at desc").Find(&rows).Error; err != nil {
		return nil, translate(err, "query assessor feedback")
	}
	items := make([]ports.AssessorFeedback, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.AssessorFeedback{
			ID:                   row.ID,
			IQAMembershipID:      row.IQAMembershipID,
			AssessorMembershipID: row.AssessorMembershipID,
			QualificationID:      row.QualificationID,
			SamplingType:         workflow.SamplingType(row.SamplingType),
			Date:                 row.Date,
			Comments:             row.Comments,
			CreatedAt:            row.CreatedAt,
		})
	}
	return items, nil
}
