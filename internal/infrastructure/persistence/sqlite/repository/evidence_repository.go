package repository

import (
	"context"

	"gorm.io/gorm"

	"assesseez/internal/domain/workflow"
	"assesseez/internal/infrastructure/persistence/sqlite/model"
	"assesseez/internal/ports"
)

const latestFirst = "submitted_at desc, id desc"

type EvidenceRepository struct {
	db *gorm.DB
}

func NewEvidenceRepository(db *gorm.DB) *EvidenceRepository {
	return &EvidenceRepository{db: db}
}

var _ ports.EvidenceRepository = (*EvidenceRepository)(nil)

func (r *EvidenceRepository) LatestEvidence(ctx context.Context, learnerID string, criterionID string) (ports.EvidenceSubmission, error) {
	return r.takeEvidence(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("learner_id = ? AND criterion_id = ?", learnerID, criterionID).Order(latestFirst)
	})
}

func (r *EvidenceRepository) GetEvidence(ctx context.Context, submissionID string) (ports.EvidenceSubmission, error) {
	return r.takeEvidence(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("id = ?", submissionID)
	})
}

func (r *EvidenceRepository) LatestEvidenceInUnit(ctx context.Context, learnerID string, unitID string) (ports.EvidenceSubmission, error) {
	return r.takeEvidence(ctx, func(db *gorm.DB) *gorm.DB {
		criteria := db.Model(&model.AssessmentCriterion{}).Select("id").Where("unit_id = ?", unitID)
		return db.Where("learner_id = ? AND criterion_id IN (?)", learnerID, criteria).Order(latestFirst)
	})
}

func (r *EvidenceRepository) takeEvidence(ctx context.Context, scope func(*gorm.DB) *gorm.DB) (ports.EvidenceSubmission, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.EvidenceSubmission{}, err
	}
	var row model.EvidenceSubmission
	if err := scope(db).Take(&row).Error; err != nil {
		return ports.EvidenceSubmission{}, translate(err, "query evidence submission")
	}
	files, err := listFiles(db, []string{row.ID})
	if err != nil {
		return ports.EvidenceSubmission{}, err
	}
	return mapEvidence(row, files[row.ID]), nil
}

func (r *EvidenceRepository) CreateEvidence(ctx context.Context, submission ports.EvidenceSubmission) error {
	return withinTx(ctx, r.db, func(db *gorm.DB) error {
		row := model.EvidenceSubmission{
			ID:                   submission.ID,
			LearnerID:            submission.LearnerID,
			CriterionID:          submission.CriterionID,
			Detail:               submission.Detail,
			Status:               string(submission.Status),
			AssessorMembershipID: optionalString(submission.AssessorMembershipID),
			SubmittedAt:          submission.SubmittedAt,
			UpdatedAt:            submission.UpdatedAt,
		}
		if err := db.Create(&row).Error; err != nil {
			return translate(err, "insert evidence submission")
		}
		return insertFiles(db, submission.ID, submission.Files)
	})
}

func (r *EvidenceRepository) UpdatePendingEvidence(ctx context.Context, submissionID string, detail string, files []ports.FileRecord, updatedAt string) error {
	return withinTx(ctx, r.db, func(db *gorm.DB) error {
		result := db.Model(&model.EvidenceSubmission{}).
			Where("id = ? AND status = ?", submissionID, string(workflow.EvidenceSubmitted)).
			Updates(map[string]any{
				"detail":     detail,
				"updated_at": updatedAt,
			})
		if result.Error != nil {
			return translate(result.Error, "update pending evidence")
		}
		if result.RowsAffected == 0 {
			return ports.ErrRecordNotFound
		}
		if files == nil {
			return nil
		}
		if err := db.Where("submission_id = ?", submissionID).Delete(&model.EvidenceFile{}).Error; err != nil {
			return translate(err, "delete evidence files")
		}
		return insertFiles(db, submissionID, files)
	})
}

func (r *EvidenceRepository) DecideEvidence(ctx context.Context, submissionID string, status workflow.EvidenceStatus, assessorMembershipID string, updatedAt string) (bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return false, err
	}
	return compareAndDecide(db.Model(&model.EvidenceSubmission{}), submissionID, status, assessorMembershipID, updatedAt)
}

func (r *EvidenceRepository) ListEvidenceHistory(ctx context.Context, learnerID string, criterionID string) ([]ports.EvidenceSubmission, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}
	var rows []model.EvidenceSubmission
	if err := db.Where("learner_id = ? AND criterion_id = ?", learnerID, criterionID).
		Order(latestFirst).
		Find(&rows).Error; err != nil {
		return nil, translate(err, "query evidence history")
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	files, err := listFiles(db, ids)
	if err != nil {
		return nil, err
	}

	items := make([]ports.EvidenceSubmission, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapEvidence(row, files[row.ID]))
	}
	return items, nil
}

func (r *EvidenceRepository) LatestStatuses(ctx context.Context, learnerID string, criterionIDs []string) (map[string]workflow.EvidenceStatus, error) {
	out := make(map[string]workflow.EvidenceStatus, len(criterionIDs))
	if len(criterionIDs) == 0 {
		return out, nil
	}
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var rows []model.EvidenceSubmission
	if err := db.Select("criterion_id", "status", "submitted_at", "id").
		Where("learner_id = ? AND criterion_id IN ?", learnerID, criterionIDs).
		Order(latestFirst).
		Find(&rows).Error; err != nil {
		return nil, translate(err, "query latest evidence statuses")
	}
	for _, row := range rows {
		if _, seen := out[row.CriterionID]; seen {
			continue
		}
		out[row.CriterionID] = workflow.EvidenceStatus(row.Status)
	}
	return out, nil
}

func (r *EvidenceRepository) CreateFeedback(ctx context.Context, feedback ports.Feedback) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}
	row := model.Feedback{
		ID:                   feedback.ID,
		SubmissionID:         feedback.SubmissionID,
		AssessorMembershipID: feedback.AssessorMembershipID,
		Text:                 feedback.Text,
		CreatedAt:            feedback.CreatedAt,
	}
	return translate(db.Create(&row).Error, "insert feedback")
}

func (r *EvidenceRepository) ListFeedback(ctx context.Context, submissionID string) ([]ports.Feedback, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}
	var rows []model.Feedback
	if err := db.Where("submission_id = ?", submissionID).Order("created_at asc, id asc").Find(&rows).Error; err != nil {
		return nil, translate(err, "query feedback")
	}
	items := make([]ports.Feedback, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.Feedback{
			ID:                   row.ID,
			SubmissionID:         row.SubmissionID,
			AssessorMembershipID: row.AssessorMembershipID,
			Text:                 row.Text,
			CreatedAt:            row.CreatedAt,
		})
	}
	return items, nil
}

func (r *EvidenceRepository) LatestWorkbook(ctx context.Context, learnerID string, outcomeID string) (ports.WorkbookSubmission, error) {
	return r.takeWorkbook(ctx, "learner_id = ? AND learning_outcome_id = ?", learnerID, outcomeID)
}

func (r *EvidenceRepository) GetWorkbook(ctx context.Context, submissionID string) (ports.WorkbookSubmission, error) {
	return r.takeWorkbook(ctx, "id = ?", submissionID)
}

func (r *EvidenceRepository) takeWorkbook(ctx context.Context, where string, args ...any) (ports.WorkbookSubmission, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.WorkbookSubmission{}, err
	}
	var row model.WorkbookSubmission
	if err := db.Where(where, args...).Order(latestFirst).Take(&row).Error; err != nil {
		return ports.WorkbookSubmission{}, translate(err, "query workbook submission")
	}
	return mapWorkbook(row), nil
}

func (r *EvidenceRepository) CreateWorkbook(ctx context.Context, submission ports.WorkbookSubmission) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}
	row := model.WorkbookSubmission{
		ID:                   submission.ID,
		LearnerID:            submission.LearnerID,
		LearningOutcomeID:    submission.LearningOutcomeID,
		Detail:               submission.Detail,
		Status:               string(submission.Status),
		AssessorMembershipID: optionalString(submission.AssessorMembershipID),
		FileName:             submission.File.Name,
		FileKey:              submission.File.StorageKey,
		FileSize:             submission.File.SizeBytes,
		SubmittedAt:          submission.SubmittedAt,
		UpdatedAt:            submission.UpdatedAt,
	}
	return translate(db.Create(&row).Error, "insert workbook submission")
}

func (r *EvidenceRepository) UpdatePendingWorkbook(ctx context.Context, submissionID string, detail string, file *workflow.FileRef, updatedAt string) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}
	values := map[string]any{
		"detail":     detail,
		"updated_at": updatedAt,
	}
	if file != nil {
		values["file_name"] = file.Name
		values["file_key"] = file.StorageKey
		values["file_size"] = file.SizeBytes
	}
	result := db.Model(&model.WorkbookSubmission{}).
		Where("id = ? AND status = ?", submissionID, string(workflow.EvidenceSubmitted)).
		Updates(values)
	if result.Error != nil {
		return translate(result.Error, "update pending workbook")
	}
	if result.RowsAffected == 0 {
		return ports.ErrRecordNotFound
	}
	return nil
}

func (r *EvidenceRepository) DecideWorkbook(ctx context.Context, submissionID string, status workflow.EvidenceStatus, assessorMembershipID string, updatedAt string) (bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return false, err
	}
	return compareAndDecide(db.Model(&model.WorkbookSubmission{}), submissionID, status, assessorMembershipID, updatedAt)
}

func (r *EvidenceRepository) ListWorkbookHistory(ctx context.Context, learnerID string, outcomeID string) ([]ports.WorkbookSubmission, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}
	var rows []model.WorkbookSubmission
	if err := db.Where("learner_id = ? AND learning_outcome_id = ?", learnerID, outcomeID).
		Order(latestFirst).
		Find(&rows).Error; err != nil {
		return nil, translate(err, "query workbook history")
	}
	items := make([]ports.WorkbookSubmission, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapWorkbook(row))
	}
	return items, nil
}

// compareAndDecide only moves rows that are still SUBMITTED, so a racing second decision is a no-op.
func compareAndDecide(query *gorm.DB, submissionID string, status workflow.EvidenceStatus, assessorMembershipID string, updatedAt string) (bool, error) {
	result := query.
		Where("id = ? AND status = ?", submissionID, string(workflow.EvidenceSubmitted)).
		Updates(map[string]any{
			"status":                 string(status),
			"assessor_membership_id": assessorMembershipID,
			"updated_at":             updatedAt,
		})
	if result.Error != nil {
		return false, translate(result.Error, "decide submission")
	}
	return result.RowsAffected > 0, nil
}

func insertFiles(db *gorm.DB, submissionID string, files []ports.FileRecord) error {
	if len(files) == 0 {
		return nil
	}
	rows := make([]model.EvidenceFile, 0, len(files))
	for _, file := range files {
		rows = append(rows, model.EvidenceFile{
			ID:           file.ID,
			SubmissionID: submissionID,
			Name:         file.Name,
			StorageKey:   file.StorageKey,
			SizeBytes:    file.SizeBytes,
			CreatedAt:    file.CreatedAt,
		})
	}
	if err := db.Create(&rows).Error; err != nil {
		return translate(err, "insert evidence files")
	}
	return nil
}

func listFiles(db *gorm.DB, submissionIDs []string) (map[string][]ports.FileRecord, error) {
	out := make(map[string][]ports.FileRecord, len(submissionIDs))
	if len(submissionIDs) == 0 {
		return out, nil
	}
	var rows []model.EvidenceFile
	if err := db.Where("submission_id IN ?", submissionIDs).Order("created_at asc, name asc").Find(&rows).Error; err != nil {
		return nil, translate(err, "query evidence files")
	}
	for _, row := range rows {
		out[row.SubmissionID] = append(out[row.SubmissionID], ports.FileRecord{
			ID:           row.ID,
			SubmissionID: row.SubmissionID,
			Name:         row.Name,
			StorageKey:   row.StorageKey,
			SizeBytes:    row.SizeBytes,
			CreatedAt:    row.CreatedAt,
		})
	}
	return out, nil
}

func mapEvidence(row model.EvidenceSubmission, files []ports.FileRecord) ports.EvidenceSubmission {
	return ports.EvidenceSubmission{
		ID:                   row.ID,
		LearnerID:            row.LearnerID,
		CriterionID:          row.CriterionID,
		Detail:               row.Detail,
		Status:               workflow.EvidenceStatus(row.Status),
		AssessorMembershipID: derefString(row.AssessorMembershipID),
		SubmittedAt:          row.SubmittedAt,
		UpdatedAt:            row.UpdatedAt,
		Files:                files,
	}
}

func mapWorkbook(row model.WorkbookSubmission) ports.WorkbookSubmission {
	return ports.WorkbookSubmission{
		ID:                   row.ID,
		LearnerID:            row.LearnerID,
		LearningOutcomeID:    row.LearningOutcomeID,
		Detail:               row.Detail,
		Status:               workflow.EvidenceStatus(row.Status),
		AssessorMembershipID: derefString(row.AssessorMembershipID),
		File: workflow.FileRef{
			Name:       row.FileName,
			StorageKey: row.FileKey,
			SizeBytes:  row.FileSize,
		},
		SubmittedAt: row.SubmittedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}
