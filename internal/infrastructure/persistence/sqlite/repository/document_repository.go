package repository

import (
	"context"

	"gorm.io/gorm"

	"assesseez/internal/domain/workflow"
	"assesseez/internal/infrastructure/persistence/sqlite/model"
	"assesseez/internal/ports"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

var _ ports.DocumentRepository = (*DocumentRepository)(nil)

func (r *DocumentRepository) CreateRequirement(ctx context.Context, requirement ports.DocumentRequirement) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}
	row := model.DocumentRequirement{
		ID:              requirement.ID,
		QualificationID: requirement.QualificationID,
		Title:           requirement.Title,
		Description:     requirement.Description,
		CreatedAt:       requirement.CreatedAt,
	}
	if requirement.Template != nil {
		row.TemplateName = &requirement.Template.Name
		row.TemplateKey = &requirement.Template.StorageKey
		row.TemplateSize = requirement.Template.SizeBytes
	}
	return translate(db.Create(&row).Error, "insert document requirement")
}

func (r *DocumentRepository) GetRequirement(ctx context.Context, requirementID string) (ports.DocumentRequirement, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.DocumentRequirement{}, err
	}
	var row model.DocumentRequirement
	if err := db.Where("id = ?", requirementID).Take(&row).Error; err != nil {
		return ports.DocumentRequirement{}, translate(err, "query document requirement")
	}
	return mapRequirement(row), nil
}

func (r *DocumentRepository) ListRequirements(ctx context.Context, qualificationID string) ([]ports.DocumentRequirement, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}
	var rows []model.DocumentRequirement
	if err := db.Where("qualification_id = ?", qualificationID).Order("created_at asc, id asc").Find(&rows).Error; err != nil {
		return nil, translate(err, "query document requirements")
	}
	items := make([]ports.DocumentRequirement, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapRequirement(row))
	}
	return items, nil
}

func (r *DocumentRepository) FindSubmission(ctx context.Context, learnerID string, requirementID string) (ports.DocumentSubmission, error) {
	return r.takeSubmission(ctx, "learner_id = ? AND requirement_id = ?", learnerID, requirementID)
}

func (r *DocumentRepository) GetSubmission(ctx context.Context, submissionID string) (ports.DocumentSubmission, error) {
	return r.takeSubmission(ctx, "id = ?", submissionID)
}

func (r *DocumentRepository) takeSubmission(ctx context.Context, where string, args ...any) (ports.DocumentSubmission, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.DocumentSubmission{}, err
	}
	var row model.DocumentSubmission
	if err := db.Where(where, args...).Take(&row).Error; err != nil {
		return ports.DocumentSubmission{}, translate(err, "query document submission")
	}
	return mapDocumentSubmission(row), nil
}

func (r *DocumentRepository) CreateSubmission(ctx context.Context, submission ports.DocumentSubmission) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}
	row := toDocumentSubmissionRow(submission)
	return translate(db.Create(&row).Error, "insert document submission")
}

func (r *DocumentRepository) UpdateSubmission(ctx context.Context, submission ports.DocumentSubmission, expected workflow.DocumentStatus) (bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return false, err
	}
	row := toDocumentSubmissionRow(submission)
	result := db.Model(&model.DocumentSubmission{}).
		Where("id = ? AND status = ?", submission.ID, string(expected)).
		Select("file_name", "file_key", "file_size", "status", "comments", "assessor_membership_id", "submitted_at", "updated_at").
		Updates(&row)
	if result.Error != nil {
		return false, translate(result.Error, "update document submission")
	}
	return result.RowsAffected > 0, nil
}

func (r *DocumentRepository) ListSubmissions(ctx context.Context, learnerID string) ([]ports.DocumentSubmission, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}
	var rows []model.DocumentSubmission
	if err := db.Where("learner_id = ?", learnerID).Order("submitted_at asc, id asc").Find(&rows).Error; err != nil {
		return nil, translate(err, "query document submissions")
	}
	items := make([]ports.DocumentSubmission, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapDocumentSubmission(row))
	}
	return items, nil
}

func (r *DocumentRepository) ReplaceRemark(ctx context.Context, remark ports.DocumentRemark) error {
	return withinTx(ctx, r.db, func(db *gorm.DB) error {
		if err := db.Where("submission_id = ? AND iqa_membership_id = ?", remark.SubmissionID, remark.IQAMembershipID).
			Delete(&model.DocumentRemark{}).Error; err != nil {
			return translate(err, "delete previous remark")
		}
		row := model.DocumentRemark{
			ID:              remark.ID,
			SubmissionID:    remark.SubmissionID,
			IQAMembershipID: remark.IQAMembershipID,
			Remark:          string(remark.Remark),
			Comments:        remark.Comments,
			CreatedAt:       remark.CreatedAt,
		}
		return translate(db.Create(&row).Error, "insert document remark")
	})
}

func (r *DocumentRepository) ListRemarks(ctx context.Context, submissionID string) ([]ports.DocumentRemark, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}
	var rows []model.DocumentRemark
	if err := db.Where("submission_id = ?", submissionID).Order("created_at asc, id asc").Find(&rows).Error; err != nil {
		return nil, translate(err, "query document remarks")
	}
	items := make([]ports.DocumentRemark, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.DocumentRemark{
			ID:              row.ID,
			SubmissionID:    row.SubmissionID,
			IQAMembershipID: row.IQAMembershipID,
			Remark:          workflow.Outcome(row.Remark),
			Comments:        row.Comments,
			CreatedAt:       row.CreatedAt,
		})
	}
	return items, nil
}

func (r *DocumentRepository) CreateLearnerFile(ctx context.Context, file ports.LearnerFile) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}
	row := toLearnerFileRow(file)
	return translate(db.Create(&row).Error, "insert learner file")
}

func (r *DocumentRepository) GetLearnerFile(ctx context.Context, fileID string) (ports.LearnerFile, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.LearnerFile{}, err
	}
	var row model.LearnerFile
	if err := db.Where("id = ?", fileID).Take(&row).Error; err != nil {
		return ports.LearnerFile{}, translate(err, "query learner file")
	}
	return mapLearnerFile(row), nil
}

func (r *DocumentRepository) UpdateLearnerFile(ctx context.Context, file ports.LearnerFile) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}
	row := toLearnerFileRow(file)
	result := db.Model(&model.LearnerFile{}).Where("id = ?", file.ID).
		Select("title", "description", "file_name", "file_key", "file_size", "updated_at").
		Updates(&row)
	if result.Error != nil {
		return translate(result.Error, "update learner file")
	}
	if result.RowsAffected == 0 {
		return ports.ErrRecordNotFound
	}
	return nil
}

func (r *DocumentRepository) DeleteLearnerFile(ctx context.Context, fileID string) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}
	result := db.Where("id = ?", fileID).Delete(&model.LearnerFile{})
	if result.Error != nil {
		return translate(result.Error, "delete learner file")
	}
	if result.RowsAffected == 0 {
		return ports.ErrRecordNotFound
	}
	return nil
}

func (r *DocumentRepository) ListLearnerFiles(ctx context.Context, learnerID string) ([]ports.LearnerFile, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}
	var rows []model.LearnerFile
	if err := db.Where("learner_id = ?", learnerID).Order("uploaded_at desc, id desc").Find(&rows).Error; err != nil {
		return nil, translate(err, "query learner files")
	}
	items := make([]ports.LearnerFile, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapLearnerFile(row))
	}
	return items, nil
}

func toLearnerFileRow(file ports.LearnerFile) model.LearnerFile {
	return model.LearnerFile{
		ID:                     file.ID,
		LearnerID:              file.LearnerID,
		Title:                  file.Title,
		Description:            file.Description,
		FileName:               file.File.Name,
		FileKey:                file.File.StorageKey,
		FileSize:               file.File.SizeBytes,
		UploadedByMembershipID: file.UploadedByMembershipID,
		UploadedAt:             file.UploadedAt,
		UpdatedAt:              file.UpdatedAt,
	}
}

func mapLearnerFile(row model.LearnerFile) ports.LearnerFile {
	return ports.LearnerFile{
		ID:          row.ID,
		LearnerID:   row.LearnerID,
		Title:       row.Title,
		Description: row.Description,
		File: workflow.FileRef{
			Name:       row.FileName,
			StorageKey: row.FileKey,
			SizeBytes:  row.FileSize,
		},
		UploadedByMembershipID: row.UploadedByMembershipID,
		UploadedAt:             row.UploadedAt,
		UpdatedAt:              row.UpdatedAt,
	}
}

func toDocumentSubmissionRow(submission ports.DocumentSubmission) model.DocumentSubmission {
	return model.DocumentSubmission{
		ID:                   submission.ID,
		LearnerID:            submission.LearnerID,
		RequirementID:        submission.RequirementID,
		FileName:             submission.File.Name,
		FileKey:              submission.File.StorageKey,
		FileSize:             submission.File.SizeBytes,
		Status:               string(submission.Status),
		Comments:             submission.Comments,
		AssessorMembershipID: optionalString(submission.AssessorMembershipID),
		SubmittedAt:          submission.SubmittedAt,
		UpdatedAt:            submission.UpdatedAt,
	}
}

func mapDocumentSubmission(row model.DocumentSubmission) ports.DocumentSubmission {
	return ports.DocumentSubmission{
		ID:            row.ID,
		LearnerID:     row.LearnerID,
		RequirementID: row.RequirementID,
		File: workflow.FileRef{
			Name:       row.FileName,
			StorageKey: row.FileKey,
			SizeBytes:  row.FileSize,
		},
		Status:               workflow.DocumentStatus(row.Status),
		Comments:             row.Comments,
		AssessorMembershipID: derefString(row.AssessorMembershipID),
		SubmittedAt:          row.SubmittedAt,
		UpdatedAt:            row.UpdatedAt,
	}
}

func mapRequirement(row model.DocumentRequirement) ports.DocumentRequirement {
	requirement := ports.DocumentRequirement{
		ID:              row.ID,
		QualificationID: row.QualificationID,
		Title:           row.Title,
		Description:     row.Description,
		CreatedAt:       row.CreatedAt,
	}
	if row.TemplateKey != nil {
		requirement.Template = &workflow.FileRef{
			Name:       derefString(row.TemplateName),
			StorageKey: *row.TemplateKey,
			SizeBytes:  row.TemplateSize,
		}
	}
	return requirement
}
