package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"assesseez/internal/domain/workflow"
	"assesseez/internal/infrastructure/persistence/sqlite/model"
	"assesseez/internal/ports"
)

type AssignmentRepository struct {
	db *gorm.DB
}

func NewAssignmentRepository(db *gorm.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

var _ ports.AssignmentRepository = (*AssignmentRepository)(nil)

// LockMembership takes a row lock on the membership for the rest of the
// transaction so role checks and inserts for it run one at a time.
func (r *AssignmentRepository) LockMembership(ctx context.Context, membershipID string) error {
	if ports.TxFromContext(ctx) == nil {
		return errors.New("lock membership requires a transaction")
	}
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}
	var row model.Membership
	err = db.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		Select("id").
		Where("id = ?", membershipID).
		Take(&row).Error
	return translate(err, "lock membership")
}

func (r *AssignmentRepository) HeldRoles(ctx context.Context, membershipID string, qualificationID string) (workflow.RoleSet, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	roles := workflow.NewRoleSet()

	var learnerCount int64
	if err := db.Model(&model.LearnerAssignment{}).
		Where("membership_id = ? AND qualification_id = ?", membershipID, qualificationID).
		Count(&learnerCount).Error; err != nil {
		return nil, translate(err, "count learner assignment")
	}
	if learnerCount > 0 {
		roles.Add(workflow.RoleLearner)
	}

	var staffRoles []string
	if err := db.Model(&model.StaffAssignment{}).
		Where("membership_id = ? AND qualification_id = ?", membershipID, qualificationID).
		Pluck("role", &staffRoles).Error; err != nil {
		return nil, translate(err, "query staff roles")
	}
	for _, role := range staffRoles {
		roles.Add(workflow.Role(role))
	}
	return roles, nil
}

func (r *AssignmentRepository) CreateLearner(ctx context.Context, learner ports.LearnerAssignment) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}
	row := toLearnerRow(learner)
	return translate(db.Create(&row).Error, "insert learner assignment")
}

func (r *AssignmentRepository) UpdateLearner(ctx context.Context, learner ports.LearnerAssignment) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}
	row := toLearnerRow(learner)
	result := db.Model(&model.LearnerAssignment{}).
		Where("id = ?", learner.ID).
		Select("*").
		Omit("id", "membership_id", "qualification_id", "created_at").
		Updates(&row)
	if result.Error != nil {
		return translate(result.Error, "update learner assignment")
	}
	if result.RowsAffected == 0 {
		return ports.ErrRecordNotFound
	}
	return nil
}

func (r *AssignmentRepository) GetLearner(ctx context.Context, learnerID string) (ports.LearnerAssignment, error) {
	return r.takeLearner(ctx, "id = ?", learnerID)
}

func (r *AssignmentRepository) FindLearner(ctx context.Context, membershipID string, qualificationID string) (ports.LearnerAssignment, error) {
	return r.takeLearner(ctx, "membership_id = ? AND qualification_id = ?", membershipID, qualificationID)
}

func (r *AssignmentRepository) takeLearner(ctx context.Context, where string, args ...any) (ports.LearnerAssignment, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.LearnerAssignment{}, err
	}
	var row model.LearnerAssignment
	if err := db.Where(where, args...).Take(&row).Error; err != nil {
		return ports.LearnerAssignment{}, translate(err, "query learner assignment")
	}
	return mapLearner(row), nil
}

func (r *AssignmentRepository) ListLearners(ctx context.Context, filter ports.LearnerFilter) ([]ports.LearnerAssignment, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	query := db.Model(&model.LearnerAssignment{})
	if id := strings.TrimSpace(filter.QualificationID); id != "" {
		query = query.Where("qualification_id = ?", id)
	}
	if id := strings.TrimSpace(filter.AssessorMembershipID); id != "" {
		query = query.Where("assessor_membership_id = ?", id)
	}
	if id := strings.TrimSpace(filter.IQAMembershipID); id != "" {
		query = query.Where("iqa_membership_id = ?", id)
	}
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}

	var rows []model.LearnerAssignment
	if err := query.Order("created_at asc, id asc").Find(&rows).Error; err != nil {
		return nil, translate(err, "query learner assignments")
	}
	items := make([]ports.LearnerAssignment, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapLearner(row))
	}
	return items, nil
}

func (r *AssignmentRepository) CreateStaff(ctx context.Context, staff ports.StaffAssignment) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}
	row := model.StaffAssignment{
		ID:              staff.ID,
		Role:            string(staff.Role),
		MembershipID:    staff.MembershipID,
		QualificationID: staff.QualificationID,
		CreatedAt:       staff.CreatedAt,
	}
	return translate(db.Create(&row).Error, "insert staff assignment")
}

func (r *AssignmentRepository) FindStaff(ctx context.Context, role workflow.Role, membershipID string, qualificationID string) (ports.StaffAssignment, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.StaffAssignment{}, err
	}
	var row model.StaffAssignment
	if err := db.Where("role = ? AND membership_id = ? AND qualification_id = ?", string(role), membershipID, qualificationID).
		Take(&row).Error; err != nil {
		return ports.StaffAssignment{}, translate(err, "query staff assignment")
	}
	return mapStaff(row), nil
}

func (r *AssignmentRepository) ListStaff(ctx context.Context, qualificationID string, role workflow.Role) ([]ports.StaffAssignment, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}
	query := db.Where("qualification_id = ?", qualificationID)
	if role != "" {
		query = query.Where("role = ?", string(role))
	}
	var rows []model.StaffAssignment
	if err := query.Order("role asc, created_at asc, id asc").Find(&rows).Error; err != nil {
		return nil, translate(err, "query staff assignments")
	}
	items := make([]ports.StaffAssignment, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapStaff(row))
	}
	return items, nil
}

func (r *AssignmentRepository) SetEQALearners(ctx context.Context, eqaAssignmentID string, learnerIDs []string) error {
	return withinTx(ctx, r.db, func(db *gorm.DB) error {
		if err := db.Where("eqa_assignment_id = ?", eqaAssignmentID).Delete(&model.EQALearner{}).Error; err != nil {
			return translate(err, "clear eqa learners")
		}
		if len(learnerIDs) == 0 {
			return nil
		}
		rows := make([]model.EQALearner, 0, len(learnerIDs))
		for _, id := range learnerIDs {
			rows = append(rows, model.EQALearner{EQAAssignmentID: eqaAssignmentID, LearnerID: id})
		}
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error; err != nil {
			return translate(err, "insert eqa learners")
		}
		return nil
	})
}

func (r *AssignmentRepository) ListEQALearners(ctx context.Context, eqaAssignmentID string) ([]string, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}
	var ids []string
	if err := db.Model(&model.EQALearner{}).
		Where("eqa_assignment_id = ?", eqaAssignmentID).
		Order("learner_id asc").
		Pluck("learner_id", &ids).Error; err != nil {
		return nil, translate(err, "query eqa learners")
	}
	return ids, nil
}

func (r *AssignmentRepository) ShareLearner(ctx context.Context, iqaMembershipID string, assessorMembershipID string) (bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return false, err
	}
	var count int64
	if err := db.Model(&model.LearnerAssignment{}).
		Where("iqa_membership_id = ? AND assessor_membership_id = ?", iqaMembershipID, assessorMembershipID).
		Count(&count).Error; err != nil {
		return false, translate(err, "count shared learners")
	}
	return count > 0, nil
}

func toLearnerRow(learner ports.LearnerAssignment) model.LearnerAssignment {
	return model.LearnerAssignment{
		ID:                   learner.ID,
		MembershipID:         learner.MembershipID,
		QualificationID:      learner.QualificationID,
		AssessorMembershipID: optionalString(learner.AssessorMembershipID),
		IQAMembershipID:      optionalString(learner.IQAMembershipID),
		IsActive:             learner.IsActive,
		DateOfBirth:          learner.DateOfBirth,
		Disability:           learner.Disability,
		Address:              learner.Address,
		BatchNumber:          learner.BatchNumber,
		PhoneNumber:          learner.PhoneNumber,
		DateOfRegistration:   learner.DateOfRegistration,
		Country:              learner.Country,
		Ethnicity:            learner.Ethnicity,
		SignedOff:            learner.SignedOff,
		CreatedAt:            learner.CreatedAt,
		UpdatedAt:            learner.UpdatedAt,
	}
}

func mapLearner(row model.LearnerAssignment) ports.LearnerAssignment {
	return ports.LearnerAssignment{
		ID:                   row.ID,
		MembershipID:         row.MembershipID,
		QualificationID:      row.QualificationID,
		AssessorMembershipID: derefString(row.AssessorMembershipID),
		IQAMembershipID:      derefString(row.IQAMembershipID),
		IsActive:             row.IsActive,
		DateOfBirth:          row.DateOfBirth,
		Disability:           row.Disability,
		Address:              row.Address,
		BatchNumber:          row.BatchNumber,
		PhoneNumber:          row.PhoneNumber,
		DateOfRegistration:   row.DateOfRegistration,
		Country:              row.Country,
		Ethnicity:            row.Ethnicity,
		SignedOff:            row.SignedOff,
		CreatedAt:            row.CreatedAt,
		UpdatedAt:            row.UpdatedAt,
	}
}

func mapStaff(row model.StaffAssignment) ports.StaffAssignment {
	return ports.StaffAssignment{
		ID:              row.ID,
		Role:            workflow.Role(row.Role),
		MembershipID:    row.MembershipID,
		QualificationID: row.QualificationID,
		CreatedAt:       row.CreatedAt,
	}
}
