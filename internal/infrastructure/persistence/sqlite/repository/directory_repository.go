package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"assesseez/internal/domain/workflow"
	"assesseez/internal/infrastructure/persistence/sqlite/model"
	"assesseez/internal/ports"
)

type DirectoryRepository struct {
	db *gorm.DB
}

func NewDirectoryRepository(db *gorm.DB) *DirectoryRepository {
	return &DirectoryRepository{db: db}
}

var _ ports.DirectoryRepository = (*DirectoryRepository)(nil)

type memberRow struct {
	model.Membership
	Email    string `gorm:"column:email"`
	FullName string `gorm:"column:full_name"`
}

func (r *DirectoryRepository) CreateBusiness(ctx context.Context, business ports.Business) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}
	row := model.Business{
		ID:        business.ID,
		Name:      business.Name,
		Address:   business.Address,
		CreatedAt: business.CreatedAt,
	}
	return translate(db.Create(&row).Error, "insert business")
}

func (r *DirectoryRepository) GetBusiness(ctx context.Context, businessID string) (ports.Business, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.Business{}, err
	}
	var row model.Business
	if err := db.Where("id = ?", businessID).Take(&row).Error; err != nil {
		return ports.Business{}, translate(err, "query business")
	}
	return ports.Business{ID: row.ID, Name: row.Name, Address: row.Address, CreatedAt: row.CreatedAt}, nil
}

func (r *DirectoryRepository) CreatePerson(ctx context.Context, person ports.Person) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}
	row := model.Person{
		ID:        person.ID,
		Email:     strings.ToLower(person.Email),
		FullName:  person.FullName,
		CreatedAt: person.CreatedAt,
	}
	return translate(db.Create(&row).Error, "insert person")
}

func (r *DirectoryRepository) GetPerson(ctx context.Context, personID string) (ports.Person, error) {
	return r.findPerson(ctx, "id = ?", personID)
}

func (r *DirectoryRepository) GetPersonByEmail(ctx context.Context, email string) (ports.Person, error) {
	return r.findPerson(ctx, "email = ?", strings.ToLower(strings.TrimSpace(email)))
}

func (r *DirectoryRepository) findPerson(ctx context.Context, where string, arg string) (ports.Person, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.Person{}, err
	}
	var row model.Person
	if err := db.Where(where, arg).Take(&row).Error; err != nil {
		return ports.Person{}, translate(err, "query person")
	}
	return ports.Person{ID: row.ID, Email: row.Email, FullName: row.FullName, CreatedAt: row.CreatedAt}, nil
}

func (r *DirectoryRepository) CreateMembership(ctx context.Context, membership ports.Membership) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}
	row := model.Membership{
		ID:         membership.ID,
		PersonID:   membership.PersonID,
		BusinessID: membership.BusinessID,
		Type:       string(membership.Type),
		CreatedAt:  membership.CreatedAt,
	}
	return translate(db.Create(&row).Error, "insert membership")
}

func (r *DirectoryRepository) GetMember(ctx context.Context, personID string, businessID string) (ports.Member, error) {
	return r.takeMember(ctx, "memberships.person_id = ? AND memberships.business_id = ?", personID, businessID)
}

func (r *DirectoryRepository) GetMemberByID(ctx context.Context, membershipID string) (ports.Member, error) {
	return r.takeMember(ctx, "memberships.id = ?", membershipID)
}

func (r *DirectoryRepository) ListAdmins(ctx context.Context, businessID string) ([]ports.Member, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}
	var rows []memberRow
	if err := memberQuery(db).
		Where("memberships.business_id = ? AND memberships.type = ?", businessID, string(workflow.MembershipAdmin)).
		Order("memberships.created_at asc, memberships.id asc").
		Scan(&rows).Error; err != nil {
		return nil, translate(err, "query business admins")
	}
	items := make([]ports.Member, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapMember(row))
	}
	return items, nil
}

func (r *DirectoryRepository) takeMember(ctx context.Context, where string, args ...any) (ports.Member, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.Member{}, err
	}
	var rows []memberRow
	if err := memberQuery(db).Where(where, args...).Limit(1).Scan(&rows).Error; err != nil {
		return ports.Member{}, translate(err, "query membership")
	}
	if len(rows) == 0 {
		return ports.Member{}, ports.ErrRecordNotFound
	}
	return mapMember(rows[0]), nil
}

func memberQuery(db *gorm.DB) *gorm.DB {
	return db.Model(&model.Membership{}).
		Select("memberships.*, people.email AS email, people.full_name AS full_name").
		Joins("JOIN people ON people.id = memberships.person_id")
}

func mapMember(row memberRow) ports.Member {
	return ports.Member{
		Membership: ports.Membership{
			ID:         row.ID,
			PersonID:   row.PersonID,
			BusinessID: row.BusinessID,
			Type:       workflow.MembershipType(row.Type),
			CreatedAt:  row.CreatedAt,
		},
		Email:    row.Email,
		FullName: row.FullName,
	}
}
