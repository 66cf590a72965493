package repository

import (
	"context"

	"gorm.io/gorm"

	"assesseez/internal/domain/workflow"
	"assesseez/internal/infrastructure/persistence/sqlite/model"
	"assesseez/internal/ports"
)

type ResourceRepository struct {
	db *gorm.DB
}

func NewResourceRepository(db *gorm.DB) *ResourceRepository {
	return &ResourceRepository{db: db}
}

var _ ports.ResourceRepository = (*ResourceRepository)(nil)

func (r *ResourceRepository) SaveFolder(ctx context.Context, folder ports.ResourceFolder) error {
	return withinTx(ctx, r.db, func(db *gorm.DB) error {
		row := model.ResourceFolder{
			ID:         folder.ID,
			BusinessID: folder.BusinessID,
			Name:       folder.Name,
			CreatedAt:  folder.CreatedAt,
			UpdatedAt:  folder.UpdatedAt,
		}
		if err := db.Save(&row).Error; err != nil {
			return translate(err, "save resource folder")
		}
		if err := db.Where("folder_id = ?", folder.ID).Delete(&model.ResourceFolderRole{}).Error; err != nil {
			return translate(err, "clear folder roles")
		}
		if err := db.Where("folder_id = ?", folder.ID).Delete(&model.ResourceFolderQualification{}).Error; err != nil {
			return translate(err, "clear folder qualifications")
		}
		if len(folder.VisibleTo) > 0 {
			roles := make([]model.ResourceFolderRole, 0, len(folder.VisibleTo))
			for _, role := range folder.VisibleTo {
				roles = append(roles, model.ResourceFolderRole{FolderID: folder.ID, Role: string(role)})
			}
			if err := db.Create(&roles).Error; err != nil {
				return translate(err, "insert folder roles")
			}
		}
		if len(folder.QualificationIDs) > 0 {
			links := make([]model.ResourceFolderQualification, 0, len(folder.QualificationIDs))
			for _, qualificationID := range folder.QualificationIDs {
				links = append(links, model.ResourceFolderQualification{FolderID: folder.ID, QualificationID: qualificationID})
			}
			if err := db.Create(&links).Error; err != nil {
				return translate(err, "insert folder qualifications")
			}
		}
		return nil
	})
}

func (r *ResourceRepository) GetFolder(ctx context.Context, folderID string) (ports.ResourceFolder, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.ResourceFolder{}, err
	}
	var row model.ResourceFolder
	if err := db.Where("id = ?", folderID).Take(&row).Error; err != nil {
		return ports.ResourceFolder{}, translate(err, "query resource folder")
	}
	folders, err := r.hydrate(db, []model.ResourceFolder{row})
	if err != nil {
		return ports.ResourceFolder{}, err
	}
	return folders[0], nil
}

func (r *ResourceRepository) DeleteFolder(ctx context.Context, folderID string) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}
	result := db.Where("id = ?", folderID).Delete(&model.ResourceFolder{})
	if result.Error != nil {
		return translate(result.Error, "delete resource folder")
	}
	if result.RowsAffected == 0 {
		return ports.ErrRecordNotFound
	}
	return nil
}

func (r *ResourceRepository) ListFolders(ctx context.Context, filter ports.FolderFilter) ([]ports.ResourceFolder, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}
	query := db.Model(&model.ResourceFolder{})
	if filter.BusinessID != "" {
		query = query.Where("business_id = ?", filter.BusinessID)
	}
	if filter.QualificationID != "" {
		query = query.Where("id IN (?)", db.Model(&model.ResourceFolderQualification{}).
			Select("folder_id").Where("qualification_id = ?", filter.QualificationID))
	}
	if filter.VisibleTo != nil {
		roles := make([]string, 0, len(filter.VisibleTo))
		for _, role := range filter.VisibleTo {
			roles = append(roles, string(role))
		}
		if len(roles) == 0 {
			return []ports.ResourceFolder{}, nil
		}
		query = query.Where("id IN (?)", db.Model(&model.ResourceFolderRole{}).
			Select("folder_id").Where("role IN ?", roles))
	}
	var rows []model.ResourceFolder
	if err := query.Order("name asc, id asc").Find(&rows).Error; err != nil {
		return nil, translate(err, "query resource folders")
	}
	return r.hydrate(db, rows)
}

// hydrate attaches roles, qualification links and files to the folder rows.
func (r *ResourceRepository) hydrate(db *gorm.DB, rows []model.ResourceFolder) ([]ports.ResourceFolder, error) {
	if len(rows) == 0 {
		return []ports.ResourceFolder{}, nil
	}
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}

	var roleRows []model.ResourceFolderRole
	if err := db.Where("folder_id IN ?", ids).Order("role asc").Find(&roleRows).Error; err != nil {
		return nil, translate(err, "query folder roles")
	}
	var linkRows []model.ResourceFolderQualification
	if err := db.Where("folder_id IN ?", ids).Order("qualification_id asc").Find(&linkRows).Error; err != nil {
		return nil, translate(err, "query folder qualifications")
	}
	var fileRows []model.ResourceFile
	if err := db.Where("folder_id IN ?", ids).Order("created_at asc, id asc").Find(&fileRows).Error; err != nil {
		return nil, translate(err, "query resource files")
	}

	roles := make(map[string][]workflow.Role, len(rows))
	for _, row := range roleRows {
		roles[row.FolderID] = append(roles[row.FolderID], workflow.Role(row.Role))
	}
	links := make(map[string][]string, len(rows))
	for _, row := range linkRows {
		links[row.FolderID] = append(links[row.FolderID], row.QualificationID)
	}
	files := make(map[string][]ports.ResourceFile, len(rows))
	for _, row := range fileRows {
		files[row.FolderID] = append(files[row.FolderID], mapResourceFile(row))
	}

	items := make([]ports.ResourceFolder, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.ResourceFolder{
			ID:               row.ID,
			BusinessID:       row.BusinessID,
			Name:             row.Name,
			VisibleTo:        roles[row.ID],
			QualificationIDs: links[row.ID],
			Files:            files[row.ID],
			CreatedAt:        row.CreatedAt,
			UpdatedAt:        row.UpdatedAt,
		})
	}
	return items, nil
}

func (r *ResourceRepository) CreateFile(ctx context.Context, file ports.ResourceFile) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}
	row := model.ResourceFile{
		ID:        file.ID,
		FolderID:  file.FolderID,
		Title:     file.Title,
		FileName:  file.File.Name,
		FileKey:   file.File.StorageKey,
		FileSize:  file.File.SizeBytes,
		CreatedAt: file.CreatedAt,
	}
	return translate(db.Create(&row).Error, "insert resource file")
}

func (r *ResourceRepository) GetFile(ctx context.Context, fileID string) (ports.ResourceFile, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.ResourceFile{}, err
	}
	var row model.ResourceFile
	if err := db.Where("id = ?", fileID).Take(&row).Error; err != nil {
		return ports.ResourceFile{}, translate(err, "query resource file")
	}
	return mapResourceFile(row), nil
}

func (r *ResourceRepository) DeleteFile(ctx context.Context, fileID string) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}
	result := db.Where("id = ?", fileID).Delete(&model.ResourceFile{})
	if result.Error != nil {
		return translate(result.Error, "delete resource file")
	}
	if result.RowsAffected == 0 {
		return ports.ErrRecordNotFound
	}
	return nil
}

func mapResourceFile(row model.ResourceFile) ports.ResourceFile {
	return ports.ResourceFile{
		ID:       row.ID,
		FolderID: row.FolderID,
		Title:    row.Title,
		File: workflow.FileRef{
			Name:       row.FileName,
			StorageKey: row.FileKey,
			SizeBytes:  row.FileSize,
		},
		CreatedAt: row.CreatedAt,
	}
}
