package workflow

import (
	"context"
	"errors"
	"strings"

	domain "assesseez/internal/domain/workflow"
	"assesseez/internal/ports"
)

// CreateResourceFolder adds a business library folder. Only admins manage folders.
func (s *Service) CreateResourceFolder(ctx context.Context, req domain.RequestContext, input ResourceFolderInput) (Result, error) {
	ctx, c, err := s.resolveCaller(ctx, req, false)
	if err != nil {
		return Result{}, err
	}
	if err := s.requireResources(c); err != nil {
		return Result{}, err
	}
	now := s.stamp()
	folder := ports.ResourceFolder{ID: s.newID(), BusinessID: c.req.BusinessID, CreatedAt: now, UpdatedAt: now}
	if err := s.fillFolder(ctx, c, &folder, input); err != nil {
		return Result{}, err
	}
	if err := s.resources.SaveFolder(ctx, folder); err != nil {
		return Result{}, storage(err, "create resource folder")
	}
	return Result{ID: folder.ID}, nil
}

// UpdateResourceFolder replaces the folder name, roles and qualification links.
func (s *Service) UpdateResourceFolder(ctx context.Context, req domain.RequestContext, folderID string, input ResourceFolderInput) (Result, error) {
	ctx, c, err := s.resolveCaller(ctx, req, false)
	if err != nil {
		return Result{}, err
	}
	if err := s.requireResources(c); err != nil {
		return Result{}, err
	}
	folder, err := s.folderOf(ctx, c, folderID)
	if err != nil {
		return Result{}, err
	}
	if err := s.fillFolder(ctx, c, &folder, input); err != nil {
		return Result{}, err
	}
	folder.UpdatedAt = s.stamp()
	if err := s.resources.SaveFolder(ctx, folder); err != nil {
		return Result{}, storage(err, "update resource folder")
	}
	return Result{ID: folder.ID}, nil
}

func (s *Service) DeleteResourceFolder(ctx context.Context, req domain.RequestContext, folderID string) error {
	ctx, c, err := s.resolveCaller(ctx, req, false)
	if err != nil {
		return err
	}
	if err := s.requireResources(c); err != nil {
		return err
	}
	folder, err := s.folderOf(ctx, c, folderID)
	if err != nil {
		return err
	}
	if err := s.resources.DeleteFolder(ctx, folder.ID); err != nil {
		return lookup(err, "resource folder")
	}
	return nil
}

func (s *Service) AddResourceFile(ctx context.Context, req domain.RequestContext, input AddResourceFileInput) (Result, error) {
	ctx, c, err := s.resolveCaller(ctx, req, false)
	if err != nil {
		return Result{}, err
	}
	if err := s.requireResources(c); err != nil {
		return Result{}, err
	}
	folder, err := s.folderOf(ctx, c, input.FolderID)
	if err != nil {
		return Result{}, err
	}
	title, err := domain.RequireText("title", input.Title, domain.MaxTitleLength)
	if err != nil {
		return Result{}, err
	}
	file, err := s.files.Validate(input.File)
	if err != nil {
		return Result{}, err
	}
	row := ports.ResourceFile{ID: s.newID(), FolderID: folder.ID, Title: title, File: file, CreatedAt: s.stamp()}
	if err := s.resources.CreateFile(ctx, row); err != nil {
		return Result{}, storage(err, "create resource file")
	}
	return Result{ID: row.ID}, nil
}

func (s *Service) DeleteResourceFile(ctx context.Context, req domain.RequestContext, fileID string) error {
	ctx, c, err := s.resolveCaller(ctx, req, false)
	if err != nil {
		return err
	}
	if err := s.requireResources(c); err != nil {
		return err
	}
	file, err := s.resources.GetFile(ctx, strings.TrimSpace(fileID))
	if err != nil {
		return lookup(err, "resource file")
	}
	if _, err := s.folderOf(ctx, c, file.FolderID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NotFound("resource file")
		}
		return err
	}
	if err := s.resources.DeleteFile(ctx, file.ID); err != nil {
		return lookup(err, "resource file")
	}
	return nil
}

// ListResourceFolders returns every folder in the business for the admin library view.
func (s *Service) ListResourceFolders(ctx context.Context, req domain.RequestContext) ([]ports.ResourceFolder, error) {
	ctx, c, err := s.resolveCaller(ctx, req, false)
	if err != nil {
		return nil, err
	}
	if err := s.requireResources(c); err != nil {
		return nil, err
	}
	folders, err := s.resources.ListFolders(ctx, ports.FolderFilter{BusinessID: c.req.BusinessID})
	if err != nil {
		return nil, storage(err, "list resource folders")
	}
	return folders, nil
}

// VisibleResources returns the folders linked to the qualification that are
// shown to a role the caller holds there. Admins see every linked folder and
// an inactive learner sees none of the learner folders.
func (s *Service) VisibleResources(ctx context.Context, req domain.RequestContext) ([]ports.ResourceFolder, error) {
	ctx, c, err := s.resolveCaller(ctx, req, true)
	if err != nil {
		return nil, err
	}
	if s.resources == nil {
		return nil, errDependencyMissing
	}
	filter := ports.FolderFilter{BusinessID: c.req.BusinessID, QualificationID: c.qualification.ID}
	if !c.isAdmin() {
		held, err := s.assignments.HeldRoles(ctx, c.member.ID, c.qualification.ID)
		if err != nil {
			return nil, storage(err, "load held roles")
		}
		if held.Has(domain.RoleLearner) {
			learner, err := s.assignments.FindLearner(ctx, c.member.ID, c.qualification.ID)
			if err != nil {
				return nil, lookup(err, "learner")
			}
			if !learner.IsActive {
				delete(held, domain.RoleLearner)
			}
		}
		filter.VisibleTo = held.Sorted()
	}
	folders, err := s.resources.ListFolders(ctx, filter)
	if err != nil {
		return nil, storage(err, "list visible resources")
	}
	return folders, nil
}

// UploadLearnerFile stores a document for a learner. The learner's assessor,
// their IQA and business admins may upload.
func (s *Service) UploadLearnerFile(ctx context.Context, req domain.RequestContext, input LearnerFileInput) (Result, error) {
	ctx, c, err := s.resolveCaller(ctx, req, true)
	if err != nil {
		return Result{}, err
	}
	learner, err := s.loadLearner(ctx, c, input.LearnerID)
	if err != nil {
		return Result{}, err
	}
	if !c.isAdmin() && s.requireAssessorOf(c, learner) != nil && s.requireIQAOf(c, learner) != nil {
		return Result{}, domain.NotAssigned("only the learner's assessor, IQA or an admin can upload learner files")
	}
	title, err := domain.RequireText("title", input.Title, domain.MaxTitleLength)
	if err != nil {
		return Result{}, err
	}
	file, err := s.files.Validate(input.File)
	if err != nil {
		return Result{}, err
	}
	now := s.stamp()
	row := ports.LearnerFile{
		ID:                     s.newID(),
		LearnerID:              learner.ID,
		Title:                  title,
		Description:            strings.TrimSpace(input.Description),
		File:                   file,
		UploadedByMembershipID: c.member.ID,
		UploadedAt:             now,
		UpdatedAt:              now,
	}
	if err := s.documents.CreateLearnerFile(ctx, row); err != nil {
		return Result{}, storage(err, "create learner file")
	}
	return Result{ID: row.ID}, nil
}

// UpdateLearnerFile lets the uploader retitle the file or replace its content.
func (s *Service) UpdateLearnerFile(ctx context.Context, req domain.RequestContext, input UpdateLearnerFileInput) (Result, error) {
	ctx, c, err := s.resolveCaller(ctx, req, true)
	if err != nil {
		return Result{}, err
	}
	file, err := s.ownLearnerFile(ctx, c, input.FileID)
	if err != nil {
		return Result{}, err
	}
	title, err := domain.RequireText("title", input.Title, domain.MaxTitleLength)
	if err != nil {
		return Result{}, err
	}
	file.Title = title
	file.Description = strings.TrimSpace(input.Description)
	if input.File != nil {
		valid, err := s.files.Validate(*input.File)
		if err != nil {
			return Result{}, err
		}
		file.File = valid
	}
	file.UpdatedAt = s.stamp()
	if err := s.documents.UpdateLearnerFile(ctx, file); err != nil {
		return Result{}, lookup(err, "learner file")
	}
	return Result{ID: file.ID}, nil
}

func (s *Service) DeleteLearnerFile(ctx context.Context, req domain.RequestContext, fileID string) error {
	ctx, c, err := s.resolveCaller(ctx, req, true)
	if err != nil {
		return err
	}
	file, err := s.ownLearnerFile(ctx, c, fileID)
	if err != nil {
		return err
	}
	if err := s.documents.DeleteLearnerFile(ctx, file.ID); err != nil {
		return lookup(err, "learner file")
	}
	return nil
}

// ListLearnerFiles is open to anyone who can view the learner.
func (s *Service) ListLearnerFiles(ctx context.Context, req domain.RequestContext, learnerID string) ([]ports.LearnerFile, error) {
	ctx, c, err := s.resolveCaller(ctx, req, true)
	if err != nil {
		return nil, err
	}
	learner, err := s.loadLearner(ctx, c, learnerID)
	if err != nil {
		return nil, err
	}
	if err := s.canView(ctx, c, learner); err != nil {
		return nil, err
	}
	files, err := s.documents.ListLearnerFiles(ctx, learner.ID)
	if err != nil {
		return nil, storage(err, "list learner files")
	}
	return files, nil
}

func (s *Service) requireResources(c caller) error {
	if s.resources == nil {
		return errDependencyMissing
	}
	return requireAdmin(c)
}

func (s *Service) folderOf(ctx context.Context, c caller, folderID string) (ports.ResourceFolder, error) {
	folder, err := s.resources.GetFolder(ctx, strings.TrimSpace(folderID))
	if err != nil {
		return ports.ResourceFolder{}, lookup(err, "resource folder")
	}
	if folder.BusinessID != c.req.BusinessID {
		return ports.ResourceFolder{}, domain.NotFound("resource folder")
	}
	return folder, nil
}

func (s *Service) fillFolder(ctx context.Context, c caller, folder *ports.ResourceFolder, input ResourceFolderInput) error {
	name, err := domain.RequireText("name", input.Name, domain.MaxTitleLength)
	if err != nil {
		return err
	}
	roles, err := domain.ParseFolderRoles(input.VisibleTo)
	if err != nil {
		return err
	}
	qualificationIDs := trimAll(input.QualificationIDs)
	if len(qualificationIDs) == 0 {
		return domain.Invalid("qualifications", "link the folder to at least one qualification")
	}
	for _, id := range qualificationIDs {
		qualification, err := s.structure.GetQualification(ctx, id)
		if err != nil {
			return lookup(err, "qualification")
		}
		if qualification.BusinessID != c.req.BusinessID {
			return domain.NotFound("qualification")
		}
	}
	folder.Name = name
	folder.VisibleTo = roles
	folder.QualificationIDs = qualificationIDs
	return nil
}

// ownLearnerFile loads a learner file on the caller's qualification that the caller uploaded.
func (s *Service) ownLearnerFile(ctx context.Context, c caller, fileID string) (ports.LearnerFile, error) {
	file, err := s.documents.GetLearnerFile(ctx, strings.TrimSpace(fileID))
	if err != nil {
		return ports.LearnerFile{}, lookup(err, "learner file")
	}
	if _, err := s.loadLearner(ctx, c, file.LearnerID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ports.LearnerFile{}, domain.NotFound("learner file")
		}
		return ports.LearnerFile{}, err
	}
	if file.UploadedByMembershipID != c.member.ID {
		return ports.LearnerFile{}, domain.NotAssigned("only the uploader can change this file")
	}
	return file, nil
}
