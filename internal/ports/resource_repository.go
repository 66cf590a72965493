package ports

import (
	"context"

	"assesseez/internal/domain/workflow"
)

// ResourceFolder is a business-wide library folder shown to the listed roles
// on the linked qualifications.
type ResourceFolder struct {
	ID               string
	BusinessID       string
	Name             string
	VisibleTo        []workflow.Role
	QualificationIDs []string
	Files            []ResourceFile
	CreatedAt        string
	UpdatedAt        string
}

type ResourceFile struct {
	ID        string
	FolderID  string
	Title     string
	File      workflow.FileRef
	CreatedAt string
}

// FolderFilter narrows ListFolders. Empty fields do not filter.
type FolderFilter struct {
	BusinessID      string
	QualificationID string
	// VisibleTo keeps folders shown to at least one of these roles. A non-nil
	// empty slice matches nothing.
	VisibleTo []workflow.Role
}

type ResourceRepository interface {
	// SaveFolder inserts or replaces the folder together with its role and
	// qualification links.
	SaveFolder(ctx context.Context, folder ResourceFolder) error
	GetFolder(ctx context.Context, folderID string) (ResourceFolder, error)
	// DeleteFolder removes the folder and its files.
	DeleteFolder(ctx context.Context, folderID string) error
	// ListFolders returns matching folders by name with their files attached.
	ListFolders(ctx context.Context, filter FolderFilter) ([]ResourceFolder, error)

	CreateFile(ctx context.Context, file ResourceFile) error
	GetFile(ctx context.Context, fileID string) (ResourceFile, error)
	DeleteFile(ctx context.Context, fileID string) error
}
