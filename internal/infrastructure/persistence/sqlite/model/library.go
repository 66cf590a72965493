package model

type ResourceFolder struct {
	ID         string `gorm:"column:id;type:text;primaryKey"`
	BusinessID string `gorm:"column:business_id;type:text;not null;index"`
	Name       string `gorm:"column:name;type:text;not null"`
	CreatedAt  string `gorm:"column:created_at;type:text;not null"`
	UpdatedAt  string `gorm:"column:updated_at;type:text;not null"`

	Business *Business `gorm:"foreignKey:BusinessID;constraint:OnDelete:CASCADE"`
}

func (ResourceFolder) TableName() string {
	return "resource_folders"
}

// ResourceFolderRole lists the roles a folder is shown to.
type ResourceFolderRole struct {
	FolderID string `gorm:"column:folder_id;type:text;primaryKey"`
	Role     string `gorm:"column:role;type:text;primaryKey"`

	Folder *ResourceFolder `gorm:"foreignKey:FolderID;constraint:OnDelete:CASCADE"`
}

func (ResourceFolderRole) TableName() string {
	return "resource_folder_roles"
}

type ResourceFolderQualification struct {
	FolderID        string `gorm:"column:folder_id;type:text;primaryKey"`
	QualificationID string `gorm:"column:qualification_id;type:text;primaryKey;index"`

	Folder        *ResourceFolder `gorm:"foreignKey:FolderID;constraint:OnDelete:CASCADE"`
	Qualification *Qualification  `gorm:"foreignKey:QualificationID;constraint:OnDelete:CASCADE"`
}

func (ResourceFolderQualification) TableName() string {
	return "resource_folder_qualifications"
}

type ResourceFile struct {
	ID        string `gorm:"column:id;type:text;primaryKey"`
	FolderID  string `gorm:"column:folder_id;type:text;not null;index"`
	Title     string `gorm:"column:title;type:text;not null"`
	FileName  string `gorm:"column:file_name;type:text;not null"`
	FileKey   string `gorm:"column:file_key;type:text;not null"`
	FileSize  int64  `gorm:"column:file_size;not null;default:0"`
	CreatedAt string `gorm:"column:created_at;type:text;not null"`

	Folder *ResourceFolder `gorm:"foreignKey:FolderID;constraint:OnDelete:CASCADE"`
}

func (ResourceFile) TableName() string {
	return "resource_files"
}

// LearnerFile is uploaded by staff for one learner assignment.
type LearnerFile struct {
	ID                     string `gorm:"column:id;type:text;primaryKey"`
	LearnerID              string `gorm:"column:learner_id;type:text;not null;index"`
	Title                  string `gorm:"column:title;type:text;not null"`
	Description            string `gorm:"column:description;type:text;not null;default:''"`
	FileName               string `gorm:"column:file_name;type:text;not null"`
	FileKey                string `gorm:"column:file_key;type:text;not null"`
	FileSize               int64  `gorm:"column:file_size;not null;default:0"`
	UploadedByMembershipID string `gorm:"column:uploaded_by_membership_id;type:text;not null"`
	UploadedAt             string `gorm:"column:uploaded_at;type:text;not null"`
	UpdatedAt              string `gorm:"column:updated_at;type:text;not null"`

	Learner    *LearnerAssignment `gorm:"foreignKey:LearnerID;constraint:OnDelete:CASCADE"`
	UploadedBy *Membership        `gorm:"foreignKey:UploadedByMembershipID;constraint:OnDelete:RESTRICT"`
}

func (LearnerFile) TableName() string {
	return "learner_files"
}
