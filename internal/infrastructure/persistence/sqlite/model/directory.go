package model

type Business struct {
	ID        string `gorm:"column:id;type:text;primaryKey"`
	Name      string `gorm:"column:name;type:text;not null"`
	Address   string `gorm:"column:address;type:text;not null;default:''"`
	CreatedAt string `gorm:"column:created_at;type:text;not null"`
}

func (Business) TableName() string {
	return "businesses"
}

type Person struct {
	ID        string `gorm:"column:id;type:text;primaryKey"`
	Email     string `gorm:"column:email;type:text;not null;uniqueIndex"`
	FullName  string `gorm:"column:full_name;type:text;not null;default:''"`
	CreatedAt string `gorm:"column:created_at;type:text;not null"`
}

func (Person) TableName() string {
	return "people"
}

type Membership struct {
	ID         string `gorm:"column:id;type:text;primaryKey"`
	PersonID   string `gorm:"column:person_id;type:text;not null;uniqueIndex:ux_membership_person_business"`
	BusinessID string `gorm:"column:business_id;type:text;not null;uniqueIndex:ux_membership_person_business;index"`
	Type       string `gorm:"column:type;type:text;not null"`
	CreatedAt  string `gorm:"column:created_at;type:text;not null"`

	Person   *Person   `gorm:"foreignKey:PersonID;constraint:OnDelete:RESTRICT"`
	Business *Business `gorm:"foreignKey:BusinessID;constraint:OnDelete:CASCADE"`
}

func (Membership) TableName() string {
	return "memberships"
}
