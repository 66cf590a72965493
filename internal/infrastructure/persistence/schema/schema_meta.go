package schema

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"assesseez/internal/errs"
)

// Version is bumped whenever a migration changes table shapes.
const Version = "4"

const versionKey = "schema_version"

type SchemaMeta struct {
	ID        uint      `gorm:"column:id;primaryKey;autoIncrement"`
	Key       string    `gorm:"column:key;type:text;uniqueIndex;not null"`
	Value     string    `gorm:"column:value;type:text;not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;autoUpdateTime"`
}

func (SchemaMeta) TableName() string {
	return "schema_meta"
}

// StampVersion records the current schema version after a migration.
func StampVersion(ctx context.Context, db *gorm.DB) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	row := SchemaMeta{Key: versionKey, Value: Version}
	if err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error; err != nil {
		return errs.Wrap(err, "stamp schema version")
	}
	return nil
}

// CurrentVersion returns "" when the schema was never stamped.
func CurrentVersion(ctx context.Context, db *gorm.DB) (string, error) {
	if ctx == nil {
		return "", errors.New("context is required")
	}
	var row SchemaMeta
	err := db.WithContext(ctx).Where("key = ?", versionKey).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", errs.Wrap(err, "query schema version")
	}
	return row.Value, nil
}
