package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"assesseez/internal/errs"
	"assesseez/internal/infrastructure/persistence/sqlite/model"
	"assesseez/internal/ports"
)

const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SessionStore keeps CLI session values in the session_kv table.
// Entries written with a positive ttl disappear from Get once expired.
type SessionStore struct {
	db  *gorm.DB
	now func() time.Time
}

var _ ports.Cache = (*SessionStore)(nil)

func NewSessionStore(db *gorm.DB) *SessionStore {
	return &SessionStore{db: db, now: time.Now}
}

func (c *SessionStore) Get(ctx context.Context, key string) (string, bool, error) {
	trimmedKey, err := checkKey(ctx, key)
	if err != nil {
		return "", false, err
	}

	var row model.SessionKV
	if err := c.db.WithContext(ctx).Where("key = ?", trimmedKey).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, errs.Wrap(err, "query session key")
	}

	if row.ExpiresAt != nil && *row.ExpiresAt <= c.stamp(0) {
		if err := c.db.WithContext(ctx).Where("key = ?", trimmedKey).Delete(&model.SessionKV{}).Error; err != nil {
			return "", false, errs.Wrap(err, "delete expired session key")
		}
		return "", false, nil
	}
	return row.Value, true, nil
}

func (c *SessionStore) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	trimmedKey, err := checkKey(ctx, key)
	if err != nil {
		return err
	}

	row := model.SessionKV{
		Key:       trimmedKey,
		Value:     value,
		UpdatedAt: c.stamp(0),
	}
	if ttl > 0 {
		expires := c.stamp(ttl)
		row.ExpiresAt = &expires
	}

	if err := c.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]any{
			"value":      row.Value,
			"expires_at": row.ExpiresAt,
			"updated_at": row.UpdatedAt,
		}),
	}).Create(&row).Error; err != nil {
		return errs.Wrap(err, "upsert session key")
	}
	return nil
}

func (c *SessionStore) Delete(ctx context.Context, key string) error {
	trimmedKey, err := checkKey(ctx, key)
	if err != nil {
		return err
	}

	if err := c.db.WithContext(ctx).Where("key = ?", trimmedKey).Delete(&model.SessionKV{}).Error; err != nil {
		return errs.Wrap(err, "delete session key")
	}
	return nil
}

func (c *SessionStore) stamp(offset time.Duration) string {
	return c.now().Add(offset).UTC().Format(timeLayout)
}

func checkKey(ctx context.Context, key string) (string, error) {
	if ctx == nil {
		return "", errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return "", errs.Wrap(err, "check context")
	}
	trimmedKey := strings.TrimSpace(key)
	if trimmedKey == "" {
		return "", errors.New("key is required")
	}
	return trimmedKey, nil
}

// SelectedBusinessKey is where `business use` stores a person's active business.
func SelectedBusinessKey(personID string) string {
	return "selected_business:" + strings.TrimSpace(personID)
}
