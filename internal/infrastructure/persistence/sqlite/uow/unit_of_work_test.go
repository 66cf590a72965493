package uow

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"assesseez/internal/infrastructure/persistence/sqlite/model"
	"assesseez/internal/ports"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "uow.sqlite")
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	if err := db.AutoMigrate(&model.Business{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db
}

func insertBusiness(ctx context.Context, id string) error {
	tx := ports.TxFromContext(ctx).(*gorm.DB)
	return tx.Create(&model.Business{ID: id, Name: id, CreatedAt: "2026-03-01T10:00:00.000000000Z"}).Error
}

func countBusinesses(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&model.Business{}).Count(&n).Error; err != nil {
		t.Fatalf("count businesses: %v", err)
	}
	return n
}

func TestWithTxRollsBackOnError(t *testing.T) {
	db := setupDB(t)
	u := NewUnitOfWork(db)
	boom := errors.New("boom")

	err := u.WithTx(context.Background(), func(ctx context.Context) error {
		if err := insertBusiness(ctx, "b-1"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTx() error = %v, want boom", err)
	}
	if got := countBusinesses(t, db); got != 0 {
		t.Fatalf("businesses after rollback = %d, want 0", got)
	}
}

func TestWithTxJoinsOuterTransaction(t *testing.T) {
	db := setupDB(t)
	u := NewUnitOfWork(db)
	boom := errors.New("boom")

	err := u.WithTx(context.Background(), func(ctx context.Context) error {
		if err := u.WithTx(ctx, func(inner context.Context) error {
			return insertBusiness(inner, "b-1")
		}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTx() error = %v, want boom", err)
	}
	if got := countBusinesses(t, db); got != 0 {
		t.Fatalf("inner write survived outer rollback: %d rows", got)
	}

	if err := u.WithTx(context.Background(), func(ctx context.Context) error {
		return insertBusiness(ctx, "b-2")
	}); err != nil {
		t.Fatalf("WithTx() error = %v", err)
	}
	if got := countBusinesses(t, db); got != 1 {
		t.Fatalf("businesses = %d, want 1", got)
	}
}

func TestWithTxNilDB(t *testing.T) {
	var u *UnitOfWork
	if err := u.WithTx(context.Background(), func(context.Context) error { return nil }); err == nil {
		t.Fatalf("WithTx() on nil unit of work error = nil")
	}
}
