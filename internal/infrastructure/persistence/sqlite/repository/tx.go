package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"assesseez/internal/errs"
	"assesseez/internal/ports"
)

func dbFromContext(ctx context.Context, root *gorm.DB) (*gorm.DB, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	tx := ports.TxFromContext(ctx)
	if tx == nil {
		return root.WithContext(ctx), nil
	}

	gormTx, ok := tx.(*gorm.DB)
	if !ok || gormTx == nil {
		return nil, fmt.Errorf("invalid tx in context: %T", tx)
	}
	return gormTx.WithContext(ctx), nil
}

// withinTx runs fn on the caller's transaction, or opens one when ctx has none.
func withinTx(ctx context.Context, root *gorm.DB, fn func(db *gorm.DB) error) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if ports.TxFromContext(ctx) != nil {
		db, err := dbFromContext(ctx, root)
		if err != nil {
			return err
		}
		return fn(db)
	}
	return root.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return withinTx(ports.WithTxContext(ctx, tx), root, fn)
	})
}

// translate maps gorm sentinels onto port errors and wraps the rest.
func translate(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ports.ErrRecordNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return errs.Wrap(ports.ErrDuplicate, op)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return errs.Wrap(ports.ErrReferenced, op)
	default:
		return errs.Wrap(err, op)
	}
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func derefString(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}
