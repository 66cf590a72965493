package uow

import (
	"context"
	"errors"
	"log/slog"

	"gorm.io/gorm"

	"assesseez/internal/bootstrap/logging"
	"assesseez/internal/errs"
	"assesseez/internal/ports"
)

var errNilDB = errors.New("unit of work database is nil")

// UnitOfWork runs a workflow operation in one gorm transaction. A call made
// while a transaction is already on the context joins it instead of nesting.
type UnitOfWork struct {
	db *gorm.DB
}

var _ ports.UnitOfWork = (*UnitOfWork)(nil)

func NewUnitOfWork(db *gorm.DB) *UnitOfWork {
	return &UnitOfWork{db: db}
}

func (u *UnitOfWork) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if u == nil || u.db == nil {
		return errNilDB
	}
	if tx, ok := ports.TxFromContext(ctx).(*gorm.DB); ok && tx != nil {
		return fn(ctx)
	}

	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ports.WithTxContext(ctx, tx))
	})
	if err != nil {
		logging.Info(ctx, "transaction rolled back", slog.Any("err", errs.Loggable(err)))
	}
	return err
}
