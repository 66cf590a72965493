package bootstrap

import (
	"context"
	"errors"
	"log/slog"

	"gorm.io/gorm"

	"assesseez/internal/bootstrap/config"
	"assesseez/internal/bootstrap/logging"
	"assesseez/internal/errs"
	"assesseez/internal/infrastructure/persistence/schema"
	"assesseez/internal/infrastructure/persistence/sqlite/model"
)

// App holds the loaded config and database handle shared by commands.
type App struct {
	Config config.Config
	DB     *gorm.DB
}

func (a *App) InitSchema(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.app"))
	logging.Info(logCtx, "start schema migration")

	previous, err := schema.CurrentVersion(ctx, a.DB)
	if err != nil && a.DB.Migrator().HasTable(&schema.SchemaMeta{}) {
		return errs.Wrap(err, "read schema version")
	}

	tables := append(model.All(), &schema.SchemaMeta{})
	if err := a.DB.WithContext(ctx).AutoMigrate(tables...); err != nil {
		return errs.Wrap(err, "auto migrate schema")
	}
	if err := schema.StampVersion(ctx, a.DB); err != nil {
		return err
	}

	logging.Info(
		logCtx,
		"schema migration completed",
		slog.String("previous_version", previous),
		slog.String("version", schema.Version),
		slog.Int("tables", len(tables)),
	)
	return nil
}

func (a *App) Close(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	sqlDB, err := a.DB.DB()
	if err != nil {
		return errs.Wrap(err, "get sql db")
	}

	if err := sqlDB.Close(); err != nil {
		return errs.Wrap(err, "close sql db")
	}

	logging.Info(logging.WithAttrs(ctx, slog.String("component", "bootstrap.app")), "database connection closed")
	return nil
}
