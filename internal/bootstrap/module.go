package bootstrap

import (
	"context"
	"log/slog"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"assesseez/internal/bootstrap/config"
	"assesseez/internal/bootstrap/database"
	"assesseez/internal/bootstrap/logging"
	domain "assesseez/internal/domain/workflow"
	cacheinfra "assesseez/internal/infrastructure/cache"
	eventsinfra "assesseez/internal/infrastructure/events"
	mailinfra "assesseez/internal/infrastructure/mail"
	sqliterepo "assesseez/internal/infrastructure/persistence/sqlite/repository"
	sqliteuow "assesseez/internal/infrastructure/persistence/sqlite/uow"
	"assesseez/internal/ports"
	"assesseez/internal/usecase/notify"
	"assesseez/internal/usecase/workflow"
)

var Module = fx.Options(
	fx.Provide(provideConfig),
	fx.Provide(provideDatabase),
	fx.Provide(provideApp),
	fx.Provide(
		fx.Annotate(sqliterepo.NewDirectoryRepository, fx.As(new(ports.DirectoryRepository))),
		fx.Annotate(sqliterepo.NewStructureRepository, fx.As(new(ports.StructureRepository))),
		fx.Annotate(sqliterepo.NewAssignmentRepository, fx.As(new(ports.AssignmentRepository))),
		fx.Annotate(sqliterepo.NewEvidenceRepository, fx.As(new(ports.EvidenceRepository))),
		fx.Annotate(sqliterepo.NewDocumentRepository, fx.As(new(ports.DocumentRepository))),
		fx.Annotate(sqliterepo.NewSamplingRepository, fx.As(new(ports.SamplingRepository))),
		fx.Annotate(sqliterepo.NewNotificationRepository, fx.As(new(ports.NotificationRepository))),
		fx.Annotate(sqliterepo.NewResourceRepository, fx.As(new(ports.ResourceRepository))),
		fx.Annotate(sqliterepo.NewMessageRepository, fx.As(new(ports.MessageRepository))),
	),
	fx.Provide(
		fx.Annotate(
			sqliteuow.NewUnitOfWork,
			fx.As(new(ports.UnitOfWork)),
		),
	),
	fx.Provide(
		fx.Annotate(
			cacheinfra.NewSessionStore,
			fx.As(new(ports.Cache)),
		),
	),
	fx.Provide(provideEmailSender),
	fx.Provide(provideEventPublisher),
	fx.Provide(provideNotifier),
	fx.Provide(provideWorkflow),
)

type configParams struct {
	fx.In

	Ctx        context.Context
	ConfigFile string `name:"configFile"`
}

func provideConfig(p configParams) (config.Config, error) {
	ctx := logging.WithAttrs(p.Ctx, slog.String("component", "bootstrap.fx"))
	return config.Load(ctx, p.ConfigFile)
}

func provideDatabase(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))

	db, err := database.Open(logCtx, cfg.Database)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})

	return db, nil
}

func provideApp(cfg config.Config, db *gorm.DB) *App {
	return &App{
		Config: cfg,
		DB:     db,
	}
}

func provideEmailSender(cfg config.Config) (ports.EmailSender, error) {
	return mailinfra.NewSender(cfg.Mail)
}

// provideEventPublisher connects to NATS when configured and drains the
// connection when the fx app stops.
func provideEventPublisher(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (ports.EventPublisher, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))

	publisher, closeFn, err := eventsinfra.NewPublisher(logCtx, cfg.Events)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return closeFn()
		},
	})
	return publisher, nil
}

func provideNotifier(cfg config.Config, repo ports.NotificationRepository, sender ports.EmailSender, events ports.EventPublisher) ports.Notifier {
	return notify.NewDispatcher(repo, sender, events, cfg.Mail.Timeout)
}

type workflowParams struct {
	fx.In

	Config        config.Config
	Directory     ports.DirectoryRepository
	Structure     ports.StructureRepository
	Assignments   ports.AssignmentRepository
	Evidence      ports.EvidenceRepository
	Documents     ports.DocumentRepository
	Sampling      ports.SamplingRepository
	Notifications ports.NotificationRepository
	Resources     ports.ResourceRepository
	Messages      ports.MessageRepository
	UoW           ports.UnitOfWork
	Notifier      ports.Notifier
}

func provideWorkflow(p workflowParams) *workflow.Service {
	return workflow.NewService(workflow.Dependencies{
		Directory:     p.Directory,
		Structure:     p.Structure,
		Assignments:   p.Assignments,
		Evidence:      p.Evidence,
		Documents:     p.Documents,
		Sampling:      p.Sampling,
		Notifications: p.Notifications,
		Resources:     p.Resources,
		Messages:      p.Messages,
		UoW:           p.UoW,
		Notifier:      p.Notifier,
		FilePolicy: domain.FilePolicy{
			MaxBytes:          p.Config.Upload.MaxUploadBytes(),
			AllowedExtensions: p.Config.Upload.AllowedExtensions,
		},
	})
}
