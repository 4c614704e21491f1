package container

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/obralink/portal-pagos/internal/application/dispatcher"
	"github.com/obralink/portal-pagos/internal/application/port"
	"github.com/obralink/portal-pagos/internal/application/service"
	"github.com/obralink/portal-pagos/internal/infrastructure/notify"
	"github.com/obralink/portal-pagos/internal/infrastructure/persistence/sqlite"
	"github.com/obralink/portal-pagos/pkg/database"
)

// ProvideDatabase opens the database, runs migrations and builds the
// repository bundle with the tx-in-context transaction manager.
func ProvideDatabase(cfg *Config, logger *zap.Logger) (*database.DB, *sqlite.DB, *RepositoryBundle, error) {
	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open database: %w", err)
	}

	if cfg.Database.MigrationsDir != "" {
		migrator := database.NewMigrator(db, logger)
		if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
			_ = db.Close()
			return nil, nil, nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	txManager := sqlite.NewDB(db.DB, logger)

	repos := &RepositoryBundle{
		Statement: sqlite.NewStatementRepository(db.DB, logger),
		Ledger:    sqlite.NewLedgerRepository(db.DB, logger),
		History:   sqlite.NewHistoryRepository(db.DB, logger),
		Roster:    sqlite.NewRosterRepository(db.DB, logger),
	}

	return db, txManager, repos, nil
}

// ProvideNotifier builds the webhook notification channel.
func ProvideNotifier(cfg *Config, logger *zap.Logger) (port.Notifier, error) {
	templates, err := notify.NewTemplateSet(nil)
	if err != nil {
		return nil, err
	}

	opts := []notify.WebhookOption{}
	if cfg.Notification.Timeout > 0 {
		opts = append(opts, notify.WithHTTPClient(&http.Client{Timeout: cfg.Notification.Timeout}))
	}

	return notify.NewWebhookNotifier(cfg.Notification.WebhookURL, templates, logger, opts...)
}

// ProvideDispatcher creates the event dispatcher.
func ProvideDispatcher(logger *zap.Logger) dispatcher.Dispatcher {
	return dispatcher.NewDispatcher(
		dispatcher.WithLogger(&dispatcherLoggerAdapter{logger: logger}),
	)
}

// ServiceDeps holds dependencies required for creating services.
type ServiceDeps struct {
	Repos      *RepositoryBundle
	TxManager  port.TransactionManager
	Dispatcher dispatcher.Dispatcher
	Notifier   port.Notifier
	Config     *Config
	Logger     *zap.Logger
}

// ProvideServices creates all application services and registers the
// notification handlers on the dispatcher.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}
	if deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.TxManager == nil {
		return nil, fmt.Errorf("transaction manager is required")
	}
	if deps.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	serviceLogger := &zapLoggerAdapter{logger: deps.Logger}
	clock := port.SystemClock{}

	notification := service.NewNotificationService(
		deps.Repos.Statement,
		deps.Notifier,
		service.NotificationConfig{
			ContractorEmail: deps.Config.Notification.ContractorEmail,
			CCEmails:        deps.Config.Notification.CCEmails,
		},
		serviceLogger,
	)
	notification.Register(deps.Dispatcher)

	return &ServiceBundle{
		Statement: service.NewStatementService(
			deps.Repos.Statement,
			deps.Repos.Ledger,
			deps.Repos.History,
			deps.Repos.Roster,
			deps.TxManager,
			deps.Dispatcher,
			clock,
			serviceLogger,
		),
		Decision: service.NewDecisionService(
			deps.Repos.Statement,
			deps.Repos.Ledger,
			deps.Repos.History,
			deps.TxManager,
			deps.Dispatcher,
			clock,
			serviceLogger,
		),
		Export: service.NewExportService(
			deps.Repos.Statement,
			deps.Repos.Ledger,
			serviceLogger,
		),
		Notification: notification,
	}, nil
}
