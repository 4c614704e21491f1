// Package container assembles the application: database, repositories,
// event dispatcher, services and the token resolver, with ordered startup
// and reverse-order teardown.
package container

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/obralink/portal-pagos/internal/application/dispatcher"
	"github.com/obralink/portal-pagos/internal/application/port"
	"github.com/obralink/portal-pagos/internal/application/service"
	"github.com/obralink/portal-pagos/internal/auth"
	"github.com/obralink/portal-pagos/internal/infrastructure/persistence/sqlite"
	"github.com/obralink/portal-pagos/pkg/database"
)

// Container manages all application dependencies and lifecycle.
type Container struct {
	config *Config
	logger *zap.Logger

	// Infrastructure
	db           *database.DB
	txManager    *sqlite.DB
	repositories *RepositoryBundle
	notifier     port.Notifier

	// Application
	dispatcher dispatcher.Dispatcher
	services   *ServiceBundle
	tokens     *auth.TokenResolver

	mu     sync.RWMutex
	ready  atomic.Bool
	closed atomic.Bool
}

// RepositoryBundle groups all repositories for convenient access.
type RepositoryBundle struct {
	Statement port.StatementRepository
	Ledger    port.LedgerRepository
	History   port.HistoryRepository
	Roster    port.RosterRepository
}

// ServiceBundle groups all application services.
type ServiceBundle struct {
	Statement    service.StatementService
	Decision     service.DecisionService
	Export       service.ExportService
	Notification *service.NotificationService
}

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() to initialize.
func NewContainer(cfg *Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{
		config: cfg,
		logger: logger,
	}, nil
}

// Start initializes all components in dependency order:
// 1. Database, migrations and repositories
// 2. Notification channel
// 3. Event dispatcher
// 4. Application services and event subscriptions
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}
	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	db, txManager, repos, err := ProvideDatabase(c.config, c.logger)
	if err != nil {
		return fmt.Errorf("provide database: %w", err)
	}
	c.db = db
	c.txManager = txManager
	c.repositories = repos

	notifier, err := ProvideNotifier(c.config, c.logger)
	if err != nil {
		c.teardown()
		return fmt.Errorf("provide notifier: %w", err)
	}
	c.notifier = notifier

	c.dispatcher = ProvideDispatcher(c.logger)

	services, err := ProvideServices(&ServiceDeps{
		Repos:      repos,
		TxManager:  txManager,
		Dispatcher: c.dispatcher,
		Notifier:   notifier,
		Config:     c.config,
		Logger:     c.logger,
	})
	if err != nil {
		c.teardown()
		return fmt.Errorf("provide services: %w", err)
	}
	c.services = services

	c.tokens = auth.NewTokenResolver([]byte(c.config.Auth.TokenSecret), c.config.Auth.TokenTTL)

	c.ready.Store(true)
	c.logger.Info("Container started")
	return nil
}

// Stop tears down all components in reverse order.
func (c *Container) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return nil
	}
	c.closed.Store(true)
	c.ready.Store(false)

	c.teardown()
	c.logger.Info("Container stopped")
	return nil
}

func (c *Container) teardown() {
	if c.dispatcher != nil {
		c.dispatcher.Close()
		c.dispatcher = nil
	}
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			c.logger.Error("Failed to close database", zap.Error(err))
		}
		c.db = nil
	}
}

// Ready reports whether the container finished starting.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Services returns the application services.
func (c *Container) Services() *ServiceBundle {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.services
}

// Repositories returns the repository bundle.
func (c *Container) Repositories() *RepositoryBundle {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.repositories
}

// Tokens returns the access token resolver.
func (c *Container) Tokens() *auth.TokenResolver {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tokens
}

// Logger returns the container's logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// zapLoggerAdapter adapts zap.Logger to the service.Logger interface.
type zapLoggerAdapter struct {
	logger *zap.Logger
}

func (a *zapLoggerAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Info(msg, convertToZapFields(keysAndValues...)...)
}

func (a *zapLoggerAdapter) Error(msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, convertToZapFields(keysAndValues...)...)
}

// dispatcherLoggerAdapter adapts zap.Logger to the dispatcher.Logger interface.
type dispatcherLoggerAdapter struct {
	logger *zap.Logger
}

func (a *dispatcherLoggerAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Info(msg, convertToZapFields(keysAndValues...)...)
}

func (a *dispatcherLoggerAdapter) Error(msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, convertToZapFields(keysAndValues...)...)
}

// convertToZapFields converts key-value pairs to zap fields.
func convertToZapFields(keysAndValues ...interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}
