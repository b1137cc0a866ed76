// Package monolith provides the application container and module interface.
package monolith

import (
	"context"
	"errors"
	"io"

	"github.com/fd1az/wallet-dashboard/internal/asset"
	"github.com/fd1az/wallet-dashboard/internal/config"
	"github.com/fd1az/wallet-dashboard/internal/di"
	"github.com/fd1az/wallet-dashboard/internal/logger"
)

// Monolith is the main application container providing access to shared infrastructure.
type Monolith interface {
	Config() *config.Config
	Logger() logger.LoggerInterface
	PriceTable() *asset.PriceTable
	Services() di.ServiceRegistry
	// OnClose registers a resource released by Close, in reverse order.
	OnClose(c io.Closer)
}

// Module represents a bounded context module that can register services and start up.
type Module interface {
	RegisterServices(di.Container) error
	Startup(context.Context, Monolith) error
}

// App implements the Monolith interface.
type App struct {
	config     *config.Config
	logger     logger.LoggerInterface
	priceTable *asset.PriceTable
	container  di.Container
	closers    []io.Closer
}

var _ Monolith = (*App)(nil)

// New creates a new application container.
func New(cfg *config.Config, log logger.LoggerInterface) *App {
	priceTable := asset.DefaultPriceTable()

	container := di.NewContainer()

	// Register global services
	container.Register("config", cfg)
	container.Register("logger", log)
	container.Register("priceTable", priceTable)

	return &App{
		config:     cfg,
		logger:     log,
		priceTable: priceTable,
		container:  container,
	}
}

func (a *App) Config() *config.Config {
	return a.config
}

func (a *App) Logger() logger.LoggerInterface {
	return a.logger
}

func (a *App) PriceTable() *asset.PriceTable {
	return a.priceTable
}

func (a *App) Services() di.ServiceRegistry {
	return a.container
}

func (a *App) OnClose(c io.Closer) {
	a.closers = append(a.closers, c)
}

// Container returns the DI container for module registration.
func (a *App) Container() di.Container {
	return a.container
}

// RegisterModules registers all provided modules.
func (a *App) RegisterModules(modules ...Module) error {
	for _, m := range modules {
		if err := m.RegisterServices(a.container); err != nil {
			return err
		}
	}
	return nil
}

// StartModules starts all provided modules.
func (a *App) StartModules(ctx context.Context, modules ...Module) error {
	for _, m := range modules {
		if err := m.Startup(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// Close releases resources registered with OnClose.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// CloserFunc adapts a func() to io.Closer.
type CloserFunc func()

func (f CloserFunc) Close() error {
	f()
	return nil
}
