// Package app provides the application context and dependency management
// for the masterlink CLI. It centralizes configuration, logging and the
// lifecycle of the linkage client shared by all commands.
package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/masterlink"
	"github.com/agentstation/masterlink/internal/appcontext"
	"github.com/agentstation/masterlink/pkg/errors"
	"github.com/agentstation/masterlink/pkg/linkage"
	"github.com/agentstation/masterlink/pkg/logging"
)

// App represents the masterlink application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger

	// Client instance (lazy-initialized, singleton)
	mu     sync.RWMutex
	client masterlink.Client
}

// Ensure App implements appcontext.Interface at compile time.
var _ appcontext.Interface = (*App)(nil)

// New creates a new App instance with the given version information.
// The app is initialized with configuration from the environment that can be
// customized using functional options.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// OutputFormat returns the configured output format.
func (a *App) OutputFormat() string {
	return a.config.Format
}

// RegistryPath returns the configured registry file.
func (a *App) RegistryPath() string {
	return a.config.Registry
}

// Store returns the configured store driver and DSN.
func (a *App) Store() (driver, dsn string) {
	return a.config.StoreDriver, a.config.StoreDSN
}

// Client returns the linkage client, creating it lazily if needed.
// This is thread-safe and ensures only one instance is created.
func (a *App) Client() (masterlink.Client, error) {
	a.mu.RLock()
	if a.client != nil {
		c := a.client
		a.mu.RUnlock()
		return c, nil
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	// Double-check after acquiring write lock
	if a.client != nil {
		return a.client, nil
	}

	c, err := masterlink.New(a.clientOptions()...)
	if err != nil {
		return nil, err
	}

	a.client = c
	return c, nil
}

// ClientWithOptions returns a new client built from the configured
// defaults plus opts. The caller owns the client and must close it.
func (a *App) ClientWithOptions(opts ...masterlink.Option) (masterlink.Client, error) {
	all := append(a.clientOptions(), opts...)
	return masterlink.New(all...)
}

// Shutdown releases the client and its store connections.
func (a *App) Shutdown(_ context.Context) error {
	a.mu.Lock()
	c := a.client
	a.client = nil
	a.mu.Unlock()

	if c == nil {
		return nil
	}
	if err := c.Close(); err != nil {
		return errors.WrapStore("close", "", err)
	}
	return nil
}

// clientOptions constructs client options from the app configuration.
func (a *App) clientOptions() []masterlink.Option {
	linkerOpts := []linkage.Option{linkage.WithSeparator(a.config.Separator)}
	if a.config.MasterTable != "" {
		linkerOpts = append(linkerOpts, linkage.WithMasterTable(a.config.MasterTable))
	}
	if a.config.MasterIDColumn != "" {
		linkerOpts = append(linkerOpts, linkage.WithMasterIDColumn(a.config.MasterIDColumn))
	}
	if a.config.MasterDropColumns != nil {
		linkerOpts = append(linkerOpts, linkage.WithDroppedMasterColumns(a.config.MasterDropColumns...))
	}

	opts := []masterlink.Option{masterlink.WithLinkerOptions(linkerOpts...)}

	if a.config.Registry != "" {
		opts = append(opts, masterlink.WithRegistryFile(a.config.Registry))
	}
	if a.config.StoreDSN != "" {
		opts = append(opts, masterlink.WithStore(a.config.StoreDriver, a.config.StoreDSN))
	}
	if a.config.LockFile != "" {
		opts = append(opts, masterlink.WithLockFile(a.config.LockFile))
	}

	return opts
}

// setLogger replaces the app logger and the package default.
func (a *App) setLogger(logger zerolog.Logger) {
	a.logger = &logger
	logging.SetDefault(logger)
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		if config == nil {
			return &errors.ValidationError{Field: "config", Message: "cannot be nil"}
		}
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithClient sets a custom client (useful for testing).
func WithClient(c masterlink.Client) Option {
	return func(a *App) error {
		a.client = c
		return nil
	}
}
