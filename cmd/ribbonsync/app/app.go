// Package app provides the application context and dependency management
// for the ribbonsync CLI. It centralizes configuration, logging and the
// construction of discoverers and sessions.
package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/ribbonsync"
	"github.com/agentstation/ribbonsync/cmd/application"
	"github.com/agentstation/ribbonsync/pkg/alias"
	"github.com/agentstation/ribbonsync/pkg/assembly"
	"github.com/agentstation/ribbonsync/pkg/cache"
	"github.com/agentstation/ribbonsync/pkg/constants"
	"github.com/agentstation/ribbonsync/pkg/discovery"
	"github.com/agentstation/ribbonsync/pkg/errors"
	"github.com/agentstation/ribbonsync/pkg/layout"
	"github.com/agentstation/ribbonsync/pkg/liveui"
)

// Ensure App implements application.Application at compile time.
var _ application.Application = (*App)(nil)

// App represents the ribbonsync application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger

	// Lazily built from config
	mu         sync.RWMutex
	aliases    alias.Map
	discoverer *discovery.Discoverer

	// Sessions created so far, stopped on shutdown
	sessionsMu sync.Mutex
	sessions   []ribbonsync.Session
}

// New creates a new App instance with the given version information.
// The app is initialized with the loaded configuration that can be
// replaced using functional options.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	if app.config == nil {
		config, err := LoadConfig("")
		if err != nil {
			return nil, err
		}
		app.config = config
	}
	if app.logger == nil {
		logger := NewLogger(app.config)
		app.logger = &logger
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

// Layout returns the configured naming conventions.
func (a *App) Layout() layout.Layout {
	return a.config.Layout
}

// Packages returns the configured package roots.
func (a *App) Packages() []string {
	return a.config.Packages
}

// CacheDir returns the snapshot directory.
func (a *App) CacheDir() string {
	return a.config.CacheDir
}

// UIStatePath returns the file holding the persisted UI state.
func (a *App) UIStatePath() string {
	return a.config.UIState
}

// Discoverer returns the discoverer, creating it lazily if needed.
func (a *App) Discoverer() (*discovery.Discoverer, error) {
	a.mu.RLock()
	if a.discoverer != nil {
		d := a.discoverer
		a.mu.RUnlock()
		return d, nil
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	// Double-check after acquiring write lock
	if a.discoverer != nil {
		return a.discoverer, nil
	}

	aliases, err := a.loadAliases()
	if err != nil {
		return nil, err
	}
	opts := []discovery.Option{
		discovery.WithLayout(a.config.Layout),
		discovery.WithLoaderDir(a.config.LoaderDir),
		discovery.WithAliases(aliases),
		discovery.WithLogger(a.logger),
	}
	if len(a.config.Assemblies) > 0 {
		opts = append(opts, discovery.WithAssemblies(assembly.NewRegistry(a.config.Assemblies...)))
	}
	d, err := discovery.New(opts...)
	if err != nil {
		return nil, errors.NewConfigError("discovery", "could not create discoverer", err)
	}
	a.discoverer = d
	return d, nil
}

// Session creates a session bound to ui from the configuration. Package
// roots are not applied; callers pass them with ribbonsync.WithPackages.
func (a *App) Session(ui liveui.UI, opts ...ribbonsync.Option) (ribbonsync.Session, error) {
	a.mu.Lock()
	aliases, err := a.loadAliases()
	a.mu.Unlock()
	if err != nil {
		return nil, err
	}

	s, err := ribbonsync.New(ui, append(a.sessionOptions(aliases), opts...)...)
	if err != nil {
		return nil, err
	}

	a.sessionsMu.Lock()
	a.sessions = append(a.sessions, s)
	a.sessionsMu.Unlock()
	return s, nil
}

// Shutdown stops the auto reload of every session created by the app.
func (a *App) Shutdown(ctx context.Context) error {
	a.sessionsMu.Lock()
	sessions := a.sessions
	a.sessions = nil
	a.sessionsMu.Unlock()

	var errs []error
	for _, s := range sessions {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := s.AutoReloadOff(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to stop auto reload during shutdown")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// sessionOptions builds session options from the configuration.
func (a *App) sessionOptions(aliases alias.Map) []ribbonsync.Option {
	opts := []ribbonsync.Option{
		ribbonsync.WithLayout(a.config.Layout),
		ribbonsync.WithLoaderDir(a.config.LoaderDir),
		ribbonsync.WithStore(cache.NewMemoryStore(
			cache.NewFileStore(a.config.CacheDir),
			constants.CacheTTL,
			constants.CacheCleanupInterval,
		)),
		ribbonsync.WithAliases(aliases),
		ribbonsync.WithLogger(a.logger),
		ribbonsync.WithDryRun(a.config.DryRun),
	}
	if len(a.config.Assemblies) > 0 {
		opts = append(opts, ribbonsync.WithAssemblies(assembly.NewRegistry(a.config.Assemblies...)))
	}
	if a.config.Debounce > 0 {
		opts = append(opts, ribbonsync.WithReloadDebounce(a.config.Debounce))
	}
	return opts
}

// loadAliases reads the alias file once. Callers hold a.mu.
func (a *App) loadAliases() (alias.Map, error) {
	if a.aliases != nil {
		return a.aliases, nil
	}
	aliases := alias.Map{}
	if a.config.AliasFile != "" {
		m, err := alias.Load(a.config.AliasFile)
		if err != nil {
			return nil, errors.NewConfigError("aliases", "could not load "+a.config.AliasFile, err)
		}
		aliases = m
	}
	a.aliases = aliases
	return aliases, nil
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
		if logger == nil {
			return &errors.ValidationError{Field: "logger", Message: "cannot be nil"}
		}
		a.logger = logger
		return nil
	}
}
