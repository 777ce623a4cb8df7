package ribbonsync

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/ribbonsync/pkg/alias"
	"github.com/agentstation/ribbonsync/pkg/assembly"
	"github.com/agentstation/ribbonsync/pkg/cache"
	"github.com/agentstation/ribbonsync/pkg/constants"
	"github.com/agentstation/ribbonsync/pkg/discovery"
	"github.com/agentstation/ribbonsync/pkg/errors"
	"github.com/agentstation/ribbonsync/pkg/layout"
	"github.com/agentstation/ribbonsync/pkg/scriptmeta"
)

// options holds the session configuration.
type options struct {
	packages   []string
	loaderDir  string
	layout     layout.Layout
	store      cache.Store
	aliases    alias.Resolver
	assemblies assembly.Resolver
	extractor  scriptmeta.Extractor
	logger     *zerolog.Logger
	dryRun     bool

	// auto reload
	autoReload     bool
	reloadDebounce time.Duration
}

// Option is a function that configures a Session.
type Option func(*options) error

// defaults returns the default options: the stock layout and a file cache
// in the temp directory behind an in-process memo.
func defaults() *options {
	return &options{
		layout:         layout.Default(),
		store:          cache.NewMemoryStore(cache.NewFileStore(""), constants.CacheTTL, constants.CacheCleanupInterval),
		reloadDebounce: constants.WatchDebounce,
	}
}

// apply applies the given options.
func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func (o *options) discoveryOptions() []discovery.Option {
	opts := []discovery.Option{
		discovery.WithLayout(o.layout),
		discovery.WithLoaderDir(o.loaderDir),
	}
	if o.aliases != nil {
		opts = append(opts, discovery.WithAliases(o.aliases))
	}
	if o.assemblies != nil {
		opts = append(opts, discovery.WithAssemblies(o.assemblies))
	}
	if o.extractor != nil {
		opts = append(opts, discovery.WithExtractor(o.extractor))
	}
	return opts
}

// WithPackages sets the package roots to load, in load order.
func WithPackages(roots ...string) Option {
	return func(o *options) error {
		for _, r := range roots {
			if r == "" {
				return &errors.ValidationError{Field: "packages", Message: "root cannot be empty"}
			}
		}
		o.packages = append(o.packages, roots...)
		return nil
	}
}

// WithLoaderDir sets the directory holding the loader init script that backs
// the reload command.
func WithLoaderDir(dir string) Option {
	return func(o *options) error {
		o.loaderDir = dir
		return nil
	}
}

// WithLayout sets the naming conventions.
func WithLayout(l layout.Layout) Option {
	return func(o *options) error {
		if err := l.Validate(); err != nil {
			return err
		}
		o.layout = l
		return nil
	}
}

// WithStore sets the snapshot store.
func WithStore(store cache.Store) Option {
	return func(o *options) error {
		if store == nil {
			return &errors.ValidationError{Field: "store", Message: "cannot be nil"}
		}
		o.store = store
		return nil
	}
}

// WithAliases sets the command alias resolver.
func WithAliases(r alias.Resolver) Option {
	return func(o *options) error {
		if r == nil {
			return &errors.ValidationError{Field: "aliases", Message: "cannot be nil"}
		}
		o.aliases = r
		return nil
	}
}

// WithAssemblies sets the resolver for link item assemblies.
func WithAssemblies(r assembly.Resolver) Option {
	return func(o *options) error {
		if r == nil {
			return &errors.ValidationError{Field: "assemblies", Message: "cannot be nil"}
		}
		o.assemblies = r
		return nil
	}
}

// WithExtractor sets the script metadata extractor.
func WithExtractor(e scriptmeta.Extractor) Option {
	return func(o *options) error {
		if e == nil {
			return &errors.ValidationError{Field: "extractor", Message: "cannot be nil"}
		}
		o.extractor = e
		return nil
	}
}

// WithLogger sets the logger. Without it the logger is taken from the
// context of each call.
func WithLogger(logger *zerolog.Logger) Option {
	return func(o *options) error {
		if logger == nil {
			return &errors.ValidationError{Field: "logger", Message: "cannot be nil"}
		}
		o.logger = logger
		return nil
	}
}

// WithDryRun reports what a load would change without touching the UI or
// writing snapshots.
func WithDryRun(enabled bool) Option {
	return func(o *options) error {
		o.dryRun = enabled
		return nil
	}
}

// WithAutoReload starts watching the package roots as soon as the session
// is created.
func WithAutoReload(enabled bool) Option {
	return func(o *options) error {
		o.autoReload = enabled
		return nil
	}
}

// WithReloadDebounce sets how long file changes must settle before an
// automatic reload.
func WithReloadDebounce(d time.Duration) Option {
	return func(o *options) error {
		if d <= 0 {
			return &errors.ValidationError{Field: "reloadDebounce", Value: d, Message: "must be positive"}
		}
		o.reloadDebounce = d
		return nil
	}
}
