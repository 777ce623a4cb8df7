package discovery

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/ribbonsync/pkg/alias"
	"github.com/agentstation/ribbonsync/pkg/assembly"
	"github.com/agentstation/ribbonsync/pkg/errors"
	"github.com/agentstation/ribbonsync/pkg/layout"
	"github.com/agentstation/ribbonsync/pkg/scriptmeta"
)

type options struct {
	layout     layout.Layout
	extractor  scriptmeta.Extractor
	aliases    alias.Resolver
	assemblies assembly.Resolver
	loaderDir  string
	logger     *zerolog.Logger
}

func defaultOptions() *options {
	return &options{
		layout:     layout.Default(),
		extractor:  scriptmeta.NewFileExtractor(),
		aliases:    alias.Identity{},
		assemblies: assembly.NewRegistry(),
	}
}

// Option configures a Discoverer.
type Option func(*options) error

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
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

// WithLoaderDir sets the directory holding the loader init script that backs
// the reload command. Without it the reload command is a host builtin.
func WithLoaderDir(dir string) Option {
	return func(o *options) error {
		o.loaderDir = dir
		return nil
	}
}

// WithLogger sets the logger diagnostics are written to. Without it the
// logger is taken from the context of each call.
func WithLogger(logger *zerolog.Logger) Option {
	return func(o *options) error {
		if logger == nil {
			return &errors.ValidationError{Field: "logger", Message: "cannot be nil"}
		}
		o.logger = logger
		return nil
	}
}
