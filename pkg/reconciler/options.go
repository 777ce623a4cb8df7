package reconciler

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/agentstation/ribbonsync/pkg/errors"
	"github.com/agentstation/ribbonsync/pkg/tree"
)

// Options configures a reconciler.
type options struct {
	logger    *zerolog.Logger
	protected map[string]bool // Element paths orphan cleanup must leave alone
	dryRun    bool
}

func defaultOptions() *options {
	return &options{
		protected: make(map[string]bool),
	}
}

// Option is a function that configures a Reconciler.
type Option func(*options) error

func (options *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}
	return options, nil
}

// newOptions returns reconciler options with default values.
func newOptions(opts ...Option) (*options, error) {
	return defaultOptions().apply(opts...)
}

// WithLogger sets the logger. Without it the logger is taken from the
// context of each call.
func WithLogger(logger *zerolog.Logger) Option {
	return func(r *options) error {
		if logger == nil {
			return &errors.ValidationError{
				Field:   "logger",
				Message: "cannot be nil",
			}
		}
		r.logger = logger
		return nil
	}
}

// WithProtectedTabs marks live tabs that final cleanup must not disable,
// typically the tabs of other packages sharing the same UI.
func WithProtectedTabs(tabs ...string) Option {
	return func(r *options) error {
		for _, t := range tabs {
			r.protected[pathKey([]string{t})] = true
		}
		return nil
	}
}

// WithProtectedTree marks every element of the given package trees as owned
// by someone else: orphan cleanup at any level leaves them alone. Packages
// sharing a tab identity use it so they never disable each other's panels,
// items or sub-items.
func WithProtectedTree(pkgs ...*tree.Node) Option {
	return func(r *options) error {
		for _, pkg := range pkgs {
			if pkg == nil {
				continue
			}
			_ = pkg.Walk(func(_ *tree.Node, path []string) error {
				if len(path) > 0 {
					r.protected[pathKey(path)] = true
				}
				return nil
			})
		}
		return nil
	}
}

func pathKey(path []string) string {
	return strings.Join(path, "\x1f")
}

// WithDryRun computes the operation log against a copy of the live UI and
// leaves the real one untouched.
func WithDryRun(enabled bool) Option {
	return func(r *options) error {
		r.dryRun = enabled
		return nil
	}
}
