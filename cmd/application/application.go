// Package application provides the application interface for ribbonsync commands.
//
// The Application interface defines the contract between the application layer and
// command implementations, enabling dependency injection and testability.
//
// Usage in Commands:
//
//	func NewCommand(app application.Application) *cobra.Command {
//	    return &cobra.Command{
//	        RunE: func(cmd *cobra.Command, args []string) error {
//	            d, err := app.Discoverer()
//	            if err != nil {
//	                return err
//	            }
//	            res, err := d.Discover(cmd.Context(), args[0])
//	            // ... print res.Package
//	        },
//	    }
//	}
//
// Testing with Mocks:
//
//	mock := &application.Mock{
//	    PackagesFunc: func() []string { return []string{root} },
//	}
//	cmd := sync.NewCommand(mock)
package application

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/ribbonsync"
	"github.com/agentstation/ribbonsync/pkg/discovery"
	"github.com/agentstation/ribbonsync/pkg/layout"
	"github.com/agentstation/ribbonsync/pkg/liveui"
)

// Application provides the application interface that commands need.
// The App struct from cmd/ribbonsync/app implements it.
//
// Thread Safety: All methods must be safe for concurrent access.
type Application interface {
	// Session creates a session bound to ui. The configured layout, cache,
	// aliases and assemblies are applied first, opts after them. Package
	// roots are left to opts so commands can take them from arguments.
	Session(ui liveui.UI, opts ...ribbonsync.Option) (ribbonsync.Session, error)

	// Discoverer returns a discoverer built from the configuration.
	Discoverer() (*discovery.Discoverer, error)

	// Layout returns the configured naming conventions.
	Layout() layout.Layout

	// Packages returns the configured package roots in load order.
	Packages() []string

	// CacheDir returns the snapshot directory. Empty means the temp directory.
	CacheDir() string

	// UIStatePath returns the file holding the persisted UI state.
	UIStatePath() string

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (text, table, json, yaml).
	OutputFormat() string

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
