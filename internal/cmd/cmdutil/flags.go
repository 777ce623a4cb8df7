// Package cmdutil provides flags shared by the ribbonsync commands.
package cmdutil

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/ribbonsync"
	"github.com/agentstation/ribbonsync/cmd/application"
	"github.com/agentstation/ribbonsync/pkg/errors"
)

// SessionFlags holds the flags of commands that run load passes.
type SessionFlags struct {
	State  string
	DryRun bool
}

// AddSessionFlags adds the load pass flags to a command.
func AddSessionFlags(cmd *cobra.Command) *SessionFlags {
	flags := &SessionFlags{}

	cmd.Flags().StringVar(&flags.State, "state", "",
		"UI state file (default from config)")
	cmd.Flags().BoolVar(&flags.DryRun, "dry-run", false,
		"Report changes without touching the UI or the cache")

	return flags
}

// StatePath returns the state file from the flag or the app config.
func (f *SessionFlags) StatePath(app application.Application) string {
	if f.State != "" {
		return f.State
	}
	return app.UIStatePath()
}

// PackageRoots returns args when given, else the configured roots.
func PackageRoots(app application.Application, args []string) ([]string, error) {
	roots := args
	if len(roots) == 0 {
		roots = app.Packages()
	}
	if len(roots) == 0 {
		return nil, &errors.ValidationError{
			Field:   "packages",
			Message: "pass package roots as arguments or set packages in the config",
		}
	}
	return roots, nil
}

// Options builds the session options for roots. A --dry-run flag only ever
// turns dry run on.
func (f *SessionFlags) Options(roots []string) []ribbonsync.Option {
	opts := []ribbonsync.Option{ribbonsync.WithPackages(roots...)}
	if f.DryRun {
		opts = append(opts, ribbonsync.WithDryRun(true))
	}
	return opts
}
