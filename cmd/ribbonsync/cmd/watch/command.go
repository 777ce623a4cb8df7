// Package watch provides the watch command implementation.
package watch

import (
	"context"
	"io"
	"sync"

	"github.com/spf13/cobra"

	"github.com/agentstation/ribbonsync"
	"github.com/agentstation/ribbonsync/cmd/application"
	"github.com/agentstation/ribbonsync/internal/cmd/cmdutil"
	"github.com/agentstation/ribbonsync/internal/cmd/output"
	"github.com/agentstation/ribbonsync/pkg/liveui/memory"
)

// NewCommand creates the watch command using app context.
func NewCommand(app application.Application) *cobra.Command {
	var flags *cmdutil.SessionFlags

	cmd := &cobra.Command{
		Use:     "watch [package-root...]",
		GroupID: "core",
		Short:   "Sync packages and reload whenever they change",
		Long: `Watch runs a load pass, then watches the package roots and runs
another pass once file changes settle. It stops on interrupt.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return Execute(cmd.Context(), app, flags, args, cmd.OutOrStdout())
		},
	}

	flags = cmdutil.AddSessionFlags(cmd)

	return cmd
}

// Execute loads once, then reloads on changes until ctx is done.
func Execute(ctx context.Context, app application.Application, flags *cmdutil.SessionFlags, args []string, w io.Writer) error {
	logger := app.Logger()

	roots, err := cmdutil.PackageRoots(app, args)
	if err != nil {
		return err
	}
	statePath := flags.StatePath(app)
	ui, err := memory.Open(statePath)
	if err != nil {
		return err
	}

	s, err := app.Session(ui, flags.Options(roots)...)
	if err != nil {
		return err
	}

	var mu sync.Mutex
	format := output.Format(app.OutputFormat())
	publish := func(report *ribbonsync.Report) {
		mu.Lock()
		defer mu.Unlock()
		if !report.DryRun {
			if err := ui.Save(statePath); err != nil {
				logger.Error().Err(err).Str("path", statePath).Msg("Could not save UI state")
			}
		}
		if err := output.WriteReport(w, format, report); err != nil {
			logger.Error().Err(err).Msg("Could not write report")
		}
	}

	report, err := s.Load(ctx)
	if err != nil {
		return err
	}
	publish(report)

	s.OnReloaded(func(report *ribbonsync.Report, err error) {
		if err != nil {
			logger.Warn().Err(err).Msg("Reload failed")
			return
		}
		publish(report)
	})
	if err := s.AutoReloadOn(); err != nil {
		return err
	}
	logger.Info().Strs("roots", roots).Msg("Watching for changes")

	<-ctx.Done()
	return s.AutoReloadOff()
}
