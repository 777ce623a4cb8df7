// Package sync provides the sync command implementation.
package sync

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/agentstation/ribbonsync/cmd/application"
	"github.com/agentstation/ribbonsync/internal/cmd/cmdutil"
	"github.com/agentstation/ribbonsync/internal/cmd/output"
	"github.com/agentstation/ribbonsync/pkg/errors"
	"github.com/agentstation/ribbonsync/pkg/liveui/memory"
)

// ErrIncomplete is returned when a pass finished but some package failed or
// some UI operation was rejected.
var ErrIncomplete = errors.New("load finished with errors")

// NewCommand creates the sync command using app context.
func NewCommand(app application.Application) *cobra.Command {
	var (
		flags   *cmdutil.SessionFlags
		showOps bool
	)

	cmd := &cobra.Command{
		Use:     "sync [package-root...]",
		GroupID: "core",
		Short:   "Load extension packages into the UI",
		Long: `Sync runs one load pass over the given package roots, or the roots
from the config when none are given.

Every tab is fingerprinted first. Tabs whose snapshot matches are taken from
the cache, the others are walked and decoded again. The resulting tree is
reconciled into the UI state file: new elements are created, existing ones
updated and elements that are no longer on disk are disabled.`,
		Example: `  ribbonsync sync ./extensions/Acme.extension
  ribbonsync sync --dry-run --ops
  ribbonsync sync -o json > report.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return Execute(cmd.Context(), app, flags, args, showOps, cmd.OutOrStdout())
		},
	}

	flags = cmdutil.AddSessionFlags(cmd)
	cmd.Flags().BoolVar(&showOps, "ops", false, "List every applied operation")

	return cmd
}

// Execute runs one load pass and writes the report to w.
func Execute(ctx context.Context, app application.Application, flags *cmdutil.SessionFlags, args []string, showOps bool, w io.Writer) error {
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
	report, err := s.Load(ctx)
	if err != nil {
		return err
	}

	if !report.DryRun {
		if err := ui.Save(statePath); err != nil {
			return err
		}
		logger.Debug().Str("path", statePath).Msg("Saved UI state")
	}

	format := output.Format(app.OutputFormat())
	if err := output.WriteReport(w, format, report); err != nil {
		return err
	}
	if showOps && (format == output.FormatText || format == output.FormatTable) {
		if err := (&output.TableFormatter{}).Format(w, output.OperationsData(report)); err != nil {
			return err
		}
	}

	if !report.IsSuccess() {
		return ErrIncomplete
	}
	return nil
}
