// Package cache provides the cache command implementation.
package cache

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/agentstation/ribbonsync/cmd/application"
	"github.com/agentstation/ribbonsync/internal/cmd/output"
	"github.com/agentstation/ribbonsync/pkg/cache"
	"github.com/agentstation/ribbonsync/pkg/constants"
)

// NewCommand creates the cache command using app context.
func NewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "cache",
		GroupID: "management",
		Short:   "Inspect or clear tab snapshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every snapshot file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return Clear(app, cmd.OutOrStdout())
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show <package> <tab>",
		Short: "Print the snapshot of a package tab",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return Show(app, cache.Key{Package: args[0], Tab: args[1]}, cmd.OutOrStdout())
		},
	})

	return cmd
}

// Clear removes the snapshot files from the cache directory.
func Clear(app application.Application, w io.Writer) error {
	n, err := cache.Clear(app.CacheDir(), constants.ProductName)
	if err != nil {
		return err
	}
	app.Logger().Debug().Int("removed", n).Str("dir", app.CacheDir()).Msg("Cleared cache")
	_, err = fmt.Fprintf(w, "Removed %d snapshot files\n", n)
	return err
}

// Show prints the snapshot stored under key: its tree as text, or the whole
// snapshot as JSON or YAML.
func Show(app application.Application, key cache.Key, w io.Writer) error {
	store := cache.NewFileStore(app.CacheDir())
	snap, err := store.Read(key)
	if err != nil {
		return err
	}

	format := output.Format(app.OutputFormat())
	switch format {
	case output.FormatJSON, output.FormatYAML:
		return output.NewFormatter(format).Format(w, snap)
	default:
		if _, err := fmt.Fprintf(w, "%s (hash %s, version %s)\n", store.Path(key), snap.TabHash, snap.CacheVersion); err != nil {
			return err
		}
		return (&output.TreeFormatter{}).Format(w, snap.Tree)
	}
}
