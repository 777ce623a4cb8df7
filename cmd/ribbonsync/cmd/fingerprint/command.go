// Package fingerprint provides the fingerprint command implementation.
package fingerprint

import (
	"context"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentstation/ribbonsync/cmd/application"
	"github.com/agentstation/ribbonsync/internal/cmd/output"
	"github.com/agentstation/ribbonsync/pkg/cache"
	"github.com/agentstation/ribbonsync/pkg/errors"
)

// Cache states of a tab.
const (
	StateFresh  = "fresh"
	StateStale  = "stale"
	StateAbsent = "absent"
)

// Tab is the fingerprint of one located tab.
type Tab struct {
	Identity string   `json:"identity" yaml:"identity"`
	Hash     string   `json:"hash" yaml:"hash"`
	Cache    string   `json:"cache" yaml:"cache"`
	Dirs     []string `json:"dirs" yaml:"dirs"`
}

// NewCommand creates the fingerprint command using app context.
func NewCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:     "fingerprint <package-root>",
		GroupID: "management",
		Short:   "Show tab fingerprints and whether their snapshots are current",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return Execute(cmd.Context(), app, args[0], cmd.OutOrStdout())
		},
	}
}

// Execute fingerprints every tab of root and compares it with the cache.
func Execute(ctx context.Context, app application.Application, root string, w io.Writer) error {
	tabs, err := Fingerprints(ctx, app, root)
	if err != nil {
		return err
	}

	format := output.Format(app.OutputFormat())
	if format == output.FormatJSON || format == output.FormatYAML {
		return output.NewFormatter(format).Format(w, tabs)
	}
	data := output.Data{Headers: []string{"TAB", "HASH", "CACHE", "DIRS"}}
	for _, t := range tabs {
		data.Rows = append(data.Rows, []string{t.Identity, t.Hash, t.Cache, strings.Join(t.Dirs, "\n")})
	}
	return (&output.TableFormatter{}).Format(w, data)
}

// Fingerprints locates the tabs of root and hashes each one. A snapshot
// built with other aliases counts as stale.
func Fingerprints(ctx context.Context, app application.Application, root string) ([]Tab, error) {
	d, err := app.Discoverer()
	if err != nil {
		return nil, err
	}
	plan, err := d.Locate(ctx, root)
	if err != nil {
		return nil, err
	}

	store := cache.NewFileStore(app.CacheDir())
	tabs := make([]Tab, 0, len(plan.Tabs))
	for _, loc := range plan.Tabs {
		hash, err := cache.Fingerprint(app.Layout(), loc.Dirs...)
		if err != nil {
			return nil, err
		}
		t := Tab{Identity: loc.Identity, Hash: hash, Cache: StateAbsent, Dirs: loc.Dirs}
		snap, err := store.Read(cache.Key{Package: plan.Identity, Tab: loc.Identity})
		if err == nil && snap.TabHash == hash {
			err = d.CheckAliases(snap.Tree)
		}
		switch {
		case err == nil && snap.TabHash == hash:
			t.Cache = StateFresh
		case err == nil || !isAbsent(err):
			t.Cache = StateStale
		}
		tabs = append(tabs, t)
	}
	return tabs, nil
}

func isAbsent(err error) bool {
	var miss *errors.CacheMissError
	return errors.As(err, &miss) && miss.Reason == errors.CacheMissAbsent
}
