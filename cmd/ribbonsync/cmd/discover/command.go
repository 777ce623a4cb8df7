// Package discover provides the discover command implementation.
package discover

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentstation/ribbonsync/cmd/application"
	"github.com/agentstation/ribbonsync/internal/cmd/output"
	"github.com/agentstation/ribbonsync/pkg/discovery"
	"github.com/agentstation/ribbonsync/pkg/errors"
	"github.com/agentstation/ribbonsync/pkg/tree"
)

// ErrDiagnostics is returned with --strict when discovery excluded entities
// or could not read a directory.
var ErrDiagnostics = errors.New("discovery reported problems")

// Flags holds the discover command flags.
type Flags struct {
	Strict bool
}

// View is the serializable form of a discovery result.
type View struct {
	Package     *tree.Node             `json:"package" yaml:"package"`
	Diagnostics []discovery.Diagnostic `json:"diagnostics" yaml:"diagnostics"`
}

// NewCommand creates the discover command using app context.
func NewCommand(app application.Application) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:     "discover <package-root>",
		GroupID: "core",
		Short:   "Print the tree discovered in a package",
		Long: `Discover walks one package root and prints the tree it describes
without touching the UI or the cache. Skipped entries are reported as
diagnostics on stderr.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return Execute(cmd.Context(), app, flags, args[0], cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().BoolVar(&flags.Strict, "strict", false, "Fail on warning or error diagnostics")

	return cmd
}

// Execute discovers root and writes the tree to w and diagnostics to errw.
func Execute(ctx context.Context, app application.Application, flags *Flags, root string, w, errw io.Writer) error {
	d, err := app.Discoverer()
	if err != nil {
		return err
	}
	res, err := d.Discover(ctx, root)
	if err != nil {
		return err
	}

	format := output.Format(app.OutputFormat())
	switch format {
	case output.FormatJSON, output.FormatYAML:
		view := View{Package: res.Package, Diagnostics: res.Diagnostics}
		if view.Diagnostics == nil {
			view.Diagnostics = []discovery.Diagnostic{}
		}
		if err := output.NewFormatter(format).Format(w, view); err != nil {
			return err
		}
	case output.FormatTable:
		if err := (&output.TableFormatter{}).Format(w, nodesData(res.Package)); err != nil {
			return err
		}
		if len(res.Diagnostics) > 0 {
			if err := (&output.TableFormatter{}).Format(errw, output.DiagnosticsData(res.Diagnostics)); err != nil {
				return err
			}
		}
	default:
		if err := (&output.TreeFormatter{}).Format(w, res.Package); err != nil {
			return err
		}
		for _, diag := range res.Diagnostics {
			fmt.Fprintln(errw, diag.String())
		}
	}

	problems := discovery.Count(res.Diagnostics, discovery.SeverityError) +
		discovery.Count(res.Diagnostics, discovery.SeverityWarning)
	if flags.Strict && problems > 0 {
		return ErrDiagnostics
	}
	return nil
}

// nodesData lays out one row per node below the package.
func nodesData(pkg *tree.Node) output.Data {
	data := output.Data{Headers: []string{"PATH", "KIND", "TYPE", "ORDER", "SOURCE"}}
	_ = pkg.Walk(func(n *tree.Node, path []string) error {
		if n == pkg {
			return nil
		}
		data.Rows = append(data.Rows, []string{
			strings.Join(path, "/"),
			string(n.Kind),
			string(n.Type),
			fmt.Sprint(n.SortOrder),
			n.SourcePath,
		})
		return nil
	})
	return data
}
