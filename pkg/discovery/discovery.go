// Package discovery builds the desired UI tree of one extension package from
// the filesystem.
//
// Discovery runs in two phases. Collect walks each tab's directories and
// decodes every file and bundled directory into raw entities without
// attaching them to anything. Merge then sorts those entities by source path
// and joins them by key: panels by (tab, panel), groups by (tab, panel,
// group), and commands into every group whose name matches their script
// group. Problems with individual files become Diagnostics; the walk itself
// only fails when the package root cannot be read.
package discovery

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"

	"github.com/agentstation/ribbonsync/pkg/decoder"
	"github.com/agentstation/ribbonsync/pkg/errors"
	"github.com/agentstation/ribbonsync/pkg/logging"
	"github.com/agentstation/ribbonsync/pkg/tree"
)

// Discoverer turns package directories into trees.
type Discoverer struct {
	opts    *options
	decoder *decoder.Decoder
}

// New creates a Discoverer.
func New(opts ...Option) (*Discoverer, error) {
	o, err := defaultOptions().apply(opts...)
	if err != nil {
		return nil, err
	}
	return &Discoverer{opts: o, decoder: decoder.New(o.layout)}, nil
}

// TabLocation is one tab identity and every directory that contributes to
// it. Extension folders that repeat a tab name merge into one tab.
type TabLocation struct {
	Identity string
	Dirs     []string
}

// Plan is the result of locating a package: its tabs and its master scope.
type Plan struct {
	Root        string
	Identity    string
	Tabs        []TabLocation
	Diagnostics []Diagnostic

	master []rawCommand
}

// Result is a discovered package tree plus everything that was skipped.
type Result struct {
	Package     *tree.Node
	Diagnostics []Diagnostic
}

// Locate finds the tab directories below root and collects the master scope.
// It fails only when root itself cannot be read.
func (d *Discoverer) Locate(ctx context.Context, root string) (*Plan, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.WrapIO("stat", root, err)
	}
	if !info.IsDir() {
		return nil, errors.NewValidationError("root", root, "not a directory")
	}
	if _, _, err := readDir(root); err != nil {
		return nil, err
	}

	plan := &Plan{Root: root, Identity: filepath.Base(root)}
	if desc, err := d.decoder.Decode(plan.Identity, decoder.EntityPackage); err == nil {
		plan.Identity = desc.(decoder.ContainerDescriptor).Identity
	}

	plan.master, plan.Diagnostics = d.collectMaster(root)

	byTab := make(map[string]*TabLocation)
	var order []string
	if err := d.locate(ctx, root, byTab, &order, &plan.Diagnostics); err != nil {
		return nil, err
	}
	sort.Strings(order)
	for _, id := range order {
		loc := byTab[id]
		sort.Strings(loc.Dirs)
		plan.Tabs = append(plan.Tabs, *loc)
	}
	return plan, nil
}

func (d *Discoverer) locate(ctx context.Context, dir string, byTab map[string]*TabLocation, order *[]string, diags *[]Diagnostic) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	lay := d.decoder.Layout()
	_, dirs, err := readDir(dir)
	if err != nil {
		*diags = append(*diags, diagnose(SeverityError, dir, err))
		return nil
	}
	for _, name := range dirs {
		if lay.IsPrivate(name) {
			continue
		}
		path := filepath.Join(dir, name)
		if !lay.IsTabDir(name) {
			if err := d.locate(ctx, path, byTab, order, diags); err != nil {
				return err
			}
			continue
		}
		desc, err := d.decoder.Decode(name, decoder.EntityTab)
		if err != nil {
			*diags = append(*diags, diagnose(SeverityDebug, path, err))
			continue
		}
		id := desc.(decoder.ContainerDescriptor).Identity
		loc, ok := byTab[id]
		if !ok {
			loc = &TabLocation{Identity: id}
			byTab[id] = loc
			*order = append(*order, id)
		}
		loc.Dirs = append(loc.Dirs, path)
	}
	return nil
}

// DiscoverTab collects and merges one tab.
func (d *Discoverer) DiscoverTab(ctx context.Context, plan *Plan, loc TabLocation) (*tree.Node, []Diagnostic) {
	c := &collection{}
	for _, dir := range loc.Dirs {
		if ctx.Err() != nil {
			break
		}
		d.collectDir(c, dir, "")
	}
	c.sortBySource()
	tab := d.merge(loc, plan.master, c)
	logDiagnostics(d.logger(ctx), c.diags)
	return tab, c.diags
}

// Discover locates and discovers every tab under root.
func (d *Discoverer) Discover(ctx context.Context, root string) (*Result, error) {
	plan, err := d.Locate(ctx, root)
	if err != nil {
		return nil, err
	}
	logDiagnostics(d.logger(ctx), plan.Diagnostics)

	res := &Result{Diagnostics: append([]Diagnostic(nil), plan.Diagnostics...)}
	tabs := make([]*tree.Node, 0, len(plan.Tabs))
	for _, loc := range plan.Tabs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tab, diags := d.DiscoverTab(ctx, plan, loc)
		tabs = append(tabs, tab)
		res.Diagnostics = append(res.Diagnostics, diags...)
	}
	res.Package = plan.Package(tabs)
	return res, nil
}

// CheckAliases reports whether a cached tab was built with the current
// aliases: every command identity must equal the alias of its original
// name. A mismatch is a *errors.CacheMissError with reason alias.
func (d *Discoverer) CheckAliases(tab *tree.Node) error {
	return tab.Walk(func(node *tree.Node, _ []string) error {
		if node.Kind != tree.KindCommand {
			return nil
		}
		if want := d.opts.aliases.Alias(node.OriginalIdentity); node.Identity != want {
			return errors.NewCacheMissError(tab.Identity, errors.CacheMissAlias,
				fmt.Errorf("%s is now aliased %s", node.Identity, want))
		}
		return nil
	})
}

// Package assembles the package node from discovered or cached tabs.
func (p *Plan) Package(tabs []*tree.Node) *tree.Node {
	pkg := &tree.Node{
		Kind:             tree.KindPackage,
		Identity:         p.Identity,
		OriginalIdentity: p.Identity,
		SourcePath:       p.Root,
		Children:         tabs,
	}
	tree.SortNodes(pkg.Children)
	return pkg
}

func (d *Discoverer) logger(ctx context.Context) *zerolog.Logger {
	if d.opts.logger != nil {
		return d.opts.logger
	}
	return logging.FromContext(ctx)
}
