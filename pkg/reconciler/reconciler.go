// Package reconciler brings a live UI in line with a desired package tree.
// It walks four levels (tab, panel, item, sub-item), creating missing
// elements, updating and re-enabling existing ones, and disabling orphans:
// live elements with no desired counterpart. Nothing is ever removed.
package reconciler

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/agentstation/ribbonsync/pkg/errors"
	"github.com/agentstation/ribbonsync/pkg/liveui"
	"github.com/agentstation/ribbonsync/pkg/liveui/memory"
	"github.com/agentstation/ribbonsync/pkg/logging"
	"github.com/agentstation/ribbonsync/pkg/oplog"
	"github.com/agentstation/ribbonsync/pkg/tree"
)

// Reconciler is the main interface for reconciling a package with a live UI.
type Reconciler interface {
	// Reconcile applies pkg to ui and reports every operation. Live UI
	// failures are collected in Result.Errors; the returned error is only
	// set for invalid input or cancellation.
	Reconcile(ctx context.Context, pkg *tree.Node, ui liveui.UI) (*Result, error)
}

// reconciler is the default implementation of Reconciler.
type reconciler struct {
	logger    *zerolog.Logger
	protected map[string]bool
	dryRun    bool
}

// New creates a new Reconciler with options.
func New(opts ...Option) (Reconciler, error) {
	options, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}
	return &reconciler{
		logger:    options.logger,
		protected: options.protected,
		dryRun:    options.dryRun,
	}, nil
}

// reconcileContext holds shared state for one pass.
type reconcileContext struct {
	ui        liveui.UI
	result    *Result
	logger    *zerolog.Logger
	protected map[string]bool
}

// Reconcile performs reconciliation top-down, one level at a time.
func (r *reconciler) Reconcile(ctx context.Context, pkg *tree.Node, ui liveui.UI) (*Result, error) {
	// Step 1: Validate input
	if pkg == nil || pkg.Kind != tree.KindPackage {
		return nil, &errors.ValidationError{Field: "package", Value: pkg, Message: "must be a package node"}
	}
	if ui == nil {
		return nil, &errors.ValidationError{Field: "ui", Message: "cannot be nil"}
	}

	// Step 2: Pick the UI to mutate
	rctx := r.initialize(ctx, ui)
	if r.dryRun {
		shadow, err := memory.Mirror(ui)
		if err != nil {
			return nil, errors.NewUIError("mirror", string(oplog.LevelTab), nil, err)
		}
		rctx.ui = shadow
	}

	// Step 3: Tabs in order; tabs without commands are left alone
	tabs := rctx.ui.Tabs()
	present := make(map[string]bool, len(pkg.Children))
	for _, tab := range sorted(pkg.Children) {
		present[tab.Identity] = true
		if err := ctx.Err(); err != nil {
			return rctx.result.finish(), err
		}
		if !tab.HasCommands() {
			rctx.result.Metadata.Stats.TabsSkipped++
			rctx.logger.Debug().Str("tab", tab.Identity).Msg("Skipping tab without commands")
			continue
		}
		rctx.result.Metadata.Stats.TabsReconciled++
		path := []string{tab.Identity}
		h, ok := rctx.upsert(tabs, tab, oplog.LevelTab, path)
		if !ok {
			continue
		}
		rctx.panels(h, tab, path)
	}

	// Step 4: Final cleanup of tabs absent from the package
	if err := ctx.Err(); err != nil {
		return rctx.result.finish(), err
	}
	rctx.disableOrphans(tabs, present, oplog.LevelTab, nil)

	res := rctx.result.finish()
	summary := res.Log.Summary()
	rctx.logger.Info().
		Int("created", summary.Created).
		Int("updated", summary.Updated).
		Int("disabled", summary.Disabled).
		Int("errors", len(res.Errors)).
		Bool("dry_run", r.dryRun).
		Dur("duration", res.Metadata.Duration).
		Msg("Reconciled package")
	return res, nil
}

// initialize sets up the reconcile context.
func (r *reconciler) initialize(ctx context.Context, ui liveui.UI) *reconcileContext {
	logger := r.logger
	if logger == nil {
		logger = logging.FromContext(ctx)
	}
	result := NewResult()
	result.Metadata.DryRun = r.dryRun
	return &reconcileContext{
		ui:        ui,
		result:    result,
		logger:    logger,
		protected: r.protected,
	}
}

func (rc *reconcileContext) panels(tabHandle liveui.Handle, tab *tree.Node, path []string) {
	level, err := rc.ui.Panels(tabHandle)
	if err != nil {
		rc.fail("open", oplog.LevelPanel, path, err)
		return
	}
	visited := make(map[string]bool, len(tab.Children))
	for _, panel := range sorted(tab.Children) {
		visited[panel.Identity] = true
		p := appendPath(path, panel.Identity)
		h, ok := rc.upsert(level, panel, oplog.LevelPanel, p)
		if !ok {
			continue
		}
		rc.items(h, panel, p)
	}
	rc.disableOrphans(level, visited, oplog.LevelPanel, path)
}

func (rc *reconcileContext) items(panelHandle liveui.Handle, panel *tree.Node, path []string) {
	level, err := rc.ui.Items(panelHandle)
	if err != nil {
		rc.fail("open", oplog.LevelItem, path, err)
		return
	}
	visited := make(map[string]bool, len(panel.Children))
	for _, item := range sorted(panel.Children) {
		visited[item.Identity] = true
		p := appendPath(path, item.Identity)
		h, ok := rc.upsert(level, item, oplog.LevelItem, p)
		if !ok || item.Kind != tree.KindGroup {
			continue
		}
		rc.subItems(h, item, p)
	}
	rc.disableOrphans(level, visited, oplog.LevelItem, path)
}

func (rc *reconcileContext) subItems(itemHandle liveui.Handle, group *tree.Node, path []string) {
	level, err := rc.ui.SubItems(itemHandle)
	if err != nil {
		rc.fail("open", oplog.LevelSubItem, path, err)
		return
	}
	visited := make(map[string]bool, len(group.Children))
	for _, cmd := range sorted(group.Children) {
		visited[cmd.Identity] = true
		rc.upsert(level, cmd, oplog.LevelSubItem, appendPath(path, cmd.Identity))
	}
	rc.disableOrphans(level, visited, oplog.LevelSubItem, path)
}

// upsert creates node in level, or updates and re-enables the existing
// element. It reports false when the element is unusable, in which case the
// caller skips its subtree.
func (rc *reconcileContext) upsert(level liveui.Level, node *tree.Node, lvl oplog.Level, path []string) (liveui.Handle, bool) {
	rc.result.Metadata.Stats.Elements++
	if level.Contains(node.Identity) {
		h, err := level.Get(node.Identity)
		if err != nil {
			rc.fail("get", lvl, path, err)
			return nil, false
		}
		if err := level.Update(h, node); err != nil {
			rc.fail("update", lvl, path, err)
			return nil, false
		}
		rc.record(oplog.ActionUpdate, lvl, path)
		return h, true
	}
	h, err := level.Create(node)
	if err != nil {
		rc.fail("create", lvl, path, err)
		return nil, false
	}
	rc.record(oplog.ActionCreate, lvl, path)
	return h, true
}

// disableOrphans disables every enabled element of level that is neither in
// keep nor protected. Elements that are already disabled emit nothing.
func (rc *reconcileContext) disableOrphans(level liveui.Level, keep map[string]bool, lvl oplog.Level, parent []string) {
	existing, err := level.ListExisting()
	if err != nil {
		rc.fail("list", lvl, parent, err)
		return
	}
	for _, h := range existing {
		if keep[h.Name()] || !h.Enabled() {
			continue
		}
		path := appendPath(parent, h.Name())
		if rc.protected[pathKey(path)] {
			continue
		}
		if err := level.Disable(h); err != nil {
			rc.fail("disable", lvl, path, err)
			continue
		}
		rc.record(oplog.ActionDisable, lvl, path)
	}
}

func (rc *reconcileContext) record(action oplog.Action, lvl oplog.Level, path []string) {
	rc.result.Log.Add(action, lvl, path)
	rc.logger.Debug().
		Str("action", string(action)).
		Str("level", string(lvl)).
		Strs("path", path).
		Msg("Applied UI operation")
}

func (rc *reconcileContext) fail(op string, lvl oplog.Level, path []string, err error) {
	uerr := errors.NewUIError(op, string(lvl), path, err)
	rc.result.Errors = append(rc.result.Errors, uerr)
	rc.logger.Warn().Err(err).
		Str("operation", op).
		Str("level", string(lvl)).
		Strs("path", path).
		Msg("Live UI operation failed")
}

func sorted(nodes []*tree.Node) []*tree.Node {
	out := append([]*tree.Node(nil), nodes...)
	tree.SortNodes(out)
	return out
}

func appendPath(path []string, name string) []string {
	return append(append(make([]string, 0, len(path)+1), path...), name)
}
