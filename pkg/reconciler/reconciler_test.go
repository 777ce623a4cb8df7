package reconciler_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/ribbonsync/pkg/errors"
	"github.com/agentstation/ribbonsync/pkg/liveui/memory"
	"github.com/agentstation/ribbonsync/pkg/logging"
	"github.com/agentstation/ribbonsync/pkg/oplog"
	"github.com/agentstation/ribbonsync/pkg/reconciler"
	"github.com/agentstation/ribbonsync/pkg/tree"
)

func n(kind tree.Kind, id string, order int, children ...*tree.Node) *tree.Node {
	node := &tree.Node{Kind: kind, Identity: id, OriginalIdentity: id, SortOrder: order, Children: children}
	switch kind {
	case tree.KindCommand:
		node.Type = tree.TypePush
	case tree.KindGroup:
		node.Type = tree.TypePullDown
	}
	return node
}

// desired has six reconcilable elements in Tools and one tab without
// commands.
func desired() *tree.Node {
	return n(tree.KindPackage, "Acme", 0,
		n(tree.KindTab, "Tools", 0,
			n(tree.KindPanel, "Main", 10,
				n(tree.KindCommand, "Ping", 20),
				n(tree.KindGroup, "Tools", 10,
					n(tree.KindCommand, "Hello", 0),
					n(tree.KindCommand, "Bye", 0),
				),
			),
		),
		n(tree.KindTab, "Empty", 0,
			n(tree.KindPanel, "Main", 0, n(tree.KindGroup, "Nothing", 0)),
		),
	)
}

func newReconciler(t *testing.T, opts ...reconciler.Option) reconciler.Reconciler {
	t.Helper()
	opts = append([]reconciler.Option{reconciler.WithLogger(logging.NewNopLogger())}, opts...)
	r, err := reconciler.New(opts...)
	require.NoError(t, err)
	return r
}

func TestReconcileEmissionOrder(t *testing.T) {
	ui := memory.New()
	res, err := newReconciler(t).Reconcile(context.Background(), desired(), ui)
	require.NoError(t, err)

	var got []string
	for _, op := range res.Log.Operations {
		got = append(got, op.String())
	}
	assert.Equal(t, []string{
		"create tab Tools",
		"create panel Tools/Main",
		"create item Tools/Main/Tools",
		"create subitem Tools/Main/Tools/Bye",
		"create subitem Tools/Main/Tools/Hello",
		"create item Tools/Main/Ping",
	}, got)
	assert.True(t, res.IsSuccess())
	assert.Equal(t, 1, res.Metadata.Stats.TabsReconciled)
	assert.Equal(t, 1, res.Metadata.Stats.TabsSkipped)
	assert.Equal(t, 6, res.Metadata.Stats.Elements)
	assert.False(t, res.Metadata.EndTime.Before(res.Metadata.StartTime))
}

func TestReconcileIdempotent(t *testing.T) {
	ui := memory.New()
	r := newReconciler(t)

	first, err := r.Reconcile(context.Background(), desired(), ui)
	require.NoError(t, err)
	assert.Equal(t, oplog.Summary{Created: 6, Total: 6}, first.Log.Summary())

	second, err := r.Reconcile(context.Background(), desired(), ui)
	require.NoError(t, err)
	assert.Equal(t, oplog.Summary{Updated: 6, Total: 6}, second.Log.Summary())
	assert.False(t, second.HasChanges())
}

func TestReconcileTabSkipRule(t *testing.T) {
	ui := memory.New()
	// A live tab sharing the name of a desired tab without commands.
	_, err := ui.Tabs().Create(n(tree.KindTab, "Empty", 0))
	require.NoError(t, err)

	res, err := newReconciler(t).Reconcile(context.Background(), desired(), ui)
	require.NoError(t, err)

	assert.False(t, res.Log.Touches("Empty"))
	assert.False(t, res.Log.Touches("Empty", "Main"))
	assert.True(t, ui.Find("Empty").Enabled, "left untouched")
	assert.Empty(t, ui.Find("Empty").Children)
}

func TestReconcileOrphans(t *testing.T) {
	ui := memory.New()
	r := newReconciler(t, reconciler.WithProtectedTabs("Shared"))
	ctx := context.Background()

	_, err := r.Reconcile(ctx, desired(), ui)
	require.NoError(t, err)

	// Live elements with no desired counterpart.
	tab, err := ui.Tabs().Get("Tools")
	require.NoError(t, err)
	panels, err := ui.Panels(tab)
	require.NoError(t, err)
	panel, err := panels.Get("Main")
	require.NoError(t, err)
	items, err := ui.Items(panel)
	require.NoError(t, err)
	group, err := items.Get("Tools")
	require.NoError(t, err)
	subs, err := ui.SubItems(group)
	require.NoError(t, err)
	_, err = subs.Create(n(tree.KindCommand, "X", 0))
	require.NoError(t, err)
	_, err = ui.Tabs().Create(n(tree.KindTab, "Old", 0))
	require.NoError(t, err)
	_, err = ui.Tabs().Create(n(tree.KindTab, "Shared", 0))
	require.NoError(t, err)

	res, err := r.Reconcile(ctx, desired(), ui)
	require.NoError(t, err)
	disabled := res.Log.Filter(oplog.ActionDisable)
	require.Len(t, disabled, 2)
	assert.Equal(t, "disable subitem Tools/Main/Tools/X", disabled[0].String())
	assert.Equal(t, "disable tab Old", disabled[1].String())
	assert.Equal(t, oplog.Summary{Updated: 6, Disabled: 2, Total: 8}, res.Log.Summary())

	x := ui.Find("Tools", "Main", "Tools", "X")
	require.NotNil(t, x, "orphans are disabled, never removed")
	assert.False(t, x.Enabled)
	assert.True(t, ui.Find("Shared").Enabled)

	again, err := r.Reconcile(ctx, desired(), ui)
	require.NoError(t, err)
	assert.Empty(t, again.Log.Filter(oplog.ActionDisable), "already disabled orphans emit nothing")
}

func TestReconcileProtectedTree(t *testing.T) {
	ui := memory.New()
	ctx := context.Background()
	// Beta shares tab Tools with Acme and adds its own panel and sub-item.
	beta := n(tree.KindPackage, "Beta", 0,
		n(tree.KindTab, "Tools", 0,
			n(tree.KindPanel, "Extra", 20, n(tree.KindCommand, "Run", 0)),
			n(tree.KindPanel, "Main", 10,
				n(tree.KindGroup, "Tools", 10, n(tree.KindCommand, "Wave", 0)),
			),
		),
	)
	acme := newReconciler(t, reconciler.WithProtectedTree(beta))
	betaRec := newReconciler(t, reconciler.WithProtectedTree(desired()))

	for i := 0; i < 2; i++ {
		res, err := acme.Reconcile(ctx, desired(), ui)
		require.NoError(t, err)
		assert.Empty(t, res.Log.Filter(oplog.ActionDisable))
		res, err = betaRec.Reconcile(ctx, beta, ui)
		require.NoError(t, err)
		assert.Empty(t, res.Log.Filter(oplog.ActionDisable))
	}

	for _, path := range [][]string{
		{"Tools", "Main", "Ping"},
		{"Tools", "Main", "Tools", "Hello"},
		{"Tools", "Main", "Tools", "Wave"},
		{"Tools", "Extra", "Run"},
	} {
		node := ui.Find(path...)
		require.NotNil(t, node, path)
		assert.True(t, node.Enabled, path)
	}

	// Elements nobody declares are still orphans.
	pkg := desired()
	group := pkg.Find("Tools", "Main", "Tools")
	group.Children = []*tree.Node{group.Child("Bye")}
	res, err := acme.Reconcile(ctx, pkg, ui)
	require.NoError(t, err)
	disabled := res.Log.Filter(oplog.ActionDisable)
	require.Len(t, disabled, 1)
	assert.Equal(t, "disable subitem Tools/Main/Tools/Hello", disabled[0].String())
	assert.True(t, ui.Find("Tools", "Main", "Tools", "Wave").Enabled)
}

func TestReconcileReenables(t *testing.T) {
	ui := memory.New()
	r := newReconciler(t)
	ctx := context.Background()

	_, err := r.Reconcile(ctx, desired(), ui)
	require.NoError(t, err)

	// Drop Ping from the package, then bring it back.
	pkg := desired()
	main := pkg.Find("Tools", "Main")
	main.Children = main.Children[1:]
	res, err := r.Reconcile(ctx, pkg, ui)
	require.NoError(t, err)
	assert.True(t, res.Log.Touches("Tools", "Main", "Ping"))
	assert.False(t, ui.Find("Tools", "Main", "Ping").Enabled)

	_, err = r.Reconcile(ctx, desired(), ui)
	require.NoError(t, err)
	assert.True(t, ui.Find("Tools", "Main", "Ping").Enabled)
}

func TestReconcileErrorIsolation(t *testing.T) {
	ui := memory.New()
	boom := errors.New("host refused")
	ui.Fail("create", []string{"Tools", "Main", "Tools"}, boom)

	res, err := newReconciler(t).Reconcile(context.Background(), desired(), ui)
	require.NoError(t, err)

	require.Len(t, res.Errors, 1)
	var uerr *errors.UIError
	require.ErrorAs(t, res.Errors[0], &uerr)
	assert.Equal(t, "create", uerr.Operation)
	assert.Equal(t, []string{"Tools", "Main", "Tools"}, uerr.Path)
	assert.ErrorIs(t, res.Errors[0], boom)
	assert.False(t, res.IsSuccess())

	assert.Equal(t, 3, res.Log.Summary().Created, "tab, panel and Ping")
	assert.NotNil(t, ui.Find("Tools", "Main", "Ping"))
	assert.Nil(t, ui.Find("Tools", "Main", "Tools"))
}

func TestReconcileDryRun(t *testing.T) {
	ui := memory.New()
	_, err := ui.Tabs().Create(n(tree.KindTab, "Old", 0))
	require.NoError(t, err)

	res, err := newReconciler(t, reconciler.WithDryRun(true)).Reconcile(context.Background(), desired(), ui)
	require.NoError(t, err)

	assert.True(t, res.Metadata.DryRun)
	assert.Equal(t, oplog.Summary{Created: 6, Disabled: 1, Total: 7}, res.Log.Summary())
	assert.Contains(t, res.Summary(), "Dry run completed")

	require.Len(t, ui.State().Tabs, 1, "live UI untouched")
	assert.True(t, ui.Find("Old").Enabled)
}

func TestReconcileInvalidInput(t *testing.T) {
	r := newReconciler(t)

	_, err := r.Reconcile(context.Background(), nil, memory.New())
	assert.True(t, errors.IsValidationError(err))

	_, err = r.Reconcile(context.Background(), n(tree.KindTab, "Tools", 0), memory.New())
	assert.True(t, errors.IsValidationError(err))

	_, err = r.Reconcile(context.Background(), desired(), nil)
	assert.True(t, errors.IsValidationError(err))

	_, err = reconciler.New(reconciler.WithLogger(nil))
	assert.Error(t, err)
}

func TestReconcileCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ui := memory.New()

	res, err := newReconciler(t).Reconcile(ctx, desired(), ui)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)
	assert.True(t, res.Log.IsEmpty())
}

func TestReconcileLogsToContextLogger(t *testing.T) {
	tl := logging.NewTestLogger(t)
	r, err := reconciler.New()
	require.NoError(t, err)

	_, err = r.Reconcile(tl.Context(context.Background()), desired(), memory.New())
	require.NoError(t, err)
	tl.AssertContains(t, "Reconciled package")
}
