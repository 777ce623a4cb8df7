package memory_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/ribbonsync/pkg/errors"
	"github.com/agentstation/ribbonsync/pkg/liveui/memory"
	"github.com/agentstation/ribbonsync/pkg/tree"
)

func node(kind tree.Kind, id string) *tree.Node {
	return &tree.Node{Kind: kind, Identity: id, OriginalIdentity: id}
}

func TestLevels(t *testing.T) {
	ui := memory.New()

	tabs := ui.Tabs()
	assert.False(t, tabs.Contains("Tools"))
	tab, err := tabs.Create(node(tree.KindTab, "Tools"))
	require.NoError(t, err)
	assert.Equal(t, "Tools", tab.Name())
	assert.True(t, tab.Enabled())
	assert.True(t, tabs.Contains("Tools"))

	_, err = tabs.Create(node(tree.KindTab, "Tools"))
	assert.Error(t, err, "duplicate create")

	panels, err := ui.Panels(tab)
	require.NoError(t, err)
	panel, err := panels.Create(node(tree.KindPanel, "Main"))
	require.NoError(t, err)

	items, err := ui.Items(panel)
	require.NoError(t, err)
	cmd := node(tree.KindCommand, "Hello")
	cmd.Type = tree.TypePush
	cmd.SourcePath = "/ext/Tools_Hello.py"
	item, err := items.Create(cmd)
	require.NoError(t, err)

	require.NoError(t, items.Disable(item))
	assert.False(t, item.Enabled())
	require.NoError(t, items.Update(item, cmd))
	assert.True(t, item.Enabled())

	got, err := items.Get("Hello")
	require.NoError(t, err)
	assert.Equal(t, "Hello", got.Name())

	_, err = items.Get("Missing")
	assert.True(t, errors.IsNotFound(err))

	list, err := items.ListExisting()
	require.NoError(t, err)
	require.Len(t, list, 1)

	el := ui.Find("Tools", "Main", "Hello")
	require.NotNil(t, el)
	assert.Equal(t, "/ext/Tools_Hello.py", el.Script)
	assert.Equal(t, tree.TypePush, el.Type)

	// Handles are bound to their level.
	assert.Error(t, panels.Disable(item))
	other := memory.New()
	_, err = other.Panels(tab)
	assert.Error(t, err)
}

func TestBuiltinKeepsBinding(t *testing.T) {
	ui := memory.New()
	reload := node(tree.KindCommand, "reloadScripts")
	reload.Type = tree.TypePush
	reload.Metadata.Builtin = true

	h, err := ui.Tabs().Create(reload)
	require.NoError(t, err)

	rebound := node(tree.KindCommand, "reloadScripts")
	rebound.Type = tree.TypePush
	rebound.SourcePath = "/loader/__init__.py"
	rebound.Metadata.Tooltip = "Reload"
	require.NoError(t, ui.Tabs().Update(h, rebound))

	el := ui.Find("reloadScripts")
	assert.True(t, el.Builtin)
	assert.Empty(t, el.Script)
	assert.Equal(t, "Reload", el.Tooltip)
}

func TestFaults(t *testing.T) {
	ui := memory.New()
	boom := errors.New("host refused")
	ui.Fail("create", []string{"Bad"}, boom)

	_, err := ui.Tabs().Create(node(tree.KindTab, "Bad"))
	assert.ErrorIs(t, err, boom)
	_, err = ui.Tabs().Create(node(tree.KindTab, "Good"))
	assert.NoError(t, err)
}

func TestSaveOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ui.yaml")

	empty, err := memory.Open(path)
	require.NoError(t, err)
	assert.Empty(t, empty.State().Tabs)

	ui := memory.New()
	tab, err := ui.Tabs().Create(node(tree.KindTab, "Tools"))
	require.NoError(t, err)
	panels, err := ui.Panels(tab)
	require.NoError(t, err)
	link := node(tree.KindCommand, "Docs")
	link.Type = tree.TypeLink
	link.Metadata.Assembly = &tree.Assembly{Name: "Acme", Class: "Runner", Location: "/opt/Acme.dll"}
	_, err = panels.Create(link)
	require.NoError(t, err)
	require.NoError(t, ui.Tabs().Disable(tab))
	require.NoError(t, ui.Save(path))

	loaded, err := memory.Open(path)
	require.NoError(t, err)
	assert.Equal(t, ui.State(), loaded.State())

	docs := loaded.Find("Tools", "Docs")
	require.NotNil(t, docs)
	assert.Equal(t, "Runner", docs.Class)
	assert.False(t, loaded.Find("Tools").Enabled)
}

func TestSaveReplacesAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ui.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tabs: []\n"), 0o644))

	ui := memory.New()
	_, err := ui.Tabs().Create(node(tree.KindTab, "Tools"))
	require.NoError(t, err)
	require.NoError(t, ui.Save(path))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temp files left behind")
	loaded, err := memory.Open(path)
	require.NoError(t, err)
	assert.NotNil(t, loaded.Find("Tools"))

	t.Run("missing directory", func(t *testing.T) {
		err := ui.Save(filepath.Join(dir, "missing", "ui.yaml"))
		var ioErr *errors.IOError
		assert.ErrorAs(t, err, &ioErr)
	})
}
