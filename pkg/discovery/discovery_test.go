package discovery_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lithammer/dedent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/ribbonsync/pkg/alias"
	"github.com/agentstation/ribbonsync/pkg/assembly"
	"github.com/agentstation/ribbonsync/pkg/discovery"
	"github.com/agentstation/ribbonsync/pkg/errors"
	"github.com/agentstation/ribbonsync/pkg/logging"
	"github.com/agentstation/ribbonsync/pkg/tree"
)

// writeTree creates files relative to root. Names ending in a slash are
// created as empty directories.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if strings.HasSuffix(name, "/") {
			require.NoError(t, os.MkdirAll(path, 0o755))
			continue
		}
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

var helloScript = dedent.Dedent(`
	__doc__ = 'Says hello'
	__author__ = 'Jane'

	print("hello")
`)

func acmeFiles() map[string]string {
	return map[string]string{
		"Tools.tab/Tools_Hello.py":                          helloScript,
		"Tools.tab/Tools_Hello.png":                         "",
		"Tools.tab/Tools_Bye.py":                            "print('bye')\n",
		"Tools.tab/1020_Main_PullDown_Tools.png":            "",
		"Tools.tab/05_Main_Push_pyRevit.png":                "",
		"Tools.tab/Extra.panel/3_Stack2_Tools.png":          "",
		"Tools.tab/notes_a_b_c_d.png":                       "",
		"Tools.tab/README.txt":                              "ignored",
		"Empty.tab/10_Main_PullDown_Nothing.png":            "",
		"_private/Hidden.tab/Hidden_Cmd.py":                 "",
		"nested/Deep.tab/10_Deep_Link_Docs_Acme_Runner.png": "",
	}
}

func newDiscoverer(t *testing.T, opts ...discovery.Option) *discovery.Discoverer {
	t.Helper()
	opts = append([]discovery.Option{discovery.WithLogger(logging.NewNopLogger())}, opts...)
	d, err := discovery.New(opts...)
	require.NoError(t, err)
	return d
}

func acmeRegistry() discovery.Option {
	return discovery.WithAssemblies(assembly.NewRegistry(assembly.Loaded{Name: "Acme", Location: "/opt/Acme.dll"}))
}

func TestDiscoverTree(t *testing.T) {
	root := filepath.Join(t.TempDir(), "Acme")
	writeTree(t, root, acmeFiles())

	res, err := newDiscoverer(t, acmeRegistry()).Discover(context.Background(), root)
	require.NoError(t, err)

	want := strings.Join([]string{
		"Package Acme #0",
		"  Tab Deep #0",
		"    Panel Deep #10",
		"      Command Docs #10",
		"  Tab Empty #0",
		"    Panel Main #10",
		"      CommandGroup Nothing #10",
		"  Tab Tools #0",
		"    Panel Extra #0",
		"      CommandGroup Tools #3",
		"        Command Bye #0",
		"        Command Hello #0",
		"    Panel Main #5",
		"      Command pyRevit #5",
		"      CommandGroup Tools #20",
		"        Command Bye #0",
		"        Command Hello #0",
	}, "\n") + "\n"
	assert.Equal(t, want, res.Package.Outline())
	require.NoError(t, res.Package.Validate())

	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, discovery.CodeNameFormat, res.Diagnostics[0].Code)
	assert.Equal(t, discovery.SeverityDebug, res.Diagnostics[0].Severity)
	assert.True(t, strings.HasSuffix(res.Diagnostics[0].Path, "notes_a_b_c_d.png"))
}

func TestDiscoverMetadata(t *testing.T) {
	root := filepath.Join(t.TempDir(), "Acme")
	writeTree(t, root, acmeFiles())

	res, err := newDiscoverer(t, acmeRegistry()).Discover(context.Background(), root)
	require.NoError(t, err)

	hello := res.Package.Find("Tools", "Main", "Tools", "Hello")
	require.NotNil(t, hello)
	assert.Equal(t, tree.TypePush, hello.Type)
	assert.Equal(t, "Says hello\n\nScript Name:\nTools_Hello .py\n\nAuthor:\nJane", hello.Metadata.Tooltip)
	assert.Equal(t, "Jane", hello.Metadata.Author)
	assert.Equal(t, "ToolsToolsHello", hello.Metadata.ClassName)
	assert.Equal(t, "Tools", hello.Metadata.ScriptGroup)
	assert.Equal(t, filepath.Join(root, "Tools.tab", "Tools_Hello.png"), hello.Metadata.IconPath)
	assert.Equal(t, filepath.Join(root, "Tools.tab", "Tools_Hello.py"), hello.SourcePath)

	reload := res.Package.Find("Tools", "Main", "pyRevit")
	require.NotNil(t, reload)
	assert.Equal(t, tree.KindCommand, reload.Kind)
	assert.True(t, reload.Metadata.Builtin)
	assert.Equal(t, "pyRevit", reload.Metadata.ScriptGroup)
	assert.Empty(t, reload.SourcePath)

	docs := res.Package.Find("Deep", "Deep", "Docs")
	require.NotNil(t, docs)
	assert.Equal(t, tree.TypeLink, docs.Type)
	assert.Equal(t, &tree.Assembly{Name: "Acme", Class: "Runner", Location: "/opt/Acme.dll"}, docs.Metadata.Assembly)
}

func TestDiscoverDeterministic(t *testing.T) {
	files := acmeFiles()
	a := filepath.Join(t.TempDir(), "Acme")
	writeTree(t, a, files)

	// Same content created in a different order.
	b := filepath.Join(t.TempDir(), "Acme")
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	for i := len(names) - 1; i >= 0; i-- {
		writeTree(t, b, map[string]string{names[i]: files[names[i]]})
	}

	d := newDiscoverer(t, acmeRegistry())
	first, err := d.Discover(context.Background(), a)
	require.NoError(t, err)
	second, err := d.Discover(context.Background(), b)
	require.NoError(t, err)
	again, err := d.Discover(context.Background(), a)
	require.NoError(t, err)

	assert.Equal(t, first.Package.Outline(), second.Package.Outline())
	assert.Equal(t, first.Package.Outline(), again.Package.Outline())
}

func TestDiscoverUnknownAssembly(t *testing.T) {
	root := filepath.Join(t.TempDir(), "Acme")
	writeTree(t, root, map[string]string{
		"Deep.tab/10_Deep_Link_Docs_Acme_Runner.png": "",
	})

	res, err := newDiscoverer(t).Discover(context.Background(), root)
	require.NoError(t, err)

	panel := res.Package.Find("Deep", "Deep")
	require.NotNil(t, panel)
	assert.Empty(t, panel.Children)

	require.Len(t, res.Diagnostics, 1)
	diag := res.Diagnostics[0]
	assert.Equal(t, discovery.CodeUnknownAssembly, diag.Code)
	var uerr *errors.UnknownAssemblyError
	require.ErrorAs(t, diag.Cause, &uerr)
	assert.Equal(t, "Docs", uerr.Group)
}

func TestDiscoverMissingScript(t *testing.T) {
	root := filepath.Join(t.TempDir(), "Acme")
	writeTree(t, root, map[string]string{
		"Tools.tab/10_Main_Push_Orphan.png": "",
		"Tools.tab/Other_Cmd.py":            "",
	})

	res, err := newDiscoverer(t).Discover(context.Background(), root)
	require.NoError(t, err)

	assert.Empty(t, res.Package.Find("Tools", "Main").Children)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, discovery.CodeMissingScript, res.Diagnostics[0].Code)
	assert.ErrorIs(t, res.Diagnostics[0].Cause, errors.ErrMissingScript)
}

func TestDiscoverExtensionFolders(t *testing.T) {
	root := filepath.Join(t.TempDir(), "Acme")
	writeTree(t, root, map[string]string{
		"a/Tools.tab/Tools_One.py":               "",
		"a/Tools.tab/10_Main_PullDown_Tools.png": "",
		"b/Tools.tab/Tools_Two.py":               "",
		"b/Tools.tab/Tools_One.py":               "",
	})
	d := newDiscoverer(t)

	plan, err := d.Locate(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, plan.Tabs, 1)
	assert.Equal(t, "Tools", plan.Tabs[0].Identity)
	assert.Equal(t, []string{
		filepath.Join(root, "a", "Tools.tab"),
		filepath.Join(root, "b", "Tools.tab"),
	}, plan.Tabs[0].Dirs)

	tab, diags := d.DiscoverTab(context.Background(), plan, plan.Tabs[0])
	group := tab.Find("Main", "Tools")
	require.NotNil(t, group)
	require.Len(t, group.Children, 2)
	assert.Equal(t, "One", group.Children[0].Identity)
	assert.Equal(t, filepath.Join(root, "a", "Tools.tab", "Tools_One.py"), group.Children[0].SourcePath)
	assert.Equal(t, "Two", group.Children[1].Identity)

	require.Len(t, diags, 1)
	assert.Equal(t, discovery.CodeDuplicateIdentity, diags[0].Code)
	assert.Equal(t, filepath.Join(root, "b", "Tools.tab", "Tools_One.py"), diags[0].Path)
}

func TestDiscoverAliases(t *testing.T) {
	root := filepath.Join(t.TempDir(), "Acme")
	writeTree(t, root, map[string]string{
		"Tools.tab/Tools_Hello.py":             "",
		"Tools.tab/Tools_Bye.py":               "",
		"Tools.tab/10_Main_PullDown_Tools.png": "",
	})

	res, err := newDiscoverer(t, discovery.WithAliases(alias.Map{"Hello": "Say Hello", "Bye": "Say Hello"})).
		Discover(context.Background(), root)
	require.NoError(t, err)

	group := res.Package.Find("Tools", "Main", "Tools")
	require.Len(t, group.Children, 1)
	assert.Equal(t, "Say Hello", group.Children[0].Identity)
	assert.Equal(t, "Bye", group.Children[0].OriginalIdentity)

	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, discovery.CodeDuplicateIdentity, res.Diagnostics[0].Code)
}

func TestDiscoverLoosePanels(t *testing.T) {
	root := filepath.Join(t.TempDir(), "Acme")
	writeTree(t, root, map[string]string{
		"Tools.tab/Tools_Hello.py":                       "",
		"Tools.tab/2030_Side_PullDown_Tools.png":         "",
		"Tools.tab/Extra.panel/40_Side_Stack2_Tools.png": "",
	})

	res, err := newDiscoverer(t).Discover(context.Background(), root)
	require.NoError(t, err)

	want := strings.Join([]string{
		"Package Acme #0",
		"  Tab Tools #0",
		"    Panel Extra #0",
		"    Panel Side #20",
		"      CommandGroup Tools #30",
		"        Command Hello #0",
	}, "\n") + "\n"
	assert.Equal(t, want, res.Package.Outline())
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, discovery.CodeDuplicateIdentity, res.Diagnostics[0].Code)
}

func TestCheckAliases(t *testing.T) {
	root := filepath.Join(t.TempDir(), "Acme")
	writeTree(t, root, map[string]string{
		"Tools.tab/Tools_Hello.py":             "",
		"Tools.tab/10_Main_PullDown_Tools.png": "",
	})
	aliased := newDiscoverer(t, discovery.WithAliases(alias.Map{"Hello": "Say Hello"}))
	res, err := aliased.Discover(context.Background(), root)
	require.NoError(t, err)
	tab := res.Package.Child("Tools")

	assert.NoError(t, aliased.CheckAliases(tab))

	err = newDiscoverer(t).CheckAliases(tab)
	var miss *errors.CacheMissError
	require.ErrorAs(t, err, &miss)
	assert.Equal(t, errors.CacheMissAlias, miss.Reason)
	assert.Equal(t, "Tools", miss.Tab)
}

func TestDiscoverStackCapacity(t *testing.T) {
	root := filepath.Join(t.TempDir(), "Acme")
	writeTree(t, root, map[string]string{
		"Tools.tab/Tools_A.py":               "",
		"Tools.tab/Tools_B.py":               "",
		"Tools.tab/Tools_C.py":               "",
		"Tools.tab/10_Main_Stack2_Tools.png": "",
	})

	res, err := newDiscoverer(t).Discover(context.Background(), root)
	require.NoError(t, err)

	group := res.Package.Find("Tools", "Main", "Tools")
	require.Len(t, group.Children, 2)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, discovery.CodeStackOverflow, res.Diagnostics[0].Code)
}

func TestDiscoverGroupWithoutPanel(t *testing.T) {
	root := filepath.Join(t.TempDir(), "Acme")
	writeTree(t, root, map[string]string{
		"Tools.tab/Tools_A.py":            "",
		"Tools.tab/10_PullDown_Tools.png": "",
	})

	res, err := newDiscoverer(t).Discover(context.Background(), root)
	require.NoError(t, err)
	assert.Empty(t, res.Package.Find("Tools").Children)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, discovery.CodeNoPanel, res.Diagnostics[0].Code)
}

func TestDiscoverReloadFromLoader(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "Acme")
	loader := filepath.Join(base, "loader")
	writeTree(t, root, map[string]string{
		"Tools.tab/05_Main_Push_pyRevit.png": "",
		"Master_Cmd.py":                      "",
		"10_Main_PullDown_Master.png":        "",
	})
	writeTree(t, loader, map[string]string{
		"__init__.py": "__doc__ = 'Reloads every package'\n",
		"helper.py":   "",
	})

	res, err := newDiscoverer(t, discovery.WithLoaderDir(loader)).Discover(context.Background(), root)
	require.NoError(t, err)

	reload := res.Package.Find("Tools", "Main", "pyRevit")
	require.NotNil(t, reload)
	assert.False(t, reload.Metadata.Builtin)
	assert.Equal(t, filepath.Join(loader, "__init__.py"), reload.SourcePath)
	assert.True(t, strings.HasPrefix(reload.Metadata.Tooltip, "Reloads every package"))
}

func TestDiscoverMasterScopeCommands(t *testing.T) {
	root := filepath.Join(t.TempDir(), "Acme")
	writeTree(t, root, map[string]string{
		"Shared_Ping.py":                        "",
		"Tools.tab/10_Main_PullDown_Shared.png": "",
		"Other.tab/10_Main_PullDown_Shared.png": "",
	})

	res, err := newDiscoverer(t).Discover(context.Background(), root)
	require.NoError(t, err)

	for _, tab := range []string{"Tools", "Other"} {
		group := res.Package.Find(tab, "Main", "Shared")
		require.NotNil(t, group, tab)
		require.Len(t, group.Children, 1, tab)
		assert.Equal(t, "Ping", group.Children[0].Identity)
	}
}

func TestLocateErrors(t *testing.T) {
	d := newDiscoverer(t)

	_, err := d.Locate(context.Background(), filepath.Join(t.TempDir(), "missing"))
	var ioErr *errors.IOError
	assert.ErrorAs(t, err, &ioErr)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = d.Discover(ctx, t.TempDir())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewRejectsNilCollaborators(t *testing.T) {
	_, err := discovery.New(discovery.WithAliases(nil))
	assert.True(t, errors.IsValidationError(err))

	_, err = discovery.New(discovery.WithAssemblies(nil))
	assert.Error(t, err)
}
