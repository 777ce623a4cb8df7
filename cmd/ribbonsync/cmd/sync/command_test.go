package sync

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/ribbonsync/internal/cmd/application"
	"github.com/agentstation/ribbonsync/internal/cmd/cmdutil"
	"github.com/agentstation/ribbonsync/pkg/errors"
	"github.com/agentstation/ribbonsync/pkg/liveui/memory"
)

func writePackage(t *testing.T) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "Acme")
	for name, content := range map[string]string{
		"Tools.tab/Tools_Hello.py":             "print('hello')\n",
		"Tools.tab/10_Main_PullDown_Tools.png": "",
	} {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func newMock(t *testing.T, format string) (*application.Mock, string) {
	t.Helper()
	dir := t.TempDir()
	state := filepath.Join(dir, "ui.yaml")
	return &application.Mock{
		CacheDirFunc:     func() string { return dir },
		UIStatePathFunc:  func() string { return state },
		OutputFormatFunc: func() string { return format },
	}, state
}

func TestExecute(t *testing.T) {
	root := writePackage(t)
	app, state := newMock(t, "text")

	var out bytes.Buffer
	err := Execute(context.Background(), app, &cmdutil.SessionFlags{}, []string{root}, false, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "✓ Acme: 1 tabs (0 cached)")
	assert.Contains(t, out.String(), "1 packages: 4 created, 0 updated, 0 disabled")

	ui, err := memory.Open(state)
	require.NoError(t, err)
	assert.NotNil(t, ui.Find("Tools", "Main", "Tools", "Hello"))

	// The saved state is picked up again on the next run
	out.Reset()
	require.NoError(t, Execute(context.Background(), app, &cmdutil.SessionFlags{}, []string{root}, false, &out))
	assert.Contains(t, out.String(), "0 created, 4 updated")
	assert.Contains(t, out.String(), "(1 cached)")
}

func TestExecuteDryRunLeavesState(t *testing.T) {
	root := writePackage(t)
	app, state := newMock(t, "table")

	var out bytes.Buffer
	err := Execute(context.Background(), app, &cmdutil.SessionFlags{DryRun: true}, []string{root}, true, &out)
	require.NoError(t, err)
	assert.NoFileExists(t, state)
	assert.Contains(t, out.String(), "Acme")
	assert.Contains(t, out.String(), "Tools/Main/Tools/Hello")
}

func TestExecuteUsesConfiguredRoots(t *testing.T) {
	root := writePackage(t)
	app, _ := newMock(t, "json")
	app.PackagesFunc = func() []string { return []string{root} }

	var out bytes.Buffer
	require.NoError(t, Execute(context.Background(), app, &cmdutil.SessionFlags{}, nil, false, &out))
	assert.Contains(t, out.String(), `"identity": "Acme"`)
}

func TestExecuteNeedsRoots(t *testing.T) {
	app, _ := newMock(t, "text")
	err := Execute(context.Background(), app, &cmdutil.SessionFlags{}, nil, false, &bytes.Buffer{})
	assert.True(t, errors.IsValidationError(err))
}

func TestExecuteIncomplete(t *testing.T) {
	root := writePackage(t)
	missing := filepath.Join(t.TempDir(), "missing")
	app, state := newMock(t, "text")

	var out bytes.Buffer
	err := Execute(context.Background(), app, &cmdutil.SessionFlags{}, []string{missing, root}, false, &out)
	assert.ErrorIs(t, err, ErrIncomplete)
	assert.Contains(t, out.String(), "✗ "+missing)
	assert.Contains(t, out.String(), "✓ Acme")
	assert.FileExists(t, state)
}

func TestNewCommand(t *testing.T) {
	root := writePackage(t)
	app, _ := newMock(t, "text")

	cmd := NewCommand(app)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--dry-run", root})
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "(Dry run)")
}
