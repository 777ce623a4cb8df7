package watch

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/ribbonsync"
	"github.com/agentstation/ribbonsync/internal/cmd/application"
	"github.com/agentstation/ribbonsync/internal/cmd/cmdutil"
	"github.com/agentstation/ribbonsync/pkg/liveui"
	"github.com/agentstation/ribbonsync/pkg/liveui/memory"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func write(t *testing.T, root, name, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestExecuteReloadsOnChange(t *testing.T) {
	root := filepath.Join(t.TempDir(), "Acme")
	write(t, root, "Tools.tab/Tools_Hello.py", "print('hello')\n")
	write(t, root, "Tools.tab/10_Main_PullDown_Tools.png", "")

	dir := t.TempDir()
	state := filepath.Join(dir, "ui.yaml")
	base := &application.Mock{
		CacheDirFunc:     func() string { return dir },
		UIStatePathFunc:  func() string { return state },
		OutputFormatFunc: func() string { return "text" },
	}
	app := &application.Mock{
		CacheDirFunc:     base.CacheDirFunc,
		UIStatePathFunc:  base.UIStatePathFunc,
		OutputFormatFunc: base.OutputFormatFunc,
		SessionFunc: func(ui liveui.UI, opts ...ribbonsync.Option) (ribbonsync.Session, error) {
			return base.Session(ui, append(opts, ribbonsync.WithReloadDebounce(50*time.Millisecond))...)
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out := &syncBuffer{}
	done := make(chan error, 1)
	go func() {
		done <- Execute(ctx, app, &cmdutil.SessionFlags{}, []string{root}, out)
	}()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "4 created")
	}, 5*time.Second, 20*time.Millisecond)

	// Give the watcher a moment to register the tree before changing it
	time.Sleep(100 * time.Millisecond)
	write(t, root, "Tools.tab/Tools_Wave.py", "print('wave')\n")

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "1 created, 4 updated")
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}

	ui, err := memory.Open(state)
	require.NoError(t, err)
	assert.NotNil(t, ui.Find("Tools", "Main", "Tools", "Wave"))
}

func TestExecuteMissingRoot(t *testing.T) {
	app := &application.Mock{}
	err := Execute(context.Background(), app, &cmdutil.SessionFlags{}, nil, &syncBuffer{})
	assert.Error(t, err)
}
