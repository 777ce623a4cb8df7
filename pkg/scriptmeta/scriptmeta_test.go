package scriptmeta_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lithammer/dedent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/ribbonsync/pkg/scriptmeta"
)

func TestExtract(t *testing.T) {
	script := dedent.Dedent(`
		"""Module docstring is ignored."""
		__doc__ = 'Selects all walls\non the active level.'
		__author__ = "Jane \"JD\" Doe"

		import sys
	`)

	doc, ok := scriptmeta.Extract(strings.NewReader(script), "__doc__")
	require.True(t, ok)
	assert.Equal(t, "Selects all walls\non the active level.", doc)

	author, ok := scriptmeta.Extract(strings.NewReader(script), "__AUTHOR__")
	require.True(t, ok)
	assert.Equal(t, `Jane "JD" Doe`, author)

	_, ok = scriptmeta.Extract(strings.NewReader(script), "__version__")
	assert.False(t, ok)
}

func TestExtractContinuation(t *testing.T) {
	script := dedent.Dedent(`
		__doc__ = 'First line. '\
		          'Second line.\t'
		          "Third line."
		x = 1
		'not part of the doc'
	`)

	doc, ok := scriptmeta.Extract(strings.NewReader(script), "__doc__")
	require.True(t, ok)
	assert.Equal(t, "First line. Second line.\tThird line.", doc)
}

func TestExtractEmpty(t *testing.T) {
	_, ok := scriptmeta.Extract(strings.NewReader(`__doc__ = ""`), "__doc__")
	assert.False(t, ok)
}

func TestFileExtractor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Tools_Hello.py")
	require.NoError(t, os.WriteFile(path, []byte("__doc__ = 'Says hello'\n"), 0o644))

	e := scriptmeta.NewFileExtractor()
	doc, ok := e.Lookup(path, "__doc__")
	require.True(t, ok)
	assert.Equal(t, "Says hello", doc)

	// Memoized: later edits are not observed within one extractor.
	require.NoError(t, os.WriteFile(path, []byte("__doc__ = 'Changed'\n"), 0o644))
	doc, _ = e.Lookup(path, "__doc__")
	assert.Equal(t, "Says hello", doc)

	_, ok = e.Lookup(path, "__author__")
	assert.False(t, ok)

	_, ok = e.Lookup(filepath.Join(t.TempDir(), "missing.py"), "__doc__")
	assert.False(t, ok)
}

func TestTooltip(t *testing.T) {
	assert.Equal(t, "Says hello\n\nScript Name:\nTools_Hello .py\n\nAuthor:\nJane",
		scriptmeta.Tooltip("Says hello", "Tools_Hello", ".PY", "Jane"))
	assert.Equal(t, "\n\nScript Name:\nTools_Hello .py",
		scriptmeta.Tooltip("", "Tools_Hello", ".py", ""))
}
