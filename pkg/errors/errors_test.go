package errors_test

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	pkgerrors "github.com/agentstation/ribbonsync/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := pkgerrors.New("test error")
	assert.NotNil(t, err)
	assert.Equal(t, "test error", err.Error())
}

func TestNameFormatError(t *testing.T) {
	t.Run("with reason", func(t *testing.T) {
		err := pkgerrors.NewNameFormatError("a_b_c_d_e", "group", "5 tokens")
		assert.Equal(t, `cannot decode "a_b_c_d_e" as group: 5 tokens`, err.Error())
		assert.True(t, errors.Is(err, pkgerrors.ErrNameFormat))
		assert.True(t, pkgerrors.IsNameFormat(err))
	})

	t.Run("without reason", func(t *testing.T) {
		err := &pkgerrors.NameFormatError{Name: "x", Kind: "command"}
		assert.Equal(t, `cannot decode "x" as command`, err.Error())
	})

	t.Run("wrapped", func(t *testing.T) {
		wrapped := fmt.Errorf("scan: %w", pkgerrors.NewNameFormatError("x", "group", ""))
		var nf *pkgerrors.NameFormatError
		require.True(t, errors.As(wrapped, &nf))
		assert.Equal(t, "group", nf.Kind)
	})
}

func TestEntityErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		message  string
	}{
		{
			name:     "missing script",
			err:      pkgerrors.NewMissingScriptError("Hello", "/ext/Tools.tab/10_Push_Hello.png"),
			sentinel: pkgerrors.ErrMissingScript,
			message:  "command Hello declared by /ext/Tools.tab/10_Push_Hello.png has no backing script",
		},
		{
			name:     "unknown assembly",
			err:      pkgerrors.NewUnknownAssemblyError("Acme", "Runner"),
			sentinel: pkgerrors.ErrUnknownAssembly,
			message:  "assembly Acme referenced by group Runner is not loaded",
		},
		{
			name:     "duplicate identity",
			err:      pkgerrors.NewDuplicateIdentityError("Run", "Tools/Main", "/b/x.py"),
			sentinel: pkgerrors.ErrDuplicateIdentity,
			message:  "Run already exists under Tools/Main (duplicate from /b/x.py)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.message, tt.err.Error())
			assert.ErrorIs(t, tt.err, tt.sentinel)
		})
	}
}

func TestCacheMissError(t *testing.T) {
	t.Run("reason only", func(t *testing.T) {
		err := pkgerrors.NewCacheMissError("Tools", pkgerrors.CacheMissHash, nil)
		assert.Equal(t, "cache miss for tab Tools (hash)", err.Error())
		assert.True(t, pkgerrors.IsCacheMiss(err))
	})

	t.Run("unwraps cause", func(t *testing.T) {
		err := pkgerrors.NewCacheMissError("Tools", pkgerrors.CacheMissAbsent, fs.ErrNotExist)
		assert.ErrorIs(t, err, fs.ErrNotExist)
		assert.ErrorIs(t, err, pkgerrors.ErrCacheMiss)
	})
}

func TestCacheWriteError(t *testing.T) {
	cause := errors.New("disk full")
	err := pkgerrors.NewCacheWriteError("Tools", "/tmp/x.json", cause)
	assert.Contains(t, err.Error(), "disk full")
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, pkgerrors.ErrCacheWrite)
	assert.False(t, pkgerrors.IsCacheMiss(err))
}

func TestValidationError(t *testing.T) {
	t.Run("with field", func(t *testing.T) {
		err := &pkgerrors.ValidationError{Field: "delimiter", Message: "cannot be empty"}
		assert.Equal(t, "validation failed for field delimiter: cannot be empty", err.Error())
		assert.True(t, errors.Is(err, pkgerrors.ErrInvalidInput))
	})

	t.Run("without field", func(t *testing.T) {
		err := pkgerrors.NewValidationError("", nil, "invalid layout")
		assert.Equal(t, "validation failed: invalid layout", err.Error())
		assert.True(t, pkgerrors.IsValidationError(err))
	})
}

func TestUIError(t *testing.T) {
	cause := errors.New("host refused")
	err := pkgerrors.NewUIError("create", "panel", []string{"Tools", "Main"}, cause)
	assert.Equal(t, "failed to create panel Tools/Main: host refused", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestWrapHelpers(t *testing.T) {
	assert.NoError(t, pkgerrors.WrapIO("read", "/x", nil))
	assert.NoError(t, pkgerrors.WrapParse("yaml", "/x", nil))
	assert.NoError(t, pkgerrors.WrapValidation("x", nil))

	ioErr := pkgerrors.WrapIO("read", "/x", fs.ErrPermission)
	var target *pkgerrors.IOError
	require.ErrorAs(t, ioErr, &target)
	assert.Equal(t, "read", target.Operation)
	assert.ErrorIs(t, ioErr, fs.ErrPermission)

	parseErr := pkgerrors.WrapParse("yaml", "aliases.yaml", errors.New("bad indent"))
	assert.Equal(t, "parse error in yaml file aliases.yaml: bad indent", parseErr.Error())

	valErr := pkgerrors.WrapValidation("tab_suffix", errors.New("required"))
	assert.True(t, pkgerrors.IsValidationError(valErr))
}
