// Package application provides a mock of the command application interface.
package application

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/ribbonsync"
	app "github.com/agentstation/ribbonsync/cmd/application"
	"github.com/agentstation/ribbonsync/pkg/cache"
	"github.com/agentstation/ribbonsync/pkg/discovery"
	"github.com/agentstation/ribbonsync/pkg/layout"
	"github.com/agentstation/ribbonsync/pkg/liveui"
)

// Mock provides a mock implementation of Application for testing.
// Each method can be customized by setting the corresponding function field.
// If a function field is nil, the method falls back to a working default
// built from the other fields, so most command tests only set PackagesFunc
// and CacheDirFunc.
//
// Example Usage:
//
//	mock := &application.Mock{
//	    PackagesFunc: func() []string { return []string{root} },
//	    CacheDirFunc: func() string { return t.TempDir() },
//	}
//	cmd := sync.NewCommand(mock)
type Mock struct {
	SessionFunc      func(ui liveui.UI, opts ...ribbonsync.Option) (ribbonsync.Session, error)
	DiscovererFunc   func() (*discovery.Discoverer, error)
	LayoutFunc       func() layout.Layout
	PackagesFunc     func() []string
	CacheDirFunc     func() string
	UIStatePathFunc  func() string
	LoggerFunc       func() *zerolog.Logger
	OutputFormatFunc func() string
	VersionFunc      func() string
	CommitFunc       func() string
	DateFunc         func() string
	BuiltByFunc      func() string
}

// Session returns a session using the mock function, or a real session over
// the mock's layout, cache directory and logger.
func (m *Mock) Session(ui liveui.UI, opts ...ribbonsync.Option) (ribbonsync.Session, error) {
	if m.SessionFunc != nil {
		return m.SessionFunc(ui, opts...)
	}
	base := []ribbonsync.Option{
		ribbonsync.WithLayout(m.Layout()),
		ribbonsync.WithStore(cache.NewFileStore(m.CacheDir())),
		ribbonsync.WithLogger(m.Logger()),
	}
	return ribbonsync.New(ui, append(base, opts...)...)
}

// Discoverer returns a discoverer using the mock function or one over the
// mock's layout.
func (m *Mock) Discoverer() (*discovery.Discoverer, error) {
	if m.DiscovererFunc != nil {
		return m.DiscovererFunc()
	}
	return discovery.New(discovery.WithLayout(m.Layout()), discovery.WithLogger(m.Logger()))
}

// Layout returns the layout using the mock function or the default layout.
func (m *Mock) Layout() layout.Layout {
	if m.LayoutFunc != nil {
		return m.LayoutFunc()
	}
	return layout.Default()
}

// Packages returns package roots using the mock function or nil.
func (m *Mock) Packages() []string {
	if m.PackagesFunc != nil {
		return m.PackagesFunc()
	}
	return nil
}

// CacheDir returns the cache directory using the mock function or "".
func (m *Mock) CacheDir() string {
	if m.CacheDirFunc != nil {
		return m.CacheDirFunc()
	}
	return ""
}

// UIStatePath returns the UI state path using the mock function or "".
func (m *Mock) UIStatePath() string {
	if m.UIStatePathFunc != nil {
		return m.UIStatePathFunc()
	}
	return ""
}

// Logger returns a logger using the mock function or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
}

// OutputFormat returns output format using the mock function or "table".
func (m *Mock) OutputFormat() string {
	if m.OutputFormatFunc != nil {
		return m.OutputFormatFunc()
	}
	return "table"
}

// Version returns version using the mock function or "dev".
func (m *Mock) Version() string {
	if m.VersionFunc != nil {
		return m.VersionFunc()
	}
	return "dev"
}

// Commit returns commit using the mock function or "unknown".
func (m *Mock) Commit() string {
	if m.CommitFunc != nil {
		return m.CommitFunc()
	}
	return "unknown"
}

// Date returns date using the mock function or "unknown".
func (m *Mock) Date() string {
	if m.DateFunc != nil {
		return m.DateFunc()
	}
	return "unknown"
}

// BuiltBy returns builtBy using the mock function or "test".
func (m *Mock) BuiltBy() string {
	if m.BuiltByFunc != nil {
		return m.BuiltByFunc()
	}
	return "test"
}

// Ensure Mock implements Application at compile time.
var _ app.Application = (*Mock)(nil)
