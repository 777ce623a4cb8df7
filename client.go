// Package ribbonsync keeps a host application's ribbon in line with the
// extension packages installed on disk.
//
// A Session discovers each package root (or reuses the cached tree of every
// tab whose fingerprint is unchanged) and reconciles the result into a live
// UI, one package at a time:
//
//	ui := memory.New()
//	s, err := ribbonsync.New(ui,
//	    ribbonsync.WithPackages("/extensions/acme.extension"),
//	    ribbonsync.WithLoaderDir("/opt/loader"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	s.OnPackageLoaded(func(r *ribbonsync.PackageReport) {
//	    log.Printf("%s: %s", r.Identity, r.Result.Log)
//	})
//
//	report, err := s.Load(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(report.Summary())
//
//	// Reload whenever a package changes on disk
//	if err := s.AutoReloadOn(); err != nil {
//	    log.Fatal(err)
//	}
//	defer s.AutoReloadOff()
package ribbonsync

import (
	"context"
	"sync"

	"github.com/agentstation/ribbonsync/internal/watcher"
	"github.com/agentstation/ribbonsync/pkg/discovery"
	"github.com/agentstation/ribbonsync/pkg/errors"
	"github.com/agentstation/ribbonsync/pkg/liveui"
)

// Compile-time interface check to ensure proper implementation.
var _ Session = (*session)(nil)

// Session loads extension packages into a live UI.
type Session interface {

	// Loader performs one load pass over every package
	Loader

	// AutoReloader reloads when package files change
	AutoReloader

	// Hooks provides access to event callback registration
	Hooks
}

// session is the internal implementation of the Session interface.
type session struct {

	// options are the configured options for the session
	options *options

	// discoverer builds package trees
	discoverer *discovery.Discoverer

	// mu serializes load passes and with them every access to ui
	mu sync.Mutex
	ui liveui.UI

	// auto reload state
	watcher      *watcher.Watcher
	stopCh       chan struct{}
	reloadCancel context.CancelFunc
	reloadMu     sync.Mutex

	hooks *hooks
}

// New creates a Session that reconciles into ui.
func New(ui liveui.UI, opts ...Option) (Session, error) {
	if ui == nil {
		return nil, &errors.ValidationError{Field: "ui", Message: "cannot be nil"}
	}

	options, err := defaults().apply(opts...)
	if err != nil {
		return nil, err
	}

	discoverer, err := discovery.New(options.discoveryOptions()...)
	if err != nil {
		return nil, errors.NewConfigError("discovery", "invalid discovery options", err)
	}

	s := &session{
		options:    options,
		discoverer: discoverer,
		ui:         ui,
		stopCh:     make(chan struct{}),
		hooks:      newHooks(),
	}

	if options.autoReload {
		if err := s.AutoReloadOn(); err != nil {
			return nil, err
		}
	}

	return s, nil
}
