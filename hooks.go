package ribbonsync

import (
	"sync"
)

// Compile-time interface check to ensure proper implementation.
var _ Hooks = (*session)(nil)

// Hooks provides event callback registration.
type Hooks interface {
	// OnPackageLoaded registers a callback for packages reconciled without error
	OnPackageLoaded(PackageLoadedHook)

	// OnPackageFailed registers a callback for packages that failed to load
	OnPackageFailed(PackageFailedHook)

	// OnReloaded registers a callback for completed automatic reloads
	OnReloaded(ReloadedHook)
}

// Hook function types for load events
type (
	// PackageLoadedHook is called after a package was reconciled
	PackageLoadedHook func(report *PackageReport)

	// PackageFailedHook is called when a package could not be loaded
	PackageFailedHook func(report *PackageReport)

	// ReloadedHook is called after an automatic reload, with its error if any
	ReloadedHook func(report *Report, err error)
)

// hooks manages event callbacks.
type hooks struct {
	mu              sync.RWMutex
	onPackageLoaded []PackageLoadedHook
	onPackageFailed []PackageFailedHook
	onReloaded      []ReloadedHook
}

// newHooks creates a new hooks instance
func newHooks() *hooks {
	return &hooks{}
}

// OnPackageLoaded implements Hooks.
func (s *session) OnPackageLoaded(fn PackageLoadedHook) {
	s.hooks.mu.Lock()
	defer s.hooks.mu.Unlock()
	s.hooks.onPackageLoaded = append(s.hooks.onPackageLoaded, fn)
}

// OnPackageFailed implements Hooks.
func (s *session) OnPackageFailed(fn PackageFailedHook) {
	s.hooks.mu.Lock()
	defer s.hooks.mu.Unlock()
	s.hooks.onPackageFailed = append(s.hooks.onPackageFailed, fn)
}

// OnReloaded implements Hooks.
func (s *session) OnReloaded(fn ReloadedHook) {
	s.hooks.mu.Lock()
	defer s.hooks.mu.Unlock()
	s.hooks.onReloaded = append(s.hooks.onReloaded, fn)
}

// triggerPackage calls the loaded or failed hooks for report.
func (h *hooks) triggerPackage(report *PackageReport) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if report.Err != nil {
		for _, hook := range h.onPackageFailed {
			hook(report)
		}
		return
	}
	for _, hook := range h.onPackageLoaded {
		hook(report)
	}
}

func (h *hooks) triggerReloaded(report *Report, err error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, hook := range h.onReloaded {
		hook(report, err)
	}
}
