package ribbonsync

import (
	"context"

	"github.com/agentstation/ribbonsync/internal/watcher"
	"github.com/agentstation/ribbonsync/pkg/constants"
	"github.com/agentstation/ribbonsync/pkg/errors"
	"github.com/agentstation/ribbonsync/pkg/logging"
)

// Compile-time interface check to ensure proper implementation.
var _ AutoReloader = (*session)(nil)

// AutoReloader provides controls for reloading when package files change.
type AutoReloader interface {
	// AutoReloadOn watches the package roots and runs Load once changes settle
	AutoReloadOn() error

	// AutoReloadOff stops watching
	AutoReloadOff() error
}

// AutoReloadOn implements AutoReloader.
func (s *session) AutoReloadOn() error {
	if len(s.options.packages) == 0 {
		return &errors.ValidationError{
			Field:   "packages",
			Message: "auto reload needs at least one package root",
		}
	}

	// Stop any existing watcher to prevent resource leaks
	if err := s.AutoReloadOff(); err != nil {
		return err
	}

	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	var dirs []string
	if s.options.loaderDir != "" {
		dirs = append(dirs, s.options.loaderDir)
	}
	w, err := watcher.New(watcher.Config{
		Roots:       s.options.packages,
		Dirs:        dirs,
		Layout:      s.options.layout,
		DebounceDur: s.options.reloadDebounce,
		Logger:      s.options.logger,
	})
	if err != nil {
		return err
	}
	onChange, err := w.Start()
	if err != nil {
		_ = w.Stop()
		return err
	}
	s.watcher = w
	s.stopCh = make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	if s.options.logger != nil {
		ctx = logging.WithLogger(ctx, s.options.logger)
	}
	s.reloadCancel = cancel

	go func(parentCtx context.Context, stopCh <-chan struct{}) {
		for {
			select {
			case <-onChange:
				// Bound each reload so a stuck host cannot block the loop
				loadCtx, loadCancel := context.WithTimeout(parentCtx, constants.CommandTimeout)
				report, err := s.Load(loadCtx)
				loadCancel()

				if err != nil {
					if parentCtx.Err() != nil {
						return
					}
					logging.FromContext(parentCtx).Warn().Err(err).Msg("Auto reload interrupted")
				}
				s.hooks.triggerReloaded(report, err)
			case <-parentCtx.Done():
				return
			case <-stopCh:
				return
			}
		}
	}(ctx, s.stopCh)

	return nil
}

// AutoReloadOff implements AutoReloader.
func (s *session) AutoReloadOff() error {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	if s.reloadCancel != nil {
		s.reloadCancel()
		s.reloadCancel = nil
	}
	select {
	case <-s.stopCh:
		// Already closed
	default:
		close(s.stopCh)
	}
	if s.watcher != nil {
		err := s.watcher.Stop()
		s.watcher = nil
		if err != nil {
			return errors.WrapIO("close", "watcher", err)
		}
	}
	return nil
}
