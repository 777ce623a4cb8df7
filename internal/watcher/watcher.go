// Package watcher provides file system watching with debouncing for
// extension package trees.
package watcher

import (
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/agentstation/ribbonsync/pkg/constants"
	"github.com/agentstation/ribbonsync/pkg/errors"
	"github.com/agentstation/ribbonsync/pkg/layout"
	"github.com/agentstation/ribbonsync/pkg/logging"
)

// Watcher monitors package roots and signals once edits settle.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	roots     []string
	dirs      []string
	layout    layout.Layout
	debounce  time.Duration
	logger    *zerolog.Logger
	onChange  chan struct{}
	done      chan struct{}
	stopOnce  sync.Once
}

// Config holds watcher configuration options.
type Config struct {
	Roots []string
	// Dirs are watched without their subdirectories, and a missing one
	// only logs a warning. The loader directory goes here.
	Dirs        []string
	Layout      layout.Layout
	DebounceDur time.Duration
	Logger      *zerolog.Logger
}

// DefaultConfig returns the default configuration for roots.
func DefaultConfig(roots ...string) Config {
	return Config{
		Roots:       roots,
		Layout:      layout.Default(),
		DebounceDur: constants.WatchDebounce,
	}
}

// New creates a new watcher.
func New(cfg Config) (*Watcher, error) {
	if len(cfg.Roots) == 0 {
		return nil, errors.NewValidationError("roots", cfg.Roots, "at least one root is required")
	}
	if cfg.DebounceDur <= 0 {
		cfg.DebounceDur = constants.WatchDebounce
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.WrapIO("watch", "fsnotify", err)
	}
	return &Watcher{
		fsWatcher: fsw,
		roots:     cfg.Roots,
		dirs:      cfg.Dirs,
		layout:    cfg.Layout,
		debounce:  cfg.DebounceDur,
		logger:    cfg.Logger,
		onChange:  make(chan struct{}, 1),
		done:      make(chan struct{}),
	}, nil
}

// Start watches every directory below the roots. The returned channel
// receives a signal when a relevant change has settled.
func (w *Watcher) Start() (<-chan struct{}, error) {
	for _, root := range w.roots {
		if err := w.addTree(root); err != nil {
			return nil, err
		}
	}
	for _, dir := range w.dirs {
		if err := w.fsWatcher.Add(dir); err != nil {
			w.logger.Warn().Err(err).Str("path", dir).Msg("Could not watch directory")
		}
	}
	go w.loop()
	return w.onChange, nil
}

// Stop terminates the watcher and releases resources. It is safe to call
// more than once.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.fsWatcher.Close()
	})
	return err
}

// addTree adds dir and its non-private subdirectories. fsnotify does not
// watch recursively.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.WrapIO("walk", path, err)
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && w.layout.IsPrivate(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.fsWatcher.Add(path); err != nil {
			return errors.WrapIO("watch", path, err)
		}
		return nil
	})
}

func (w *Watcher) loop() {
	var (
		timer   *time.Timer
		pending bool
	)

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !w.isRelevantEvent(event) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						w.logger.Warn().Err(err).Str("path", event.Name).Msg("Could not watch new directory")
					}
				}
			}

			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			pending = true

		case <-func() <-chan time.Time {
			if timer != nil {
				return timer.C
			}
			return nil
		}():
			if pending {
				// Drop the signal when one is already queued
				select {
				case w.onChange <- struct{}{}:
				default:
				}
				pending = false
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn().Err(err).Msg("File watcher error")

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// isRelevantEvent reports whether event can change a discovered tree.
// Chmod events and private names never do, except for the init script that
// backs the reload command.
func (w *Watcher) isRelevantEvent(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	base := filepath.Base(event.Name)
	if w.layout.IsPrivate(base) && !w.isInitScript(base) {
		return false
	}
	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		return true
	}
	if w.layout.IsScript(base) || w.layout.IsIcon(base) {
		return true
	}
	info, err := os.Stat(event.Name)
	return err == nil && info.IsDir()
}

func (w *Watcher) isInitScript(name string) bool {
	return w.layout.IsScript(name) && w.layout.IsInitScript(name)
}
