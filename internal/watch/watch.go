// Package watch re-runs a callback whenever a model file changes on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-pose/internal/logger"
)

// DefaultDebounce collapses the burst of events a single save produces.
const DefaultDebounce = 100 * time.Millisecond

// ErrClosed is returned when Run is called on a closed watcher.
var ErrClosed = errors.New("watcher already closed")

// ReloadFunc is called with the watched path after each settled change.
type ReloadFunc func(path string) error

// Watcher observes one file. The parent directory is watched so that editors
// which replace the file through a rename are still seen.
type Watcher struct {
	path     string
	debounce time.Duration
	fs       *fsnotify.Watcher
	log      *zap.Logger
	closed   bool
}

// New starts watching path. A debounce of zero selects DefaultDebounce.
func New(path string, debounce time.Duration) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fs.Add(filepath.Dir(abs)); err != nil {
		fs.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	return &Watcher{
		path:     abs,
		debounce: debounce,
		fs:       fs,
		log:      logger.Named("watch").With(zap.String("path", abs)),
	}, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string {
	return w.path
}

// Run blocks until ctx is done, calling reload once per settled change.
// Reload errors are logged and do not stop the watcher.
func (w *Watcher) Run(ctx context.Context, reload ReloadFunc) error {
	if w.closed {
		return ErrClosed
	}

	var settle <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case e, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(e.Name) != w.path {
				continue
			}
			switch {
			case e.Op&(fsnotify.Create|fsnotify.Write) != 0:
				settle = time.After(w.debounce)
			case e.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				w.log.Warn("model file went away", zap.Stringer("op", e.Op))
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.log.Error("watch error", zap.Error(err))

		case <-settle:
			settle = nil
			w.log.Debug("reloading")
			if err := reload(w.path); err != nil {
				w.log.Error("reload failed", zap.Error(err))
			}
		}
	}
}

// Close stops the underlying watcher.
func (w *Watcher) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.fs.Close()
}
