// Package fswatch observes a directory tree and delivers its changes as a
// stream of ChangeEvent values.
//
// fsnotify only watches single directories, so the Watcher registers every
// directory below the root at startup and every directory created afterwards.
package fswatch

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/devflow/devflow/errors"
	"github.com/devflow/devflow/logging"
	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// DefaultBuffer is the capacity of the event channel.
const DefaultBuffer = 256

// Option configures a Watcher.
type Option func(*Watcher)

// WithSkipDir prunes directories for which skip returns true. The root is
// never skipped.
func WithSkipDir(skip func(path string) bool) Option {
	return func(w *Watcher) {
		w.skipDir = skip
	}
}

// WithBuffer sets the event channel capacity.
func WithBuffer(n int) Option {
	return func(w *Watcher) {
		if n > 0 {
			w.buffer = n
		}
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(logger *logrus.Entry) Option {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// Watcher recursively watches a root directory.
type Watcher struct {
	root    string
	fsw     *fsnotify.Watcher
	events  chan ChangeEvent
	errors  chan error
	skipDir func(path string) bool
	buffer  int
	logger  *logrus.Entry

	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
	closeErr  error
}

// New starts watching root and its whole subtree. A root that does not exist,
// is not a directory or cannot be registered yields a WATCH_INIT error.
func New(root string, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.WatchInit(root, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, errors.WatchInit(abs, err)
	}
	if !info.IsDir() {
		return nil, errors.WatchInit(abs, fmt.Errorf("not a directory"))
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.WatchInit(abs, err)
	}

	w := &Watcher{
		root:   abs,
		fsw:    fsw,
		buffer: DefaultBuffer,
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logging.NewLogger("fswatch")
	}
	w.events = make(chan ChangeEvent, w.buffer)
	w.errors = make(chan error, 1)

	if err := w.addTree(abs, true); err != nil {
		fsw.Close()
		return nil, errors.WatchInit(abs, err)
	}

	w.wg.Add(1)
	go w.forward()

	return w, nil
}

// Root returns the absolute watched root.
func (w *Watcher) Root() string {
	return w.root
}

// Events returns the change stream. It is closed by Close.
func (w *Watcher) Events() <-chan ChangeEvent {
	return w.events
}

// Errors returns non-fatal delivery errors. Errors are dropped if nobody is
// receiving when they occur.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Close stops watching and waits for the forwarding goroutine to exit. Both
// channels are closed afterwards. Close is idempotent.
func (w *Watcher) Close() error {
	w.closeOnce.Do(func() {
		close(w.done)
		w.closeErr = w.fsw.Close()
		w.wg.Wait()
	})
	return w.closeErr
}

func (w *Watcher) forward() {
	defer w.wg.Done()
	defer close(w.events)
	defer close(w.errors)

	for {
		select {
		case <-w.done:
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			// Register new directories before the event is delivered so a
			// consumer that reacts to it can rely on the subtree being watched.
			if ev.Has(fsnotify.Create) {
				w.maybeAddDir(ev.Name)
			}

			change := ChangeEvent{
				Paths: []string{ev.Name},
				Kind:  kindOf(ev.Op),
				Time:  time.Now(),
			}
			select {
			case w.events <- change:
			case <-w.done:
				return
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			default:
				w.logger.WithError(err).Debug("Dropping watch error, consumer busy")
			}
		}
	}
}

// addTree registers dir and every directory below it. With strict set, a
// failure on dir itself or a registration failure other than a vanished or
// unreadable subdirectory is returned. Otherwise failures are logged and the
// affected subtree is skipped.
func (w *Watcher) addTree(dir string, strict bool) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == dir && strict {
				return walkErr
			}
			w.logger.WithError(walkErr).Debugf("Skipping inaccessible path %s", path)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && w.skipDir != nil && w.skipDir(path) {
			w.logger.Debugf("Not watching ignored directory %s", path)
			return filepath.SkipDir
		}

		if err := w.fsw.Add(path); err != nil {
			switch {
			case strict && path == dir:
				return err
			case stderrors.Is(err, fs.ErrNotExist):
				return filepath.SkipDir
			case strict && !stderrors.Is(err, fs.ErrPermission):
				// Typically watch descriptor exhaustion; starting with a
				// partially watched tree would hide changes.
				return err
			}
			w.logger.WithError(err).Warnf("Failed to watch %s", path)
			return filepath.SkipDir
		}
		return nil
	})
}

// maybeAddDir registers path if it is a newly created directory.
func (w *Watcher) maybeAddDir(path string) {
	info, err := os.Lstat(path)
	if err != nil || !info.IsDir() {
		return
	}
	if err := w.addTree(path, false); err != nil {
		w.logger.WithError(err).Debugf("Failed to watch new directory %s", path)
	}
}
