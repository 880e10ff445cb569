// Package watch turns filesystem events on the previewed document into
// notify updates. It watches the document's directory rather than the file
// itself, so editors that save by replacing the file and users who rename
// it keep the preview alive.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/alnah/go-mdlive/internal/notify"
)

// ErrWatcherClosed is returned by Run when the underlying watcher stops
// delivering events.
var ErrWatcherClosed = errors.New("file watcher closed")

// Sender receives document updates.
type Sender interface {
	Send(notify.Update)
}

// Watcher follows one markdown file.
type Watcher struct {
	path     string
	dir      string
	ext      string
	awaiting bool // the file was renamed or removed; the next same-extension create is its new name
	fsw      *fsnotify.Watcher
	logger   *slog.Logger
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets the logger for watch events and watcher errors.
func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// New starts watching the directory of path.
func New(path string, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}

	w := newWatcher(abs)
	for _, opt := range opts {
		opt(w)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	if err := fsw.Add(w.dir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watching %s: %w", w.dir, err)
	}
	w.fsw = fsw
	return w, nil
}

func newWatcher(abs string) *Watcher {
	return &Watcher{
		path:   abs,
		dir:    filepath.Dir(abs),
		ext:    strings.ToLower(filepath.Ext(abs)),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// Path returns the file currently followed. It changes after a rename and
// must only be read from the goroutine running Run, or after Run returns.
func (w *Watcher) Path() string {
	return w.path
}

// Run forwards updates to out until ctx is done or the watcher fails.
func (w *Watcher) Run(ctx context.Context, out Sender) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return ErrWatcherClosed
			}
			if update, ok := w.handleEvent(ev); ok {
				out.Send(update)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return ErrWatcherClosed
			}
			w.logger.Warn("file watcher error", "dir", w.dir, "error", err)
		}
	}
}

// Close stops the underlying watcher.
func (w *Watcher) Close() error {
	if w.fsw == nil {
		return nil
	}
	return w.fsw.Close()
}

// handleEvent decides whether ev changes the previewed document.
func (w *Watcher) handleEvent(ev fsnotify.Event) (notify.Update, bool) {
	name := filepath.Clean(ev.Name)

	if name == w.path {
		switch {
		case ev.Has(fsnotify.Write), ev.Has(fsnotify.Create):
			w.awaiting = false
			return notify.Update{Path: w.path}, true
		case ev.Has(fsnotify.Rename), ev.Has(fsnotify.Remove):
			w.awaiting = true
			w.logger.Debug("watched file moved away", "path", w.path)
		}
		return notify.Update{}, false
	}

	if !w.awaiting || !ev.Has(fsnotify.Create) || !w.candidate(name) {
		return notify.Update{}, false
	}

	w.logger.Info("following renamed file", "from", w.path, "to", name)
	w.path = name
	w.awaiting = false
	return notify.Update{Path: w.path}, true
}

// candidate reports whether name could be the renamed document: a visible
// file in the same directory with the same extension.
func (w *Watcher) candidate(name string) bool {
	base := filepath.Base(name)
	return filepath.Dir(name) == w.dir &&
		!strings.HasPrefix(base, ".") &&
		strings.ToLower(filepath.Ext(base)) == w.ext
}
