package watcher

import (
	"context"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.trai.ch/sieve/internal/core/domain"
	"go.trai.ch/sieve/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Watcher = (*Watcher)(nil)

// skippedDirectories are directories that should not be watched.
var skippedDirectories = map[string]bool{
	".git":              true,
	".jj":               true,
	"node_modules":      true,
	domain.SieveDirName: true,
}

const eventChannelBuffer = 100

// Watcher implements file system watching using fsnotify.
type Watcher struct {
	logger    ports.Logger
	fsWatcher *fsnotify.Watcher
	root      string
	paths     chan string
	batches   chan []string
	stopOnce  sync.Once
}

// NewWatcher creates a new file system watcher.
func NewWatcher(logger ports.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, domain.WrapAs(domain.ErrWatcherFailed, err)
	}
	return &Watcher{
		logger:    logger,
		fsWatcher: fsWatcher,
		paths:     make(chan string, eventChannelBuffer),
		batches:   make(chan []string),
	}, nil
}

// Start begins watching root recursively. Batches are delivered through
// Batches until ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context, root string, debounce time.Duration) error {
	w.root = root
	for dir := range watchableDirs(root) {
		if err := w.fsWatcher.Add(dir); err != nil {
			return zerr.With(domain.WrapAs(domain.ErrWatcherFailed, err), "dir", dir)
		}
	}

	go w.processEvents(ctx)
	go NewDebouncer(debounce).Run(ctx, w.paths, w.batches)
	return nil
}

// Stop stops the watcher and releases all resources.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		err = w.fsWatcher.Close()
	})
	return err
}

// Batches returns an iterator of debounced batches of changed file paths.
func (w *Watcher) Batches() iter.Seq[[]string] {
	return func(yield func([]string) bool) {
		for batch := range w.batches {
			if !yield(batch) {
				return
			}
		}
	}
}

// watchableDirs yields root and every directory below it that is not skipped.
func watchableDirs(root string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil //nolint:nilerr // unreadable directories are not watched
			}
			if !d.IsDir() {
				return nil
			}
			if path != root && skippedDirectories[d.Name()] {
				return fs.SkipDir
			}
			if !yield(path) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

// processEvents forwards changed file paths to the debouncer.
func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.paths)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !relevant(event) || w.skipped(event.Name) {
				continue
			}

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if !w.watchNewDir(ctx, event.Name) {
						return
					}
					continue
				}
			}

			select {
			case w.paths <- event.Name:
			case <-ctx.Done():
				return
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error: " + err.Error())
		}
	}
}

// watchNewDir watches a directory created after Start and reports the files
// that were written into it before the watch was in place.
func (w *Watcher) watchNewDir(ctx context.Context, dir string) bool {
	for sub := range watchableDirs(dir) {
		if err := w.fsWatcher.Add(sub); err != nil {
			w.logger.Warn("cannot watch " + sub + ": " + err.Error())
			continue
		}
		entries, err := os.ReadDir(sub)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			select {
			case w.paths <- filepath.Join(sub, e.Name()):
			case <-ctx.Done():
				return false
			}
		}
	}
	return true
}

func relevant(event fsnotify.Event) bool {
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
}

// skipped reports whether path lies in a skipped directory below the root.
func (w *Watcher) skipped(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return true
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	for _, part := range parts[:len(parts)-1] {
		if skippedDirectories[part] {
			return true
		}
	}
	return false
}
