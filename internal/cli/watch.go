package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// watchDelay lets an editor finish writing before a changed file is read.
const watchDelay = 150 * time.Millisecond

// change is a settled modification of a watched file.
type change struct {
	Path    string
	Removed bool
}

// watcher reports changes to a set of files and directories. Editors often
// replace files instead of writing them, so parent directories are watched
// and events are filtered by path. Bursts of events for one path are
// debounced into a single change.
type watcher struct {
	files  map[string]bool // watched files, absolute
	dirs   map[string]bool // watched directories, absolute
	logger *log.Logger
	onFile func(change)

	mu       sync.Mutex
	debounce map[string]func(func())
}

func newWatcher(targets []string, logger *log.Logger, fn func(change)) (*watcher, error) {
	w := &watcher{
		files:    make(map[string]bool),
		dirs:     make(map[string]bool),
		logger:   logger,
		onFile:   fn,
		debounce: make(map[string]func(func())),
	}
	for _, t := range targets {
		abs, err := filepath.Abs(t)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("watch %s: %w", t, err)
		}
		if info.IsDir() {
			w.dirs[abs] = true
		} else {
			w.files[abs] = true
		}
	}
	return w, nil
}

// wants reports whether an event path belongs to a target.
func (w *watcher) wants(path string) bool {
	return w.files[path] || w.dirs[filepath.Dir(path)]
}

// run blocks until ctx is done.
func (w *watcher) run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	added := make(map[string]bool)
	for f := range w.files {
		added[filepath.Dir(f)] = true
	}
	for d := range w.dirs {
		added[d] = true
	}
	for d := range added {
		if err := fw.Add(d); err != nil {
			return fmt.Errorf("watch %s: %w", d, err)
		}
		w.logger.Debug("watching", "dir", d)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			path, _ := filepath.Abs(event.Name)
			if !w.wants(path) {
				continue
			}
			removed := event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
			if !removed && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			w.schedule(path)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "err", err)
		}
	}
}

// schedule reports path once its events have settled. A file that is gone
// by then is reported as removed; a replaced file is not.
func (w *watcher) schedule(path string) {
	w.mu.Lock()
	d, ok := w.debounce[path]
	if !ok {
		d = debounce.New(watchDelay)
		w.debounce[path] = d
	}
	w.mu.Unlock()

	d(func() {
		_, err := os.Stat(path)
		w.onFile(change{Path: path, Removed: os.IsNotExist(err)})
	})
}
