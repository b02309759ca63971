// Package watcher observes the match directories and coalesces bursts of
// file events into single reload signals.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"snipd/internal/logging"
	"snipd/internal/matches"
)

// DefaultDebounce is how long the file set must stay quiet before a reload
// fires. Editors save in bursts; one burst means one reload.
const DefaultDebounce = time.Second

// Watcher monitors match directories recursively. Every settled burst of
// relevant changes produces exactly one signal on Reloads.
type Watcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	dirs     []string
	debounce time.Duration
	pending  time.Time
	dirty    bool
	reloads  chan struct{}
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  bool
}

// New builds a watcher over the given root directories.
func New(dirs []string, debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		watcher:  fsw,
		dirs:     dirs,
		debounce: debounce,
		reloads:  make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Reloads delivers one signal per settled burst of match-file changes.
func (w *Watcher) Reloads() <-chan struct{} { return w.reloads }

// Start registers the directory trees and begins the event loop.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	for _, dir := range w.dirs {
		if err := w.addTree(dir); err != nil {
			logging.Watcher("initial watch of %s failed: %v", dir, err)
		}
	}

	go w.run(ctx)
	return nil
}

// Stop shuts the watcher down and waits for the loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		logging.Watcher("error closing watcher: %v", err)
	}
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.debounce / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Watcher("watch error: %v", err)

		case <-ticker.C:
			w.flushSettled()
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	// New subdirectories join the watch so nested match files are seen.
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !hidden(event.Name) {
				if err := w.addTree(event.Name); err != nil {
					logging.Watcher("could not watch new directory %s: %v", event.Name, err)
				}
			}
			return
		}
	}

	if !relevant(event.Name) {
		return
	}
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	logging.WatcherDebug("change detected: %s (%s)", event.Name, event.Op)
	w.mu.Lock()
	w.dirty = true
	w.pending = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) flushSettled() {
	w.mu.Lock()
	fire := w.dirty && time.Since(w.pending) >= w.debounce
	if fire {
		w.dirty = false
	}
	w.mu.Unlock()

	if !fire {
		return
	}
	logging.Watcher("match files settled, requesting reload")
	select {
	case w.reloads <- struct{}{}:
	default:
		// A reload is already queued.
	}
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && hidden(path) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return err
		}
		logging.WatcherDebug("watching %s", path)
		return nil
	})
}

// relevant keeps only visible match files.
func relevant(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	return matches.IsSupportedExtension(strings.TrimPrefix(filepath.Ext(base), "."))
}

func hidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
