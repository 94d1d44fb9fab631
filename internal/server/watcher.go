package server

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/framecast/internal/ports"
)

// DefaultDebounce collapses bursts of filesystem events into one rescan.
const DefaultDebounce = 200 * time.Millisecond

// Watcher rescans a Library whenever its frame directories change.
type Watcher struct {
	library  *Library
	debounce time.Duration
	logger   ports.Logger
	onRescan func(counts map[string]int)

	mu    sync.Mutex
	timer *time.Timer
}

// NewWatcher creates a watcher for library. onRescan may be nil.
func NewWatcher(library *Library, debounce time.Duration, logger ports.Logger, onRescan func(map[string]int)) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		library:  library,
		debounce: debounce,
		logger:   logger,
		onRescan: onRescan,
	}
}

// Run watches the frames root and every display directory until ctx is
// done. Directories created later are picked up as they appear.
func (w *Watcher) Run(ctx context.Context) error {
	root := w.library.Root()
	if err := os.MkdirAll(root, 0o755); err != nil {
		return err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()
	defer w.stopTimer()

	if err := fw.Add(root); err != nil {
		return err
	}
	w.addDisplayDirs(fw, root)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if event.Op&fsnotify.Create != 0 && filepath.Dir(event.Name) == root {
				if _, ok := displayID(filepath.Base(event.Name)); ok {
					if err := fw.Add(event.Name); err != nil {
						w.logger.Warn("watch display dir", ports.String("path", event.Name), ports.Err(err))
					}
				}
			}
			w.scheduleRescan()

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("frame watcher error", ports.Err(err))
		}
	}
}

func (w *Watcher) addDisplayDirs(fw *fsnotify.Watcher, root string) {
	entries, err := os.ReadDir(root)
	if err != nil {
		w.logger.Warn("list frames dir", ports.Err(err))
		return
	}
	for _, e := range entries {
		if _, ok := displayID(e.Name()); !ok || !e.IsDir() {
			continue
		}
		path := filepath.Join(root, e.Name())
		if err := fw.Add(path); err != nil {
			w.logger.Warn("watch display dir", ports.String("path", path), ports.Err(err))
		}
	}
}

func (w *Watcher) scheduleRescan() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.rescan)
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}

func (w *Watcher) rescan() {
	if err := w.library.Rescan(); err != nil {
		w.logger.Warn("frame library rescan", ports.Err(err))
		return
	}
	counts := w.library.Counts()
	w.logger.Info("frame library rescanned", ports.Int("displays", len(counts)))
	if w.onRescan != nil {
		w.onRescan(counts)
	}
}
