// Package server implements frameserver, the producer endpoint framecast
// devices fetch their frames from.
//
// Frames live in one directory per display under the frames root:
//
//	frames/display1/0001.bmp
//	frames/display1/0002.bmp
//	frames/display2/...
//
// Each display is served its files round-robin in name order. Voltages the
// devices report are appended to a CSV log under the data root.
package server

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// displayPrefix names a per-display directory: display<N>.
const displayPrefix = "display"

// ErrUnknownDisplay is returned for a display id with no frame directory.
var ErrUnknownDisplay = errors.New("unknown display")

// playlist is the frame rotation of one display.
type playlist struct {
	files []string
	next  int
}

// Library indexes the frame directories and hands out frames round-robin.
type Library struct {
	root string

	mu        sync.Mutex
	playlists map[string]*playlist
}

// NewLibrary scans root once. A missing root yields an empty library.
func NewLibrary(root string) (*Library, error) {
	l := &Library{root: root, playlists: make(map[string]*playlist)}
	if err := l.Rescan(); err != nil {
		return nil, err
	}
	return l, nil
}

// Root returns the frames directory.
func (l *Library) Root() string {
	return l.root
}

// Rescan rebuilds the index from disk. Rotation positions survive a rescan
// for displays that still exist.
func (l *Library) Rescan() error {
	entries, err := os.ReadDir(l.root)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("scan frames dir: %w", err)
	}

	fresh := make(map[string]*playlist)
	for _, e := range entries {
		id, ok := displayID(e.Name())
		if !ok || !e.IsDir() {
			continue
		}
		files, err := listFrames(filepath.Join(l.root, e.Name()))
		if err != nil {
			return err
		}
		fresh[id] = &playlist{files: files}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for id, p := range fresh {
		if old, ok := l.playlists[id]; ok && len(p.files) > 0 {
			p.next = old.next % len(p.files)
		}
	}
	l.playlists = fresh
	return nil
}

// Has reports whether id has a frame directory.
func (l *Library) Has(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.playlists[id]
	return ok
}

// Counts returns the number of frames per display.
func (l *Library) Counts() map[string]int {
	l.mu.Lock()
	defer l.mu.Unlock()
	counts := make(map[string]int, len(l.playlists))
	for id, p := range l.playlists {
		counts[id] = len(p.files)
	}
	return counts
}

// Next returns the path of the next frame for id and advances its rotation.
func (l *Library) Next(id string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.playlists[id]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownDisplay, id)
	}
	if len(p.files) == 0 {
		return "", fmt.Errorf("display %s has no frames", id)
	}
	name := p.files[p.next]
	p.next = (p.next + 1) % len(p.files)
	return filepath.Join(l.root, displayPrefix+id, name), nil
}

func displayID(dirName string) (string, bool) {
	id, ok := strings.CutPrefix(dirName, displayPrefix)
	if !ok || id == "" {
		return "", false
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return id, true
}

func listFrames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		files = append(files, e.Name())
	}
	sort.Strings(files)
	return files, nil
}
