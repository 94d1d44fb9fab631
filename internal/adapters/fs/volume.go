package fs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// File is an open queue entry. *os.File satisfies it.
type File interface {
	io.Reader
	io.Writer
	io.Closer
	Sync() error
	Stat() (os.FileInfo, error)
}

// Volume is the flat storage area a FrameStore keeps its entries in.
type Volume interface {
	// List returns the names of all regular files.
	List() ([]string, error)

	// Create opens name for writing, truncating any previous content.
	Create(name string) (File, error)

	// Open opens name for reading.
	Open(name string) (File, error)

	// Remove deletes name. Removing a missing name is not an error.
	Remove(name string) error

	// Free returns the bytes still available for new entries.
	Free() (int64, error)
}

// DirVolume is a Volume backed by a directory.
type DirVolume struct {
	dir   string
	quota int64

	statfs func(path string, buf *unix.Statfs_t) error
}

// NewDirVolume creates dir if needed. A positive quota caps the bytes the
// directory may hold regardless of free space on the filesystem.
func NewDirVolume(dir string, quota int64) (*DirVolume, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &DirVolume{dir: dir, quota: quota, statfs: unix.Statfs}, nil
}

// Dir returns the backing directory.
func (v *DirVolume) Dir() string {
	return v.dir
}

func (v *DirVolume) List() ([]string, error) {
	entries, err := os.ReadDir(v.dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

func (v *DirVolume) Create(name string) (File, error) {
	return os.OpenFile(filepath.Join(v.dir, name), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
}

func (v *DirVolume) Open(name string) (File, error) {
	return os.Open(filepath.Join(v.dir, name))
}

func (v *DirVolume) Remove(name string) error {
	err := os.Remove(filepath.Join(v.dir, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Free reports the filesystem's available bytes, limited by the quota.
func (v *DirVolume) Free() (int64, error) {
	var st unix.Statfs_t
	if err := v.statfs(v.dir, &st); err != nil {
		return 0, fmt.Errorf("statfs %s: %w", v.dir, err)
	}
	free := int64(st.Bavail) * int64(st.Bsize)

	if v.quota > 0 {
		used, err := v.used()
		if err != nil {
			return 0, err
		}
		if left := v.quota - used; left < free {
			free = left
		}
	}
	if free < 0 {
		free = 0
	}
	return free, nil
}

func (v *DirVolume) used() (int64, error) {
	entries, err := os.ReadDir(v.dir)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			// removed between ReadDir and Info
			continue
		}
		total += info.Size()
	}
	return total, nil
}
