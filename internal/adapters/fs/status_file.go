package fs

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/bft-labs/framecast/internal/domain"
)

const statusFileName = "status.json"

// StatusFileRepository implements ports.StatusRepository using a JSON file.
type StatusFileRepository struct {
	dir string
}

// NewStatusFileRepository creates a repository storing status.json in dir.
func NewStatusFileRepository(dir string) *StatusFileRepository {
	return &StatusFileRepository{dir: dir}
}

// Load returns an empty status and nil error if no status file exists.
func (r *StatusFileRepository) Load(ctx context.Context) (domain.CycleStatus, error) {
	data, err := os.ReadFile(r.Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.CycleStatus{}, nil
		}
		return domain.CycleStatus{}, err
	}

	var status domain.CycleStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return domain.CycleStatus{}, err
	}
	return status, nil
}

// Save writes status to a temp file and renames it into place.
func (r *StatusFileRepository) Save(ctx context.Context, status domain.CycleStatus) error {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return err
	}
	return WriteFileAtomic(r.Path(), data, 0o644)
}

// Path returns the full path to the status file.
func (r *StatusFileRepository) Path() string {
	return filepath.Join(r.dir, statusFileName)
}

// WriteFileAtomic writes data next to path and renames it over path, so a
// crash leaves either the old or the new content.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
