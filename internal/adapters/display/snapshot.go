package display

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/bft-labs/framecast/internal/adapters/fs"
	"github.com/bft-labs/framecast/internal/domain"
	"github.com/bft-labs/framecast/internal/ports"
)

// SnapshotFile is the image a Snapshot sink keeps up to date.
const SnapshotFile = "display.png"

// Snapshot renders into a PNG file, standing in for a panel on hosts.
type Snapshot struct {
	path    string
	current *image.Gray
	logger  ports.Logger
}

// NewSnapshot creates dir if needed and writes into dir/display.png.
func NewSnapshot(dir string, logger ports.Logger) (*Snapshot, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	return &Snapshot{path: filepath.Join(dir, SnapshotFile), logger: logger}, nil
}

// Path returns the snapshot file location.
func (s *Snapshot) Path() string { return s.path }

// Render implements ports.DisplaySink.
func (s *Snapshot) Render(ctx context.Context, frame domain.Frame) error {
	s.current = Decode(frame)
	return s.write(s.current)
}

// ShowMessage implements ports.DisplaySink.
func (s *Snapshot) ShowMessage(ctx context.Context, text string) error {
	return s.write(WithBanner(s.base(), text))
}

// DismissMessage implements ports.DisplaySink.
func (s *Snapshot) DismissMessage(ctx context.Context) error {
	return s.write(s.base())
}

// PowerDown implements ports.DisplaySink.
func (s *Snapshot) PowerDown(ctx context.Context) error {
	s.logger.Debug("display powered down", ports.String("snapshot", s.path))
	return nil
}

func (s *Snapshot) base() *image.Gray {
	if s.current == nil {
		return Blank()
	}
	return s.current
}

func (s *Snapshot) write(img image.Image) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := fs.WriteFileAtomic(s.path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}
