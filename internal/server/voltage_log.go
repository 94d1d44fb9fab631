package server

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// VoltageLogFile is the per-display CSV under the data directory.
const VoltageLogFile = "voltages.csv"

var voltageHeader = []string{"timestamp", "voltage"}

// VoltageLog appends reported battery voltages to per-display CSV files.
type VoltageLog struct {
	root string
	now  func() time.Time

	mu sync.Mutex
}

func NewVoltageLog(root string) *VoltageLog {
	return &VoltageLog{root: root, now: time.Now}
}

// Path returns the CSV path for display id.
func (v *VoltageLog) Path(id string) string {
	return filepath.Join(v.root, displayPrefix+id, VoltageLogFile)
}

// Append records one reading. The header is written when the file is created.
func (v *VoltageLog) Append(id string, volts float64) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	path := v.Path(id)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create voltage dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open voltage log: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat voltage log: %w", err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(voltageHeader); err != nil {
			return err
		}
	}
	row := []string{
		v.now().UTC().Format(time.RFC3339),
		strconv.FormatFloat(volts, 'f', -1, 64),
	}
	if err := w.Write(row); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}
