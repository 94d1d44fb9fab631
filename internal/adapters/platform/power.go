package platform

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/benbjohnson/clock"

	fsadapter "github.com/bft-labs/framecast/internal/adapters/fs"
	"github.com/bft-labs/framecast/internal/domain"
	"github.com/bft-labs/framecast/internal/ports"
)

// WakeMarkerFile records an armed wake timer across the restart.
const WakeMarkerFile = "wake.marker"

// Suspend modes.
const (
	// SuspendSimulate waits on the clock instead of entering low power.
	SuspendSimulate = "simulate"

	// SuspendRTC arms the RTC wake alarm and suspends to RAM.
	SuspendRTC = "rtc"
)

// PowerConfig configures a PowerManager.
type PowerConfig struct {
	StateDir string
	Mode     string

	// Sysfs and procfs locations, overridable for tests.
	WakeAlarmPath  string
	PowerStatePath string
	BootIDPath     string

	Clock clock.Clock
}

// DefaultPowerConfig returns the Linux locations for mode.
func DefaultPowerConfig(stateDir, mode string) PowerConfig {
	return PowerConfig{
		StateDir:       stateDir,
		Mode:           mode,
		WakeAlarmPath:  "/sys/class/rtc/rtc0/wakealarm",
		PowerStatePath: "/sys/power/state",
		BootIDPath:     "/proc/sys/kernel/random/boot_id",
	}
}

// PowerManager implements ports.PowerManager.
//
// A timed wake is recognised by the marker Suspend leaves behind: it names the
// kernel boot id, so a marker from before a power loss reads as a cold boot.
type PowerManager struct {
	cfg      PowerConfig
	clock    clock.Clock
	logger   ports.Logger
	consumed bool
}

// NewPowerManager validates cfg.
func NewPowerManager(cfg PowerConfig, logger ports.Logger) (*PowerManager, error) {
	switch cfg.Mode {
	case SuspendSimulate, SuspendRTC:
	default:
		return nil, fmt.Errorf("%w: unknown suspend mode %q", domain.ErrInvalidConfig, cfg.Mode)
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.New()
	}
	return &PowerManager{cfg: cfg, clock: clk, logger: logger}, nil
}

func (m *PowerManager) markerPath() string {
	return filepath.Join(m.cfg.StateDir, WakeMarkerFile)
}

// WakeReason implements ports.PowerManager.
func (m *PowerManager) WakeReason() domain.WakeReason {
	if m.consumed {
		return domain.WakeColdBoot
	}
	m.consumed = true

	data, err := os.ReadFile(m.markerPath())
	if errors.Is(err, fs.ErrNotExist) {
		return domain.WakeColdBoot
	}
	if err != nil {
		m.logger.Warn("wake marker unreadable", ports.Err(err))
		return domain.WakeUnknown
	}
	if err := os.Remove(m.markerPath()); err != nil {
		m.logger.Warn("consume wake marker", ports.Err(err))
	}

	marked, _, _ := strings.Cut(string(data), "\n")
	current, err := m.bootID()
	if err != nil {
		m.logger.Warn("boot id unavailable", ports.Err(err))
		return domain.WakeUnknown
	}
	if marked != current {
		return domain.WakeColdBoot
	}
	return domain.WakeTimer
}

// Suspend implements ports.PowerManager. It returns domain.ErrRestart once the
// interval has elapsed, or the context error if interrupted first.
func (m *PowerManager) Suspend(ctx context.Context, d time.Duration) error {
	if err := m.writeMarker(d); err != nil {
		return err
	}

	var err error
	switch m.cfg.Mode {
	case SuspendRTC:
		err = m.suspendRTC(d)
	default:
		select {
		case <-ctx.Done():
			err = ctx.Err()
		case <-m.clock.After(d):
		}
	}
	if err != nil {
		// the next start is not the armed wake
		os.Remove(m.markerPath())
		return err
	}
	return domain.ErrRestart
}

func (m *PowerManager) writeMarker(d time.Duration) error {
	id, err := m.bootID()
	if err != nil {
		m.logger.Warn("boot id unavailable, next wake reads as unknown", ports.Err(err))
	}
	if err := os.MkdirAll(m.cfg.StateDir, 0755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	content := fmt.Sprintf("%s\n%s\n%d\n", id, m.clock.Now().UTC().Format(time.RFC3339), int64(d/time.Second))
	if err := fsadapter.WriteFileAtomic(m.markerPath(), []byte(content), 0644); err != nil {
		return fmt.Errorf("write wake marker: %w", err)
	}
	return nil
}

func (m *PowerManager) suspendRTC(d time.Duration) error {
	secs := int64(d / time.Second)
	if secs < 1 {
		secs = 1
	}
	// an armed alarm must be cleared before it can be set again
	if err := os.WriteFile(m.cfg.WakeAlarmPath, []byte("0"), 0644); err != nil {
		return fmt.Errorf("clear wake alarm: %w", err)
	}
	if err := os.WriteFile(m.cfg.WakeAlarmPath, []byte("+"+strconv.FormatInt(secs, 10)), 0644); err != nil {
		return fmt.Errorf("arm wake alarm: %w", err)
	}
	m.logger.Debug("entering suspend", ports.Int64("wake_in_s", secs))
	if err := os.WriteFile(m.cfg.PowerStatePath, []byte("mem"), 0644); err != nil {
		return fmt.Errorf("suspend: %w", err)
	}
	return nil
}

func (m *PowerManager) bootID() (string, error) {
	data, err := os.ReadFile(m.cfg.BootIDPath)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
