package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/bft-labs/framecast/internal/domain"
	"github.com/bft-labs/framecast/internal/ports"
)

// RestartExitCode is the exit status an image uses to ask for a restart.
const RestartExitCode = 75

// SupervisorConfig configures the host boot supervisor.
type SupervisorConfig struct {
	// RestartDelay separates consecutive boots.
	RestartDelay time.Duration

	// MaxBoots stops the supervisor after that many boots; zero means forever.
	MaxBoots int
}

// Supervisor plays the bootloader on a host: it reads the boot selection,
// launches the selected image and relaunches whenever it asks to restart.
type Supervisor struct {
	cfg      SupervisorConfig
	table    ports.PartitionTable
	boot     ports.BootControl
	launcher ports.ImageLauncher
	clock    clock.Clock
	logger   ports.Logger
}

// NewSupervisor creates a Supervisor. A nil clock means the wall clock.
func NewSupervisor(
	cfg SupervisorConfig,
	table ports.PartitionTable,
	boot ports.BootControl,
	launcher ports.ImageLauncher,
	clk clock.Clock,
	logger ports.Logger,
) *Supervisor {
	if clk == nil {
		clk = clock.New()
	}
	return &Supervisor{
		cfg:      cfg,
		table:    table,
		boot:     boot,
		launcher: launcher,
		clock:    clk,
		logger:   logger,
	}
}

// Run boots images until one exits cleanly, ctx ends, or a boot fault occurs.
func (s *Supervisor) Run(ctx context.Context) error {
	for boots := 0; s.cfg.MaxBoots == 0 || boots < s.cfg.MaxBoots; boots++ {
		p, err := s.resolve()
		if err != nil {
			return err
		}

		s.logger.Info("booting", ports.String("label", p.Label), ports.String("role", string(p.Role)))
		code, err := s.launcher.Launch(ctx, p)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			return fmt.Errorf("%w: launch %s: %w", domain.ErrBootFault, p.Label, err)
		}

		switch code {
		case RestartExitCode:
			s.logger.Debug("restart requested", ports.String("label", p.Label))
		case 0:
			s.logger.Info("image exited", ports.String("label", p.Label))
			return nil
		default:
			return fmt.Errorf("%w: %s exited with status %d", domain.ErrBootFault, p.Label, code)
		}

		if s.cfg.RestartDelay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-s.clock.After(s.cfg.RestartDelay):
			}
		}
	}
	return nil
}

// resolve returns the selected partition. An unreadable or unknown selection
// falls back to the selector partition.
func (s *Supervisor) resolve() (domain.Partition, error) {
	label, err := s.boot.BootPartition()
	if err != nil {
		s.logger.Warn("boot selection unreadable, using selector", ports.Err(err))
		label = ""
	}

	if label != "" {
		parts, err := s.table.Partitions()
		if err != nil {
			return domain.Partition{}, fmt.Errorf("%w: list partitions: %w", domain.ErrBootSelection, err)
		}
		for _, p := range parts {
			if p.Label == label {
				return p, nil
			}
		}
		s.logger.Warn("selected partition not declared, using selector", ports.String("label", label))
	}

	p, err := s.table.FindByRole(domain.RoleSelector)
	if err != nil {
		if errors.Is(err, domain.ErrPartitionNotFound) {
			return domain.Partition{}, fmt.Errorf("%w: %w", domain.ErrBootFault, err)
		}
		return domain.Partition{}, err
	}
	return p, nil
}
