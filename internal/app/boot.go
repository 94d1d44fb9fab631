package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/bft-labs/framecast/internal/domain"
	"github.com/bft-labs/framecast/internal/ports"
)

// SelectorRoutes maps a selector state to the application role it boots.
// Bit i of the state is set when selector input i is asserted.
type SelectorRoutes map[int]domain.Role

// DefaultRoutes routes an asserted selector to app-a and a released one to app-b.
func DefaultRoutes() SelectorRoutes {
	return SelectorRoutes{
		1: domain.AppRole(0),
		0: domain.AppRole(1),
	}
}

// BootArbiter runs in the selector stage. It samples the selector, points the
// next boot at the matching application partition and restarts.
type BootArbiter struct {
	table  ports.PartitionTable
	boot   ports.BootControl
	inputs []ports.DigitalInput
	routes SelectorRoutes
	logger ports.Logger
}

// NewBootArbiter creates an arbiter reading the given selector inputs.
func NewBootArbiter(
	table ports.PartitionTable,
	boot ports.BootControl,
	inputs []ports.DigitalInput,
	routes SelectorRoutes,
	logger ports.Logger,
) *BootArbiter {
	return &BootArbiter{
		table:  table,
		boot:   boot,
		inputs: inputs,
		routes: routes,
		logger: logger,
	}
}

// SelectorState samples every selector input once.
func (a *BootArbiter) SelectorState() (int, error) {
	state := 0
	for i, in := range a.inputs {
		asserted, err := in.Asserted()
		if err != nil {
			return 0, fmt.Errorf("read selector input %d: %w", i, err)
		}
		if asserted {
			state |= 1 << i
		}
	}
	return state, nil
}

// Arbitrate selects the next partition and requests a restart. On a host the
// returned error is domain.ErrRestart after a successful selection. Any other
// error is terminal; there is no retry.
func (a *BootArbiter) Arbitrate(ctx context.Context) (domain.Partition, error) {
	parts, err := a.table.Partitions()
	if err != nil {
		return domain.Partition{}, fmt.Errorf("%w: list partitions: %w", domain.ErrBootSelection, err)
	}
	for _, p := range parts {
		a.logger.Info("partition",
			ports.String("label", p.Label),
			ports.String("role", string(p.Role)),
			ports.String("command", strings.Join(p.Command, " ")),
		)
	}

	state, err := a.SelectorState()
	if err != nil {
		return domain.Partition{}, fmt.Errorf("%w: %w", domain.ErrBootSelection, err)
	}

	role, ok := a.routes[state]
	if !ok {
		return domain.Partition{}, fmt.Errorf("%w: no route for selector state %d", domain.ErrPartitionNotFound, state)
	}

	target, err := a.table.FindByRole(role)
	if err != nil {
		return domain.Partition{}, err
	}

	if err := a.boot.SetBootPartition(target); err != nil {
		return domain.Partition{}, fmt.Errorf("%w: set %s: %w", domain.ErrBootSelection, target.Label, err)
	}

	a.logger.Info("boot partition selected",
		ports.Int("selector_state", state),
		ports.String("role", string(role)),
		ports.String("label", target.Label),
	)
	return target, a.boot.Restart()
}

// BootReversion runs first in every application image and points the next
// boot back at the selector stage.
type BootReversion struct {
	table  ports.PartitionTable
	boot   ports.BootControl
	logger ports.Logger
}

// NewBootReversion creates a BootReversion.
func NewBootReversion(table ports.PartitionTable, boot ports.BootControl, logger ports.Logger) *BootReversion {
	return &BootReversion{table: table, boot: boot, logger: logger}
}

// Revert selects the selector partition for the next boot.
func (r *BootReversion) Revert(ctx context.Context) error {
	selector, err := r.table.FindByRole(domain.RoleSelector)
	if err != nil {
		return err
	}
	if err := r.boot.SetBootPartition(selector); err != nil {
		return fmt.Errorf("%w: set %s: %w", domain.ErrBootSelection, selector.Label, err)
	}
	r.logger.Info("next boot reverted to selector", ports.String("label", selector.Label))
	return nil
}
