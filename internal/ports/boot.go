package ports

import (
	"context"

	"github.com/bft-labs/framecast/internal/domain"
)

// PartitionTable lists the declared boot partitions.
type PartitionTable interface {
	Partitions() ([]domain.Partition, error)

	// FindByRole returns the first partition with the given role or wraps
	// domain.ErrPartitionNotFound.
	FindByRole(role domain.Role) (domain.Partition, error)
}

// BootControl persists the next-boot selection and restarts the device.
type BootControl interface {
	// BootPartition returns the label selected for the next restart.
	BootPartition() (string, error)

	// SetBootPartition durably selects p for the next restart.
	SetBootPartition(p domain.Partition) error

	// Restart asks the platform to restart into the selected partition.
	// On a host it returns domain.ErrRestart for the caller to act on.
	Restart() error
}

// ImageLauncher boots a partition's image and waits for it to end.
type ImageLauncher interface {
	// Launch runs p and returns its exit code.
	Launch(ctx context.Context, p domain.Partition) (int, error)
}
