package ports

import (
	"context"
	"time"

	"github.com/bft-labs/framecast/internal/domain"
)

// PowerManager exposes wake information and the low-power state.
type PowerManager interface {
	// WakeReason reports why this image is running. The underlying flag is
	// consumed; a second call reports domain.WakeColdBoot.
	WakeReason() domain.WakeReason

	// Suspend arms a wake timer for d and enters low power. It never returns
	// nil: the device resumes through a restart, reported as domain.ErrRestart.
	Suspend(ctx context.Context, d time.Duration) error
}
