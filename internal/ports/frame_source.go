package ports

import (
	"context"

	"github.com/bft-labs/framecast/internal/domain"
)

// FrameSource produces one frame per successful call. It assumes the network
// has been brought up by a Network.
type FrameSource interface {
	Fetch(ctx context.Context) (domain.Frame, error)
}

// Network brings connectivity up for the duration of a replenish.
type Network interface {
	// Connect blocks until the producer is reachable or ctx ends.
	// It wraps domain.ErrNoConnectivity on failure.
	Connect(ctx context.Context) error

	// Disconnect tears connectivity down again.
	Disconnect(ctx context.Context) error
}

// VoltageSensor reads the supply voltage in volts.
type VoltageSensor interface {
	Voltage() (float64, error)
}
