package ports

import (
	"context"

	"github.com/bft-labs/framecast/internal/domain"
)

// DisplaySink renders frames and transient status text.
type DisplaySink interface {
	// Render shows frame full screen.
	Render(ctx context.Context, frame domain.Frame) error

	// ShowMessage overlays a short status line on the current frame.
	ShowMessage(ctx context.Context, text string) error

	// DismissMessage removes the status line, restoring the frame.
	DismissMessage(ctx context.Context) error

	// PowerDown puts the panel into its lowest power state.
	PowerDown(ctx context.Context) error
}
