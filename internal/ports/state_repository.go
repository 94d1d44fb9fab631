package ports

import (
	"context"

	"github.com/bft-labs/framecast/internal/domain"
)

// StatusRepository persists the summary of the last work cycle.
type StatusRepository interface {
	// Load returns an empty status and nil error if nothing was saved yet.
	Load(ctx context.Context) (domain.CycleStatus, error)

	// Save persists status atomically.
	Save(ctx context.Context, status domain.CycleStatus) error
}
