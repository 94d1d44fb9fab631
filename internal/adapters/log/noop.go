package log

import (
	"github.com/bft-labs/framecast/internal/ports"
	"github.com/bft-labs/framecast/pkg/log"
)

// NewNoopLogger returns a logger that discards everything.
func NewNoopLogger() ports.Logger {
	return log.NewNoopLogger()
}
