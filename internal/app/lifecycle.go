package app

import (
	"fmt"
	"sync"

	"github.com/bft-labs/framecast/internal/domain"
	"github.com/bft-labs/framecast/internal/ports"
)

// Phase is the position of a work cycle in its state machine.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseEntry
	PhaseReplenishing
	PhaseDisplaying
	PhaseSuspending
	PhaseHalted
)

// String returns a human-readable representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "Idle"
	case PhaseEntry:
		return "Entry"
	case PhaseReplenishing:
		return "Replenishing"
	case PhaseDisplaying:
		return "Displaying"
	case PhaseSuspending:
		return "Suspending"
	case PhaseHalted:
		return "Halted"
	default:
		return "Unknown"
	}
}

// PhaseEmitter is called when the cycle phase changes.
type PhaseEmitter interface {
	OnPhaseChange(previous, current Phase, reason string)
}

// Lifecycle tracks the phase of one work cycle and rejects transitions the
// cycle state machine does not allow.
type Lifecycle struct {
	mu      sync.RWMutex
	phase   Phase
	logger  ports.Logger
	emitter PhaseEmitter
}

// NewLifecycle creates a lifecycle in PhaseIdle. emitter may be nil.
func NewLifecycle(logger ports.Logger, emitter PhaseEmitter) *Lifecycle {
	return &Lifecycle{
		phase:   PhaseIdle,
		logger:  logger,
		emitter: emitter,
	}
}

// Phase returns the current phase.
func (l *Lifecycle) Phase() Phase {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.phase
}

func allowed(from, to Phase) bool {
	if to == PhaseHalted {
		return from != PhaseHalted
	}
	switch from {
	case PhaseIdle:
		return to == PhaseEntry
	case PhaseEntry:
		return to == PhaseReplenishing || to == PhaseDisplaying
	case PhaseReplenishing:
		return to == PhaseDisplaying || to == PhaseSuspending
	case PhaseDisplaying:
		return to == PhaseReplenishing || to == PhaseSuspending
	default:
		return false
	}
}

// TransitionTo moves to next. Staying in the current phase is a no-op.
func (l *Lifecycle) TransitionTo(next Phase, reason string) error {
	l.mu.Lock()
	prev := l.phase
	if prev == next {
		l.mu.Unlock()
		return nil
	}
	if !allowed(prev, next) {
		l.mu.Unlock()
		return fmt.Errorf("%w: %s to %s", domain.ErrInvalidTransition, prev, next)
	}
	l.phase = next
	l.mu.Unlock()

	if l.emitter != nil {
		l.emitter.OnPhaseChange(prev, next, reason)
	}

	l.logger.Debug("phase transition",
		ports.String("from", prev.String()),
		ports.String("to", next.String()),
		ports.String("reason", reason),
	)
	return nil
}
