package app

import (
	"context"
	"math/rand"
	"time"

	"github.com/benbjohnson/clock"
)

// Default backoff configuration values.
const (
	DefaultBackoffInitial = 500 * time.Millisecond
	DefaultBackoffMax     = 10 * time.Second
)

// backoff implements exponential backoff with jitter on an injectable clock.
type backoff struct {
	clock   clock.Clock
	initial time.Duration
	max     time.Duration
	current time.Duration
}

func newBackoff(clk clock.Clock, initial, max time.Duration) *backoff {
	return &backoff{
		clock:   clk,
		initial: initial,
		max:     max,
		current: initial,
	}
}

// Wait blocks for the current backoff duration and increases it.
// It returns ctx.Err() if ctx ends first.
func (b *backoff) Wait(ctx context.Context) error {
	// ±20%
	jitter := float64(b.current) * 0.2 * (rand.Float64()*2 - 1)
	d := time.Duration(float64(b.current) + jitter)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-b.clock.After(d):
	}

	b.current *= 2
	if b.current > b.max {
		b.current = b.max
	}
	return nil
}

// Reset resets the backoff to the initial duration.
func (b *backoff) Reset() {
	b.current = b.initial
}

// Current returns the current backoff duration.
func (b *backoff) Current() time.Duration {
	return b.current
}
