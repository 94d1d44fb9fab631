package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/bft-labs/framecast/internal/domain"
	"github.com/bft-labs/framecast/internal/ports"
)

// replenish brings the network up and fills the store until it runs out of
// capacity or the source stops delivering. It returns the number of frames
// stored. A connect timeout abandons the fill and keeps the existing queue.
func (c *cycle) replenish(ctx context.Context) (int, error) {
	if err := c.phases.TransitionTo(PhaseReplenishing, "queue empty"); err != nil {
		return 0, err
	}
	start := c.deps.Clock.Now()

	// tear down whatever a partial bring-up left behind as well
	defer func() {
		if err := c.deps.Network.Disconnect(context.WithoutCancel(ctx)); err != nil {
			c.logger.Warn("network disconnect", ports.Err(err))
		}
	}()

	c.message(ctx, "Connecting to network...")
	if err := c.connect(ctx); err != nil {
		c.logger.Warn("network unavailable, keeping existing queue", ports.Err(err))
		c.message(ctx, "Network unavailable")
		c.deps.Emitter.OnReplenish(0, c.deps.Clock.Since(start), err)
		return 0, err
	}

	stored, writeFailures := 0, 0
	var fillErr error
	for c.deps.Store.HasCapacityForOneMore() {
		if err := ctx.Err(); err != nil {
			fillErr = err
			break
		}

		frame, err := c.deps.Source.Fetch(ctx)
		if err != nil {
			c.logger.Warn("frame source stopped", ports.Err(err))
			fillErr = err
			break
		}

		seq, err := c.deps.Store.Enqueue(frame)
		if err != nil {
			if !errors.Is(err, domain.ErrStorageCorrupted) {
				fillErr = err
				break
			}
			// the store erased itself; keep filling from empty
			writeFailures++
			c.status.Purges++
			c.deps.Emitter.OnPurge("write-failure")
			c.message(ctx, "Storage reset")
			if writeFailures >= c.cfg.MaxEnqueueFailures {
				fillErr = fmt.Errorf("giving up after %d write failures: %w", writeFailures, err)
				break
			}
			continue
		}

		writeFailures = 0
		stored++
		c.deps.Emitter.OnFrameStored(seq)
		c.message(ctx, fmt.Sprintf("Frame %d stored", seq))
	}

	c.status.FramesStored += stored
	elapsed := c.deps.Clock.Since(start)
	c.deps.Emitter.OnReplenish(stored, elapsed, fillErr)
	c.logger.Info("replenish finished",
		ports.Int("stored", stored),
		ports.Duration("elapsed", elapsed),
	)
	return stored, fillErr
}

// connect retries Network.Connect with backoff until ConnectTimeout.
func (c *cycle) connect(ctx context.Context) error {
	ctx, cancel := c.deps.Clock.WithTimeout(ctx, c.cfg.ConnectTimeout)
	defer cancel()

	b := newBackoff(c.deps.Clock, DefaultBackoffInitial, DefaultBackoffMax)
	for attempt := 1; ; attempt++ {
		err := c.deps.Network.Connect(ctx)
		if err == nil {
			c.logger.Debug("network connected", ports.Int("attempt", attempt))
			return nil
		}
		c.logger.Debug("connect attempt failed",
			ports.Int("attempt", attempt),
			ports.Duration("retry_in", b.Current()),
			ports.Err(err),
		)
		if werr := b.Wait(ctx); werr != nil {
			if errors.Is(err, domain.ErrNoConnectivity) {
				return err
			}
			return fmt.Errorf("%w: %w", domain.ErrNoConnectivity, err)
		}
	}
}
