package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/bft-labs/framecast/internal/domain"
	"github.com/bft-labs/framecast/internal/ports"
)

// Default work cycle settings.
const (
	DefaultSuspendInterval    = 6 * time.Minute
	DefaultBannerDuration     = 5 * time.Second
	DefaultConnectTimeout     = 30 * time.Second
	DefaultFailureThreshold   = 3
	DefaultMaxEnqueueFailures = 3
)

// CycleConfig contains configuration for one work cycle.
type CycleConfig struct {
	SuspendInterval time.Duration
	BannerDuration  time.Duration
	ConnectTimeout  time.Duration

	// FailureThreshold is the number of consecutive failed dequeues that
	// erases the store.
	FailureThreshold int

	// MaxEnqueueFailures stops a replenish after that many write failures
	// in a row.
	MaxEnqueueFailures int

	// Partition labels the running image in logs and status.
	Partition string
}

// DefaultCycleConfig returns a CycleConfig with default values.
func DefaultCycleConfig() CycleConfig {
	return CycleConfig{
		SuspendInterval:    DefaultSuspendInterval,
		BannerDuration:     DefaultBannerDuration,
		ConnectTimeout:     DefaultConnectTimeout,
		FailureThreshold:   DefaultFailureThreshold,
		MaxEnqueueFailures: DefaultMaxEnqueueFailures,
	}
}

// CycleEventEmitter observes a work cycle.
type CycleEventEmitter interface {
	PhaseEmitter
	OnFrameStored(seq uint64)
	OnFrameDisplayed(seq uint64)
	OnDequeueFailure(err error)
	OnPurge(reason string)
	OnReplenish(stored int, duration time.Duration, err error)
	OnCycleEnd(status domain.CycleStatus)
}

// CycleDeps are the collaborators of a WorkCycle. Reset, Status and Emitter
// are optional.
type CycleDeps struct {
	Store   ports.FrameStore
	Source  ports.FrameSource
	Network ports.Network
	Display ports.DisplaySink
	Power   ports.PowerManager
	Reset   ports.DigitalInput
	Status  ports.StatusRepository
	Emitter CycleEventEmitter
	Clock   clock.Clock
	Logger  ports.Logger
}

// WorkCycle runs one wake cycle: replenish, display one frame, optionally
// show the cache banner, then suspend.
type WorkCycle struct {
	cfg  CycleConfig
	deps CycleDeps
}

// NewWorkCycle creates a work cycle. A nil clock means the wall clock.
func NewWorkCycle(cfg CycleConfig, deps CycleDeps) *WorkCycle {
	if deps.Clock == nil {
		deps.Clock = clock.New()
	}
	if deps.Emitter == nil {
		deps.Emitter = nopEmitter{}
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = DefaultFailureThreshold
	}
	if cfg.MaxEnqueueFailures <= 0 {
		cfg.MaxEnqueueFailures = DefaultMaxEnqueueFailures
	}
	return &WorkCycle{cfg: cfg, deps: deps}
}

// cycle holds the state of a single Run.
type cycle struct {
	*WorkCycle
	logger ports.Logger
	phases *Lifecycle
	status domain.CycleStatus

	// notify enables status text; it is off on timed wakes.
	notify bool
}

// Run executes the cycle. It returns the error of the final suspend, which
// is domain.ErrRestart when the platform wants the image restarted.
func (w *WorkCycle) Run(ctx context.Context) error {
	id := uuid.NewString()
	logger := w.deps.Logger.With(ports.String("cycle_id", id))

	reason := w.deps.Power.WakeReason()
	c := &cycle{
		WorkCycle: w,
		logger:    logger,
		phases:    NewLifecycle(logger, w.deps.Emitter),
		notify:    reason != domain.WakeTimer,
		status: domain.CycleStatus{
			CycleID:      id,
			Partition:    w.cfg.Partition,
			StartedAt:    w.deps.Clock.Now(),
			Wake:         reason.String(),
			DisplayedSeq: -1,
		},
	}

	logger.Info("work cycle started",
		ports.String("wake", reason.String()),
		ports.String("partition", w.cfg.Partition),
	)

	err := c.run(ctx)
	if err != nil && !errors.Is(err, domain.ErrRestart) {
		c.status.LastError = err.Error()
		if terr := c.phases.TransitionTo(PhaseHalted, err.Error()); terr != nil {
			logger.Debug("halt transition", ports.Err(terr))
		}
		c.finish(context.WithoutCancel(ctx))
	}
	return err
}

func (c *cycle) run(ctx context.Context) error {
	if err := c.phases.TransitionTo(PhaseEntry, c.status.Wake); err != nil {
		return err
	}

	if c.deps.Reset != nil {
		asserted, err := c.deps.Reset.Asserted()
		if err != nil {
			c.logger.Warn("reset input unreadable", ports.Err(err))
		}
		if asserted {
			c.logger.Info("reset input asserted, erasing frame store")
			c.purge("manual-reset")
		}
	}

	failures := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if failures >= c.cfg.FailureThreshold {
			c.logger.Warn("too many failed dequeues, erasing frame store", ports.Int("failures", failures))
			c.purge("repeated-failures")
			failures = 0
		}

		replenished, stored := false, 0
		if !c.deps.Store.HasEntries() {
			stored, _ = c.replenish(ctx)
			replenished = true
		}

		if err := c.phases.TransitionTo(PhaseDisplaying, "dequeue"); err != nil {
			return err
		}

		entry, err := c.deps.Store.Dequeue()
		if err != nil {
			if replenished && stored == 0 && errors.Is(err, domain.ErrQueueEmpty) {
				c.logger.Warn("no frames available, suspending without display")
				return c.suspend(ctx)
			}
			failures++
			c.status.DequeueErrors++
			c.deps.Emitter.OnDequeueFailure(err)
			c.logger.Warn("dequeue failed, retrying",
				ports.Int("failures", failures),
				ports.Err(err),
			)
			continue
		}

		c.display(ctx, entry)

		if !c.deps.Store.HasEntries() {
			c.replenish(ctx)
		}

		if c.notify {
			if err := c.banner(ctx); err != nil {
				return err
			}
		} else {
			c.logger.Debug("timed wake, banner suppressed")
		}

		return c.suspend(ctx)
	}
}

func (c *cycle) display(ctx context.Context, entry domain.Entry) {
	if err := c.deps.Display.Render(ctx, entry.Frame); err != nil {
		c.logger.Error("render failed", ports.Uint64("seq", entry.Seq), ports.Err(err))
		return
	}
	c.status.DisplayedSeq = int64(entry.Seq)
	c.deps.Emitter.OnFrameDisplayed(entry.Seq)
	c.logger.Info("frame displayed", ports.Uint64("seq", entry.Seq))
}

func (c *cycle) banner(ctx context.Context) error {
	text := fmt.Sprintf("Frames in cache: %d", c.deps.Store.Len())
	if err := c.deps.Display.ShowMessage(ctx, text); err != nil {
		c.logger.Warn("show banner", ports.Err(err))
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.deps.Clock.After(c.cfg.BannerDuration):
	}

	if err := c.deps.Display.DismissMessage(ctx); err != nil {
		c.logger.Warn("dismiss banner", ports.Err(err))
	}
	return nil
}

// message shows transient status text outside of timed wakes.
func (c *cycle) message(ctx context.Context, text string) {
	if !c.notify {
		return
	}
	if err := c.deps.Display.ShowMessage(ctx, text); err != nil {
		c.logger.Debug("status message", ports.String("text", text), ports.Err(err))
	}
}

func (c *cycle) purge(reason string) {
	if err := c.deps.Store.PurgeAll(); err != nil {
		c.logger.Error("erase frame store", ports.String("reason", reason), ports.Err(err))
	}
	c.status.Purges++
	c.deps.Emitter.OnPurge(reason)
}

func (c *cycle) suspend(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.phases.TransitionTo(PhaseSuspending, "cycle complete"); err != nil {
		return err
	}

	if err := c.deps.Display.PowerDown(ctx); err != nil {
		c.logger.Warn("display power down", ports.Err(err))
	}

	c.status.SuspendSeconds = int64(c.cfg.SuspendInterval / time.Second)
	c.finish(ctx)

	c.logger.Info("suspending", ports.Duration("interval", c.cfg.SuspendInterval))
	return c.deps.Power.Suspend(ctx, c.cfg.SuspendInterval)
}

// finish records the cycle summary before control leaves the image.
func (c *cycle) finish(ctx context.Context) {
	c.status.EndedAt = c.deps.Clock.Now()
	c.status.QueueDepth = c.deps.Store.Len()

	if c.deps.Status != nil {
		if err := c.deps.Status.Save(ctx, c.status); err != nil {
			c.logger.Warn("save cycle status", ports.Err(err))
		}
	}
	c.deps.Emitter.OnCycleEnd(c.status)
}

type nopEmitter struct{}

func (nopEmitter) OnPhaseChange(previous, current Phase, reason string) {}
func (nopEmitter) OnFrameStored(seq uint64)                             {}
func (nopEmitter) OnFrameDisplayed(seq uint64)                          {}
func (nopEmitter) OnDequeueFailure(err error)                           {}
func (nopEmitter) OnPurge(reason string)                                {}
func (nopEmitter) OnReplenish(stored int, d time.Duration, err error)   {}
func (nopEmitter) OnCycleEnd(status domain.CycleStatus)                 {}
