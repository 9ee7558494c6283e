package control

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pthm-cable/biosphere/environment"
	"github.com/pthm-cable/biosphere/telemetry"
)

// Speed bounds, in ticks per step.
const (
	MinSpeed = 1
	MaxSpeed = 10
)

// Options configures a Loop.
type Options struct {
	// MaxTicks stops the loop after this many ticks in total. Zero means
	// unlimited.
	MaxTicks int
	// Interval is the pause between steps. Zero runs steps back to back.
	Interval time.Duration
	// Speed is the initial number of ticks per step.
	Speed int
	// FrameBuffer is the capacity of the frame channel.
	FrameBuffer int
	// ShowMetrics starts with the metrics display on.
	ShowMetrics bool
	// CheckInvariants verifies the environment after every tick and panics
	// on a violation.
	CheckInvariants bool
	// SnapshotDir receives snapshots requested with Save. Empty disables
	// saving.
	SnapshotDir string
	RunID       string
	Logger      *slog.Logger
}

// Loop paces an environment and forwards a frame per tick to a reporter.
// The environment is only touched from the goroutine running the loop.
type Loop struct {
	env      *environment.Environment
	reporter *telemetry.Reporter
	commands <-chan Command
	opts     Options
	logger   *slog.Logger

	paused      bool
	speed       int
	showMetrics bool
}

// NewLoop creates a loop. commands may be nil.
func NewLoop(env *environment.Environment, reporter *telemetry.Reporter, commands <-chan Command, opts Options) *Loop {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		env:         env,
		reporter:    reporter,
		commands:    commands,
		opts:        opts,
		logger:      logger,
		speed:       min(max(opts.Speed, MinSpeed), MaxSpeed),
		showMetrics: opts.ShowMetrics,
	}
}

// Run ticks until extinction, MaxTicks, a Quit command or cancellation, and
// waits for the reporter to drain before returning.
func (l *Loop) Run(ctx context.Context) error {
	frames := make(chan telemetry.Frame, max(l.opts.FrameBuffer, 1))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return l.reporter.Run(gctx, frames)
	})
	g.Go(func() error {
		defer close(frames)
		return l.run(gctx, frames)
	})
	return g.Wait()
}

func (l *Loop) run(ctx context.Context, frames chan<- telemetry.Frame) error {
	var tick <-chan time.Time
	if l.opts.Interval > 0 {
		ticker := time.NewTicker(l.opts.Interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		if l.paused {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case cmd, ok := <-l.commands:
				if !ok {
					l.commands = nil
					l.paused = false
					continue
				}
				if l.handle(cmd) {
					return nil
				}
			}
			continue
		}

		// Drain pending commands without blocking.
		for pending := true; pending; {
			select {
			case cmd, ok := <-l.commands:
				if !ok {
					l.commands = nil
					pending = false
					continue
				}
				if l.handle(cmd) {
					return nil
				}
			default:
				pending = false
			}
		}
		if l.paused {
			continue
		}

		done, err := l.step(ctx, frames)
		if err != nil || done {
			return err
		}

		if tick != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-tick:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}
	}
}

// step runs up to speed ticks. It reports done when the run is over.
func (l *Loop) step(ctx context.Context, frames chan<- telemetry.Frame) (bool, error) {
	for range l.speed {
		l.env.Tick()
		if l.opts.CheckInvariants {
			if err := l.env.CheckInvariants(); err != nil {
				panic(err)
			}
		}

		f := l.env.Frame()
		f.ShowMetrics = l.showMetrics
		select {
		case frames <- f:
		case <-ctx.Done():
			return true, ctx.Err()
		}

		if l.env.IsExtinct() {
			l.logger.Info("extinction", "tick", f.Tick)
			return true, nil
		}
		if l.opts.MaxTicks > 0 && f.Tick >= l.opts.MaxTicks {
			l.logger.Info("max_ticks_reached", "tick", f.Tick)
			return true, nil
		}
	}
	return false, nil
}

// handle applies a command and reports whether the loop should stop.
func (l *Loop) handle(cmd Command) bool {
	switch cmd {
	case Pause:
		l.paused = true
	case Resume:
		l.paused = false
	case TogglePause:
		l.paused = !l.paused
	case SpeedUp:
		l.speed = min(l.speed+1, MaxSpeed)
	case SlowDown:
		l.speed = max(l.speed-1, MinSpeed)
	case ToggleMetrics:
		l.showMetrics = !l.showMetrics
	case Save:
		l.save()
	case Quit:
		l.logger.Info("command", "command", cmd.String(), "tick", l.env.TickCount())
		return true
	}
	l.logger.Info("command",
		"command", cmd.String(),
		"tick", l.env.TickCount(),
		"paused", l.paused,
		"speed", l.speed,
		"show_metrics", l.showMetrics,
	)
	return false
}

// save writes a snapshot of the current state.
func (l *Loop) save() {
	if l.opts.SnapshotDir == "" {
		l.logger.Warn("snapshot_disabled", "tick", l.env.TickCount())
		return
	}
	path, err := telemetry.SaveSnapshot(l.env.Snapshot(l.opts.RunID, nil), l.opts.SnapshotDir)
	if err != nil {
		l.logger.Error("failed to save snapshot", "error", err)
		return
	}
	l.logger.Info("snapshot_saved", "path", path, "tick", l.env.TickCount())
}

// Paused reports whether the loop is paused. Only valid after Run returns.
func (l *Loop) Paused() bool {
	return l.paused
}

// Speed returns the current ticks per step. Only valid after Run returns.
func (l *Loop) Speed() int {
	return l.speed
}

// ShowMetrics reports whether the metrics display is on. Only valid after
// Run returns.
func (l *Loop) ShowMetrics() bool {
	return l.showMetrics
}
