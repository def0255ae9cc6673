package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	ErrClosed  = errors.New("engine closed")
	ErrRunning = errors.New("engine already running")
)

const DefaultCommandBuffer = 64

type command struct {
	apply func() (StateChange, error)
	reply chan error
}

// Engine runs a [Machine] in its own goroutine. Commands are queued in
// arrival order and applied one at a time; each successful command
// publishes at most one [StateChange] to the observers.
type Engine struct {
	log      logrus.FieldLogger
	machine  *Machine
	notifier *Notifier
	commands chan command
	tick     time.Duration
	done     chan struct{}
	running  atomic.Bool

	// owned by the Run goroutine
	version uint64
}

type Option func(*Engine)

func WithLogger(log logrus.FieldLogger) Option {
	return func(e *Engine) {
		e.log = log
		e.machine.log = log
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.machine.now = now
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) {
		e.machine.newID = newID
	}
}

// WithTickInterval sets how often elapsed time is reported, and reports it
// at that granularity. Zero disables the internal ticker and keeps the
// current resolution; [Engine.Tick] still works.
func WithTickInterval(d time.Duration) Option {
	return func(e *Engine) {
		e.tick = d
		if d > 0 {
			e.machine.resolution = d
		}
	}
}

// WithResolution sets the granularity of elapsed time while playing. It
// overrides the resolution set by an earlier [WithTickInterval].
func WithResolution(d time.Duration) Option {
	return func(e *Engine) {
		e.machine.resolution = d
	}
}

func WithCommandBuffer(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.commands = make(chan command, n)
		}
	}
}

func WithMaxDimensions(width, height int) Option {
	return func(e *Engine) {
		e.machine.maxWidth = width
		e.machine.maxHeight = height
	}
}

func WithDiagnostics(diag DiagnosticsFunc) Option {
	return func(e *Engine) {
		e.notifier = NewNotifier(diag)
	}
}

func New(opts ...Option) *Engine {
	log := logrus.StandardLogger()
	e := &Engine{
		log:      log,
		machine:  NewMachine(log),
		commands: make(chan command, DefaultCommandBuffer),
		tick:     DefaultResolution,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.notifier == nil {
		e.notifier = NewNotifier(func(h Handle, err error) {
			e.log.WithField("observer", h).WithError(err).Warn("observer failed")
		})
	}
	return e
}

// Run processes commands until ctx is done. Observers receive everything
// published before Run returns.
func (e *Engine) Run(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer e.notifier.Close()
	defer close(e.done)

	var ticks <-chan time.Time
	if e.tick > 0 {
		ticker := time.NewTicker(e.tick)
		defer ticker.Stop()
		ticks = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case cmd := <-e.commands:
			e.execute(cmd)
		case <-ticks:
			e.publish(e.machine.Tick())
		}
	}
}

// Done is closed once the engine stops accepting commands.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

func (e *Engine) execute(cmd command) {
	change, err := cmd.apply()
	if err != nil {
		e.log.WithError(err).Debug("command rejected")
	} else {
		e.publish(change)
	}
	cmd.reply <- err
}

func (e *Engine) publish(c StateChange) {
	if c.Empty() {
		return
	}
	e.version++
	c.Version = e.version
	e.notifier.Publish(c)
}

func (e *Engine) snapshot() Snapshot {
	snap := e.machine.State()
	snap.Version = e.version
	return snap
}

// do queues fn and waits for its result. A queued command still runs if
// ctx ends first, unless the engine stops before reaching it. Variables fn
// writes are only safe to read when do returns nil.
func (e *Engine) do(ctx context.Context, fn func() (StateChange, error)) error {
	cmd := command{apply: fn, reply: make(chan error, 1)}
	select {
	case e.commands <- cmd:
	case <-e.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-cmd.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-e.done:
		select {
		case err := <-cmd.reply:
			return err
		default:
			return ErrClosed
		}
	}
}

func (e *Engine) InitGame(ctx context.Context, p GameParams) error {
	return e.do(ctx, func() (StateChange, error) {
		return e.machine.InitGame(p)
	})
}

func (e *Engine) Reveal(ctx context.Context, x, y int) error {
	return e.do(ctx, func() (StateChange, error) {
		return e.machine.Reveal(x, y)
	})
}

func (e *Engine) RevealSurrounding(ctx context.Context, x, y int) error {
	return e.do(ctx, func() (StateChange, error) {
		return e.machine.RevealSurrounding(x, y)
	})
}

func (e *Engine) Flag(ctx context.Context, x, y int) error {
	return e.do(ctx, func() (StateChange, error) {
		return e.machine.Flag(x, y)
	})
}

func (e *Engine) Unflag(ctx context.Context, x, y int) error {
	return e.do(ctx, func() (StateChange, error) {
		return e.machine.Unflag(x, y)
	})
}

func (e *Engine) Mark(ctx context.Context, x, y int) error {
	return e.do(ctx, func() (StateChange, error) {
		return e.machine.Mark(x, y)
	})
}

func (e *Engine) Reset(ctx context.Context) error {
	return e.do(ctx, func() (StateChange, error) {
		return e.machine.Reset(), nil
	})
}

// Tick reports elapsed time now rather than waiting for the ticker.
func (e *Engine) Tick(ctx context.Context) error {
	return e.do(ctx, func() (StateChange, error) {
		return e.machine.Tick(), nil
	})
}

func (e *Engine) State(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := e.do(ctx, func() (StateChange, error) {
		snap = e.snapshot()
		return StateChange{}, nil
	})
	if err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

func (e *Engine) Subscribe(ctx context.Context, fn Observer) (Handle, error) {
	var h Handle
	err := e.do(ctx, func() (StateChange, error) {
		h = e.notifier.Subscribe(fn)
		return StateChange{}, nil
	})
	if err != nil {
		return 0, err
	}
	return h, nil
}

// SubscribeWithState registers fn and takes a snapshot in one step: fn
// sees exactly the changes made after the returned state.
func (e *Engine) SubscribeWithState(ctx context.Context, fn Observer) (Snapshot, Handle, error) {
	var (
		snap Snapshot
		h    Handle
	)
	err := e.do(ctx, func() (StateChange, error) {
		snap = e.snapshot()
		h = e.notifier.Subscribe(fn)
		return StateChange{}, nil
	})
	if err != nil {
		return Snapshot{}, 0, err
	}
	return snap, h, nil
}

// Unsubscribe takes effect immediately; it does not wait for the queue.
func (e *Engine) Unsubscribe(h Handle) bool {
	return e.notifier.Unsubscribe(h)
}
