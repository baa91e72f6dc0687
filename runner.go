package surfaceloop

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// runnerTestHooks provides injection points for deterministic tests.
type runnerTestHooks struct {
	// BeforeWait is called with the computed wait, before blocking.
	BeforeWait func(remaining time.Duration)
	// AfterTick is called after every engine tick.
	AfterTick func()
}

// Runner is the single consumer of a [Bridge]: it owns the [FrameEngine] and
// the bound [Window], applies commands, and paces engine ticks against the
// frame interval.
//
// A Runner may be run any number of times, sequentially. Only one runner may
// be active per bridge at a time.
type Runner struct {
	err        error
	engine     FrameEngine
	bridge     *Bridge
	opts       *options
	testHooks  *runnerTestHooks
	log        eventLogger
	runID      string
	life       lifecycle
	iterations atomic.Uint64
	commands   atomic.Uint64
	ticks      atomic.Uint64
	discarded  atomic.Uint64
	state      runnerState
	readiness  EngineReadiness
	quit       bool
}

// NewRunner creates a runner for engine, consuming commands from bridge.
// Options not given here default to those the bridge was created with.
func NewRunner(bridge *Bridge, engine FrameEngine, opts ...Option) (*Runner, error) {
	if bridge == nil {
		return nil, fmt.Errorf("surfaceloop: nil bridge")
	}

	cfg := *bridge.opts
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.apply(&cfg); err != nil {
			return nil, err
		}
	}

	return &Runner{
		bridge: bridge,
		engine: engine,
		opts:   &cfg,
		log:    eventLogger{logger: cfg.logger},
	}, nil
}

// State returns the current runner state.
func (r *Runner) State() RunnerState {
	return r.state.Load()
}

// Readiness returns the engine readiness. It must only be called from the
// goroutine running the loop.
func (r *Runner) Readiness() EngineReadiness {
	return r.readiness
}

// RunID returns the identifier of the current, or last, run. Like
// [Runner.Readiness], it is not synchronized with Start.
func (r *Runner) RunID() string {
	return r.runID
}

// RunnerStats are cumulative counters across every run of a [Runner].
type RunnerStats struct {
	// Iterations counts calls to Step that did not return early.
	Iterations uint64
	// Commands counts applied commands.
	Commands uint64
	// Ticks counts engine ticks.
	Ticks uint64
	// Discarded counts commands dropped unapplied on exit.
	Discarded uint64
}

// Stats returns the runner's counters. It is safe to call from any
// goroutine.
func (r *Runner) Stats() RunnerStats {
	return RunnerStats{
		Iterations: r.iterations.Load(),
		Commands:   r.commands.Load(),
		Ticks:      r.ticks.Load(),
		Discarded:  r.discarded.Load(),
	}
}

// Run performs [Runner.Start] then [Runner.Loop].
func (r *Runner) Run(ctx context.Context) error {
	if err := r.Start(); err != nil {
		return err
	}
	return r.Loop(ctx)
}

// Start claims the bridge and begins a run. From this point commands sent to
// the bridge are queued for this runner, and surface destroys block on the
// release handshake. Every successful Start must be followed by
// [Runner.Finish], which [Runner.Loop] does.
func (r *Runner) Start() error {
	if r.engine == nil {
		return ErrNilEngine
	}
	if !r.bridge.active.CompareAndSwap(false, true) {
		return ErrRunnerActive
	}

	r.runID = r.opts.runID
	if r.runID == "" {
		r.runID = uuid.NewString()
	}
	r.log = eventLogger{logger: r.opts.logger, runID: r.runID}
	r.life = lifecycle{}
	r.readiness = ReadinessUninitialized
	r.quit = false
	r.err = nil

	r.bridge.channel.attach()
	r.bridge.handshake.setRunning(true)
	r.state.Store(StateRunning)

	r.log.info(categoryRunner).
		Dur("frame_interval", r.opts.frameInterval).
		Int("queued", r.bridge.channel.Len()).
		Log("runner started")

	return nil
}

// Loop runs iterations until the run ends, by a stop command, the engine's
// exit signal, an initialization failure, or ctx being done, then calls
// [Runner.Finish]. It returns ctx.Err() if ctx ended the run, the
// initialization error if there was one, and nil otherwise.
func (r *Runner) Loop(ctx context.Context) error {
	if r.state.Load() != StateRunning {
		return ErrRunnerNotStarted
	}
	defer r.Finish()

	for r.Step(ctx) {
	}

	if r.err != nil {
		return r.err
	}
	if ctx != nil {
		return ctx.Err()
	}
	return nil
}

// Step runs exactly one scheduler iteration, returning false once the run
// should end (the caller must then call [Runner.Finish]). The iteration:
//
//  1. drains every queued command, applying each
//  2. ticks the engine once, if it is ready and a sized surface is bound
//  3. completes a pending surface teardown, confirming the release handshake
//  4. checks the engine's exit signal
//  5. blocks on the channel for the rest of the frame interval, applying a
//     command that arrives meanwhile
func (r *Runner) Step(ctx context.Context) bool {
	if s := r.state.Load(); s != StateRunning && s != StateStopping {
		return false
	}
	if ctx != nil && ctx.Err() != nil {
		r.requestQuit("context done")
	}
	if r.quit {
		return false
	}

	r.iterations.Add(1)

	r.advanceReadiness()
	r.bridge.channel.Drain(r.apply)

	ticked := r.maybeTick()

	if r.life.willSuspend {
		r.teardown()
	}

	if r.readiness == ReadinessReady && r.engine.ExitRequested() {
		r.requestQuit("engine exit requested")
	}
	if r.quit {
		return false
	}

	remaining := r.opts.frameInterval - time.Since(r.life.lastTick)
	if remaining <= 0 && !ticked {
		// idle, so wait a full interval rather than spin
		remaining = r.opts.frameInterval
	}
	if remaining < 0 {
		remaining = 0
	}

	if r.testHooks != nil && r.testHooks.BeforeWait != nil {
		r.testHooks.BeforeWait(remaining)
	}

	var interrupt <-chan struct{}
	if ctx != nil {
		interrupt = ctx.Done()
	}
	if cmd, ok := r.bridge.channel.receive(remaining, interrupt); ok {
		r.apply(cmd)
	}

	return true
}

// apply handles one command then polls readiness, so engine construction
// progresses while commands stream in.
func (r *Runner) apply(cmd Command) {
	r.handle(cmd)
	r.advanceReadiness()
}

func (r *Runner) advanceReadiness() {
	if r.quit {
		return
	}
	switch r.readiness {
	case ReadinessUninitialized:
		if p, ok := r.engine.(Preparer); ok && !p.Prepare() {
			return
		}
		r.readiness = ReadinessFinishing
		fallthrough
	case ReadinessFinishing:
		if err := r.engine.Initialize(); err != nil {
			r.err = fmt.Errorf("%w: %w", ErrEngineInitialize, err)
			r.log.err(categoryRunner).
				Err(err).
				Log("frame engine initialization failed")
			r.requestQuit("initialization failed")
			return
		}
		r.readiness = ReadinessReady
		r.log.info(categoryRunner).
			Log("frame engine ready")
	}
}

// maybeTick ticks the engine if it is ready and a sized surface is bound.
func (r *Runner) maybeTick() bool {
	if r.readiness != ReadinessReady || !r.life.shouldTick || r.life.window == nil {
		return false
	}

	r.life.lastTick = time.Now()
	r.engine.Tick()
	r.ticks.Add(1)

	if r.testHooks != nil && r.testHooks.AfterTick != nil {
		r.testHooks.AfterTick()
	}
	return true
}

func (r *Runner) requestQuit(reason string) {
	if r.quit {
		return
	}
	r.quit = true
	r.state.TryTransition(StateRunning, StateStopping)
	r.log.info(categoryRunner).
		Str("reason", reason).
		Log("runner stopping")
}

// Finish ends the current run: it releases any bound window, stops blocking
// surface destroys, discards (logging each) every queued command, finalizes
// the engine if it was initialized, and releases the bridge for the next
// run. It is a no-op if no run is in progress.
func (r *Runner) Finish() {
	if s := r.state.Load(); s != StateRunning && s != StateStopping {
		return
	}

	if r.life.window != nil {
		r.teardown()
	}

	r.bridge.handshake.setRunning(false)

	discarded := r.bridge.channel.Drain(r.discard)

	if r.readiness == ReadinessReady {
		r.engine.Finalize()
	}

	r.state.Store(StateStopped)
	r.bridge.active.Store(false)

	r.log.info(categoryRunner).
		Uint64("ticks", r.ticks.Load()).
		Int("discarded", discarded).
		Log("runner stopped")
}

func (r *Runner) discard(cmd Command) {
	r.discarded.Add(1)
	cmd.Window.Release()
	r.log.info(categoryRunner).
		Stringer("command", cmd).
		Log("discarding command on exit")
}
