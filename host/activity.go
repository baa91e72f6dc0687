// Package host simulates a mobile platform activity on top of a
// [surfaceloop.Bridge]: every platform callback runs on a single UI goroutine
// (an event loop), while the [surfaceloop.Runner] runs on its own game
// goroutine, started and joined by the activity.
//
// A destroyed surface blocks the UI goroutine until the runner has released
// the window, exactly as a platform surface callback must.
package host

import (
	"context"
	"errors"
	"fmt"

	eventloop "github.com/joeycumines/go-eventloop"
	surfaceloop "github.com/joeycumines/go-surfaceloop"
	"github.com/joeycumines/logiface"
)

var (
	// ErrNilRunner is returned by [NewActivity] without a runner.
	ErrNilRunner = errors.New("host: nil runner")

	// ErrNoSurface is returned for a surface change or destroy with no
	// surface created.
	ErrNoSurface = errors.New("host: no surface")
)

// Activity is a restartable host for a runner. Its methods may be called from
// any goroutine; each one is posted to the UI loop and waits for completion.
type Activity struct {
	ctx     context.Context
	cancel  context.CancelFunc
	ui      *eventloop.Loop
	uiDone  chan struct{}
	bridge  *surfaceloop.Bridge
	runner  *surfaceloop.Runner
	log     *logiface.Logger[logiface.Event]
	release func(handle any)

	// fields below are confined to the UI loop

	game       *game
	handle     any
	width      uint32
	height     uint32
	hasSurface bool
	sized      bool
}

// game is one run of the runner, on its own goroutine.
type game struct {
	done chan struct{}
	err  error
}

// NewActivity starts the UI loop for a host driving runner, which must have
// been created for bridge.
func NewActivity(bridge *surfaceloop.Bridge, runner *surfaceloop.Runner, opts ...ActivityOption) (*Activity, error) {
	if bridge == nil {
		return nil, errors.New("host: nil bridge")
	}
	if runner == nil {
		return nil, ErrNilRunner
	}
	cfg, err := resolveActivityOptions(opts)
	if err != nil {
		return nil, err
	}

	ui, err := eventloop.New()
	if err != nil {
		return nil, fmt.Errorf("host: create ui loop: %w", err)
	}

	a := &Activity{
		ui:      ui,
		uiDone:  make(chan struct{}),
		bridge:  bridge,
		runner:  runner,
		log:     cfg.logger,
		release: cfg.release,
	}
	a.ctx, a.cancel = context.WithCancel(context.Background())

	go func() {
		defer close(a.uiDone)
		if err := ui.Run(a.ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.log.Err().
				Str("category", "host").
				Err(err).
				Log("ui loop failed")
		}
	}()

	return a, nil
}

// post runs fn on the UI loop, and waits for it to return. If ctx is done
// first, post returns ctx.Err() and fn still runs, later.
func (a *Activity) post(ctx context.Context, fn func() error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	result := make(chan error, 1)
	if err := a.ui.Submit(func() {
		defer func() {
			if r := recover(); r != nil {
				a.log.Err().
					Str("category", "host").
					Any("panic", r).
					Log("ui callback panicked")
				result <- fmt.Errorf("host: ui callback panicked: %v", r)
			}
		}()
		result <- fn()
	}); err != nil {
		return err
	}
	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// forward sends cmd to the runner, if a game is running.
func (a *Activity) forward(cmd surfaceloop.Command) error {
	if a.game == nil {
		cmd.Window.Release()
		return nil
	}
	sent, err := a.bridge.SendActive(cmd)
	if !sent {
		a.log.Debug().
			Str("category", "host").
			Stringer("command", cmd).
			Log("game not running, callback not forwarded")
	}
	return err
}

func (a *Activity) newWindow() *surfaceloop.Window {
	return surfaceloop.NewWindow(a.handle, a.release)
}

// StartGame starts a new run, first stopping (and joining) any run already
// in progress. If a surface already exists it is replayed to the new run, as
// created followed by its last known size.
func (a *Activity) StartGame(ctx context.Context) error {
	return a.post(ctx, a.startGame)
}

func (a *Activity) startGame() error {
	if err := a.stopGame(); err != nil {
		a.log.Warning().
			Str("category", "host").
			Err(err).
			Log("previous game ended with an error")
	}

	if err := a.runner.Start(); err != nil {
		return err
	}
	g := &game{done: make(chan struct{})}
	a.game = g
	go func() {
		defer close(g.done)
		g.err = a.runner.Loop(a.ctx)
	}()

	a.log.Info().
		Str("category", "host").
		Str("run", a.runner.RunID()).
		Bool("surface", a.hasSurface).
		Log("game started")

	if a.hasSurface {
		if err := a.forward(surfaceloop.CmdSurfaceCreated(a.newWindow())); err != nil {
			return err
		}
		if a.sized {
			return a.forward(surfaceloop.CmdSurfaceChanged(a.width, a.height))
		}
	}
	return nil
}

// StopGame stops the current run and joins the game goroutine, returning the
// run's error. It is a no-op when no game was started.
func (a *Activity) StopGame(ctx context.Context) error {
	return a.post(ctx, a.stopGame)
}

func (a *Activity) stopGame() error {
	g := a.game
	if g == nil {
		return nil
	}
	a.game = nil
	if err := a.bridge.Stop(); err != nil {
		return err
	}
	<-g.done
	a.log.Info().
		Str("category", "host").
		Log("game stopped")
	return g.err
}

// GameRunning reports whether a started game has yet to end.
func (a *Activity) GameRunning(ctx context.Context) (bool, error) {
	var running bool
	err := a.post(ctx, func() error {
		if a.game == nil {
			return nil
		}
		select {
		case <-a.game.done:
		default:
			running = true
		}
		return nil
	})
	return running, err
}

func (a *Activity) callback(ctx context.Context, ev InputEvent) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return a.post(ctx, func() error { return a.apply(ctx, ev) })
}

// SurfaceCreated records handle as the current surface, and forwards it to a
// running game.
func (a *Activity) SurfaceCreated(ctx context.Context, handle any) error {
	return a.callback(ctx, InputEvent{Kind: InputSurfaceCreated, Handle: handle})
}

// SurfaceChanged records and forwards the surface size, in pixels.
func (a *Activity) SurfaceChanged(ctx context.Context, width, height uint32) error {
	return a.callback(ctx, InputEvent{Kind: InputSurfaceChanged, Width: width, Height: height})
}

// SurfaceDestroyed blocks the UI loop until a running game has released the
// surface, then forgets it.
func (a *Activity) SurfaceDestroyed(ctx context.Context) error {
	return a.callback(ctx, InputEvent{Kind: InputSurfaceDestroyed})
}

// OnResume forwards a resume to a running game.
func (a *Activity) OnResume(ctx context.Context) error {
	return a.callback(ctx, InputEvent{Kind: InputResume})
}

// OnPause forwards a pause to a running game.
func (a *Activity) OnPause(ctx context.Context) error {
	return a.callback(ctx, InputEvent{Kind: InputPause})
}

// Touch forwards a raw touch to a running game.
func (a *Activity) Touch(ctx context.Context, pointerID, action int32, x, y float32) error {
	return a.callback(ctx, InputEvent{Kind: InputTouch, PointerID: pointerID, Action: action, X: x, Y: y})
}

// Close stops any game, then shuts down the UI loop.
func (a *Activity) Close(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	err := a.StopGame(ctx)
	if e := a.ui.Shutdown(ctx); e != nil && err == nil {
		err = e
	}
	a.cancel()
	select {
	case <-a.uiDone:
	case <-ctx.Done():
		if err == nil {
			err = ctx.Err()
		}
	}
	return err
}
