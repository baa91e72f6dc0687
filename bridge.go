package surfaceloop

import (
	"context"
	"sync/atomic"
	"time"
)

// Bridge is the context shared by the host adapter (the producer side) and
// the [Runner] (the consumer side). It is constructed once, and may be reused
// by any number of sequential runs.
//
// Every method is safe to call from any goroutine.
type Bridge struct {
	opts      *options
	log       eventLogger
	channel   *Channel
	handshake *ReleaseHandshake
	// active is held by the one runner using this bridge
	active atomic.Bool
}

// NewBridge creates a bridge. Of the options, only [WithLogger] and
// [WithWarnRates] apply to the bridge itself; the rest are recorded as
// defaults for runners created against it.
func NewBridge(opts ...Option) (*Bridge, error) {
	cfg, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}

	limiter, err := newWarnLimiter(cfg.warnRates)
	if err != nil {
		return nil, err
	}

	log := eventLogger{logger: cfg.logger}

	return &Bridge{
		opts:      cfg,
		log:       log,
		channel:   newChannel(log, limiter),
		handshake: newReleaseHandshake(),
	}, nil
}

// Channel returns the command channel.
func (b *Bridge) Channel() *Channel {
	return b.channel
}

// Handshake returns the release handshake.
func (b *Bridge) Handshake() *ReleaseHandshake {
	return b.handshake
}

// Running reports whether a runner is currently active on this bridge.
func (b *Bridge) Running() bool {
	return b.handshake.Running()
}

// Send enqueues an arbitrary command. See [Channel.Send].
func (b *Bridge) Send(cmd Command) error {
	return b.channel.Send(cmd)
}

// SurfaceCreated moves ownership of w to the runner.
func (b *Bridge) SurfaceCreated(w *Window) error {
	return b.channel.Send(CmdSurfaceCreated(w))
}

// SurfaceChanged reports the surface dimensions, in pixels.
func (b *Bridge) SurfaceChanged(width, height uint32) error {
	return b.channel.Send(CmdSurfaceChanged(width, height))
}

// SurfaceDestroyed requests teardown of the bound surface, and blocks until
// the runner has unbound and released the window, or ctx is done. After a nil
// return the host may invalidate the native handle.
//
// If no runner is active it returns nil immediately, without sending
// anything, since there is nothing to release.
func (b *Bridge) SurfaceDestroyed(ctx context.Context) error {
	requested, err := b.handshake.request(func() error {
		return b.channel.Send(CmdSurfaceDestroyed())
	})
	if err != nil {
		return err
	}
	if !requested {
		b.log.debug(categoryHandshake).
			Log("surface destroyed with no active runner, nothing to release")
		return nil
	}

	start := time.Now()
	err = b.handshake.AwaitRelease(ctx)
	if err != nil {
		b.log.warning(categoryHandshake).
			Err(err).
			Dur("waited", time.Since(start)).
			Log("abandoned wait for surface release")
		return err
	}

	b.log.debug(categoryHandshake).
		Dur("waited", time.Since(start)).
		Log("surface release acknowledged")
	return nil
}

// Stop requests termination of the active runner. The runner stops at the
// top of its next iteration. With no runner active it is a no-op, so a stale
// stop can never end a later run.
func (b *Bridge) Stop() error {
	_, err := b.SendActive(CmdStop())
	return err
}

// SendActive enqueues cmd only while a runner is active, and reports whether
// it was sent. A command sent this way is applied or discarded by that run,
// and is never left queued for a later one. Any window carried by an unsent
// command is released.
func (b *Bridge) SendActive(cmd Command) (bool, error) {
	sent, err := b.handshake.ifRunning(func() error {
		return b.channel.Send(cmd)
	})
	if !sent {
		cmd.Window.Release()
	}
	return sent, err
}

// Touch forwards a raw touch input. The action code is mapped to a phase by
// the runner, see [PhaseForAction].
func (b *Bridge) Touch(pointerID, action int32, x, y float32) error {
	return b.channel.Send(CmdTouch(TouchInput{
		PointerID: pointerID,
		Action:    action,
		X:         x,
		Y:         y,
	}))
}

// Resumed reports that the host became active.
func (b *Bridge) Resumed() error {
	return b.channel.Send(CmdResumed())
}

// Paused reports that the host became inactive.
func (b *Bridge) Paused() error {
	return b.channel.Send(CmdPaused())
}
