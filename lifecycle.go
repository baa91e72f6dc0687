package surfaceloop

import (
	"time"
)

// lifecycle is the per-run surface state, owned by the runner goroutine.
type lifecycle struct {
	// lastTick paces the frame interval, zero before the first tick
	lastTick time.Time
	// window is the bound window, nil when none is held
	window *Window
	// surface is the engine target, valid once hasSurface is set
	surface    SurfaceID
	scale      float64
	hasSurface bool
	// shouldTick is set by a resize, and cleared by teardown
	shouldTick bool
	// willSuspend is set by a destroy, and cleared by teardown
	willSuspend bool
	// started distinguishes the first resume from later ones
	started bool
}

// handle applies one command to the lifecycle state. It is the only place
// commands are interpreted.
func (r *Runner) handle(cmd Command) {
	r.commands.Add(1)

	r.log.debug(categoryRunner).
		Stringer("command", cmd).
		Log("applying command")

	switch cmd.Kind {
	case CommandSurfaceCreated:
		r.surfaceCreated(cmd)
	case CommandSurfaceChanged:
		r.surfaceChanged(cmd)
	case CommandSurfaceDestroyed:
		r.surfaceDestroyed(cmd)
	case CommandStop:
		r.requestQuit("stop command")
	case CommandTouch:
		r.touch(cmd)
	case CommandResumed:
		if !r.life.started {
			r.life.started = true
			r.engine.DispatchLifecycle(LifecycleStarted)
		} else {
			r.engine.DispatchLifecycle(LifecycleResumed)
		}
	case CommandPaused:
		r.engine.DispatchLifecycle(LifecycleSuspended)
		if r.opts.tickOnPause {
			r.maybeTick()
		}
	default:
		cmd.Window.Release()
		r.log.warning(categoryRunner).
			Int("kind", int(cmd.Kind)).
			Log("unknown command dropped")
	}
}

func (r *Runner) surfaceCreated(cmd Command) {
	w := cmd.Window
	if w == nil {
		r.violation(cmd.Kind, "surface created without a window")
	}

	if r.life.window != nil {
		switch {
		case r.life.willSuspend:
			// destroyed then recreated within one drain
			r.teardown()
		case r.opts.replaceDuplicate:
			r.log.err(categorySurface).
				Log("surface created while a window is bound, releasing the old window")
			r.teardown()
		default:
			w.Release()
			r.violation(cmd.Kind, "surface created while a window is bound")
		}
	}

	if !r.life.hasSurface {
		r.life.surface = r.engine.CreateSurface()
		r.life.scale = 1.0
		r.life.hasSurface = true
		r.log.info(categorySurface).
			Uint64("surface", uint64(r.life.surface)).
			Log("surface target created")
	}

	r.engine.BindSurface(r.life.surface, w)
	r.life.window = w

	r.engine.DispatchSurface(SurfaceEvent{
		Kind:    SurfaceCreatedEvent,
		Surface: r.life.surface,
		Scale:   r.life.scale,
	})
}

func (r *Runner) surfaceChanged(cmd Command) {
	if !r.life.hasSurface {
		r.violation(cmd.Kind, "surface changed before any surface was created")
	}

	r.engine.Resize(r.life.surface, cmd.Width, cmd.Height)
	r.engine.DispatchSurface(SurfaceEvent{
		Kind:    SurfaceResizedEvent,
		Surface: r.life.surface,
		Width:   cmd.Width,
		Height:  cmd.Height,
		Scale:   r.life.scale,
	})
	r.life.shouldTick = true
}

func (r *Runner) surfaceDestroyed(cmd Command) {
	if !r.life.hasSurface {
		r.violation(cmd.Kind, "surface destroyed before any surface was created")
	}

	if r.life.window == nil {
		// already released, e.g. a repeated destroy
		r.log.warning(categorySurface).
			Log("surface destroyed with no window bound")
		r.bridge.handshake.ConfirmRelease()
		return
	}

	r.engine.DispatchSurface(SurfaceEvent{
		Kind:    SurfaceDestroyedEvent,
		Surface: r.life.surface,
		Scale:   r.life.scale,
	})
	r.life.willSuspend = true
}

func (r *Runner) touch(cmd Command) {
	phase, ok := PhaseForAction(cmd.Touch.Action)
	if !ok {
		r.log.debug(categoryRunner).
			Int("action", int(cmd.Touch.Action)).
			Log("touch action has no phase, dropped")
		return
	}
	r.engine.DispatchTouch(TouchEvent{
		Surface: r.life.surface,
		ID:      uint64(uint32(cmd.Touch.PointerID)),
		Phase:   phase,
		X:       cmd.Touch.X,
		Y:       cmd.Touch.Y,
	})
}

// teardown detaches and releases the bound window, then confirms the
// release handshake.
func (r *Runner) teardown() {
	if w := r.life.window; w != nil {
		r.engine.UnbindSurface(r.life.surface)
		r.life.window = nil
		w.Release()
	}
	r.life.shouldTick = false
	r.life.willSuspend = false
	r.bridge.handshake.ConfirmRelease()

	r.log.debug(categorySurface).
		Log("surface released")
}

// violation reports a fatal host protocol violation.
func (r *Runner) violation(kind CommandKind, invariant string) {
	err := &ProtocolError{Invariant: invariant, Command: kind}
	r.log.crit(categorySurface).
		Stringer("command", kind).
		Str("invariant", invariant).
		Log("protocol violation")
	panic(err)
}
