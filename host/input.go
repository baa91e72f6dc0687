package host

import (
	"context"
	"fmt"

	surfaceloop "github.com/joeycumines/go-surfaceloop"
)

// InputKind identifies the platform callback an [InputEvent] represents.
type InputKind uint8

const (
	// InputSurfaceCreated is a new surface, carried by InputEvent.Handle.
	InputSurfaceCreated InputKind = iota + 1
	// InputSurfaceChanged sets the surface size to Width and Height.
	InputSurfaceChanged
	// InputSurfaceDestroyed destroys the surface, blocking until it is
	// released.
	InputSurfaceDestroyed
	// InputTouch is a pointer event, with PointerID, Action, X and Y.
	InputTouch
	// InputResume indicates the activity returned to the foreground.
	InputResume
	// InputPause indicates the activity left the foreground.
	InputPause
	// InputStartGame starts (or restarts) the game.
	InputStartGame
	// InputStopGame stops the game, waiting for its runner to exit.
	InputStopGame
)

// String returns a human-readable representation of the kind.
func (k InputKind) String() string {
	switch k {
	case InputSurfaceCreated:
		return "SurfaceCreated"
	case InputSurfaceChanged:
		return "SurfaceChanged"
	case InputSurfaceDestroyed:
		return "SurfaceDestroyed"
	case InputTouch:
		return "Touch"
	case InputResume:
		return "Resume"
	case InputPause:
		return "Pause"
	case InputStartGame:
		return "StartGame"
	case InputStopGame:
		return "StopGame"
	default:
		return "Unknown"
	}
}

// InputEvent is one raw platform callback, as produced by a platform event
// source. Only the fields relevant to Kind are set.
type InputEvent struct {
	// Handle is the native surface, for InputSurfaceCreated.
	Handle any
	// Width and Height are set for InputSurfaceChanged.
	Width  uint32
	Height uint32
	// PointerID, Action, X and Y are set for InputTouch.
	PointerID int32
	Action    int32
	X         float32
	Y         float32
	Kind      InputKind
}

// Dispatch applies events in order, as a single task on the UI loop. It
// stops at the first error.
func (a *Activity) Dispatch(ctx context.Context, events []InputEvent) error {
	if len(events) == 0 {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return a.post(ctx, func() error {
		for i, ev := range events {
			if err := a.apply(ctx, ev); err != nil {
				return fmt.Errorf("dispatch %s (%d of %d): %w", ev.Kind, i+1, len(events), err)
			}
		}
		return nil
	})
}

// apply runs a single event, on the UI loop.
func (a *Activity) apply(ctx context.Context, ev InputEvent) error {
	switch ev.Kind {
	case InputSurfaceCreated:
		a.handle = ev.Handle
		a.hasSurface = true
		a.sized = false
		if a.game == nil {
			return nil
		}
		return a.forward(surfaceloop.CmdSurfaceCreated(a.newWindow()))
	case InputSurfaceChanged:
		if !a.hasSurface {
			return fmt.Errorf("%w: %s", ErrNoSurface, ev.Kind)
		}
		a.width, a.height = ev.Width, ev.Height
		a.sized = true
		return a.forward(surfaceloop.CmdSurfaceChanged(ev.Width, ev.Height))
	case InputSurfaceDestroyed:
		if !a.hasSurface {
			return fmt.Errorf("%w: %s", ErrNoSurface, ev.Kind)
		}
		err := a.bridge.SurfaceDestroyed(ctx)
		a.handle = nil
		a.hasSurface = false
		a.sized = false
		return err
	case InputTouch:
		return a.forward(surfaceloop.CmdTouch(surfaceloop.TouchInput{
			PointerID: ev.PointerID,
			Action:    ev.Action,
			X:         ev.X,
			Y:         ev.Y,
		}))
	case InputResume:
		return a.forward(surfaceloop.CmdResumed())
	case InputPause:
		return a.forward(surfaceloop.CmdPaused())
	case InputStartGame:
		return a.startGame()
	case InputStopGame:
		return a.stopGame()
	default:
		return fmt.Errorf("host: unknown input kind %d", ev.Kind)
	}
}
